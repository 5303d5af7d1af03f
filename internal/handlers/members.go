package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EvgenyiK/pulsefit-service/internal/models"
	"github.com/EvgenyiK/pulsefit-service/internal/plans"
	"github.com/EvgenyiK/pulsefit-service/internal/subscription"
)

// defaultPeriodDays — срок подписки при регистрации, если дата окончания не указана
const defaultPeriodDays = 365

type MemberInput struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role,omitempty"`
	Category  string  `json:"category"`
	StartDate *string `json:"start_date,omitempty"` // формат "2024-01-31"
	EndDate   *string `json:"end_date,omitempty"`
}

type ProfileInput struct {
	Age         *int     `json:"age,omitempty"`
	HeightCm    *float64 `json:"height_cm,omitempty"`
	WeightKg    *float64 `json:"weight_kg,omitempty"`
	FitnessGoal string   `json:"fitness_goal,omitempty"`
	Phone       string   `json:"phone,omitempty"`
}

type SubscriptionDetails struct {
	Subscription models.Subscription     `json:"subscription"`
	View         models.SubscriptionView `json:"view"`
	Features     []string                `json:"features"`
	Alert        string                  `json:"alert,omitempty"`
}

// CreateMember godoc
// @Summary Зарегистрировать участника
// @Description Создает участника с подпиской. Цена берется из тарифа, по умолчанию подписка на 365 дней с сегодняшнего дня.
// @Tags members
// @Accept json
// @Produce json
// @Param member body MemberInput true "Данные участника"
// @Success 201 {object} models.MemberView
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /members [post]
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var input MemberInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	start, end, msg := resolvePeriod(input, h.clock.Today())
	if msg != "" {
		h.respondWithError(w, http.StatusBadRequest, msg)
		return
	}

	member := &models.Member{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
	}
	if msg := applyInput(member, input, start, end); msg != "" {
		h.respondWithError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.CreateMember(r.Context(), member); err != nil {
		h.storeError(w, err, "create member", member.ID)
		return
	}

	h.log.Info("member created", zap.Stringer("member_id", member.ID), zap.String("category", member.Subscription.Category))
	respondWithJSON(w, http.StatusCreated, h.memberView(*member))
}

// ListMembers godoc
// @Summary Список участников
// @Description Возвращает всех участников с вычисленным статусом подписки
// @Tags members
// @Produce json
// @Success 200 {array} models.MemberView
// @Failure 500 {object} map[string]string
// @Router /members [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	views, ok := h.listViews(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, views)
}

// GetMember godoc
// @Summary Вернуть участника по ID
// @Description Возвращает участника, состояние подписки и индекс массы тела
// @Tags members
// @Produce json
// @Param id path string true "ID участника (UUID)"
// @Success 200 {object} models.MemberView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /members/{id} [get]
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.memberID(w, r)
	if !ok {
		return
	}

	member, err := h.store.GetMember(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "get member", id)
		return
	}

	respondWithJSON(w, http.StatusOK, h.memberView(*member))
}

// UpdateMember godoc
// @Summary Обновить участника
// @Description Обновляет имя, email, тариф и даты подписки. Цена пересчитывается по тарифу.
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "ID участника (UUID)"
// @Param member body MemberInput true "Новые данные"
// @Success 200 {object} models.MemberView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /members/{id} [put]
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.memberID(w, r)
	if !ok {
		return
	}

	var input MemberInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.StartDate == nil || *input.StartDate == "" || input.EndDate == nil || *input.EndDate == "" {
		h.respondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	start, end, msg := resolvePeriod(input, h.clock.Today())
	if msg != "" {
		h.respondWithError(w, http.StatusBadRequest, msg)
		return
	}

	// Получаем существующего участника
	member, err := h.store.GetMember(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "get member", id)
		return
	}

	if msg := applyInput(member, input, start, end); msg != "" {
		h.respondWithError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.UpdateMember(r.Context(), member); err != nil {
		h.storeError(w, err, "update member", id)
		return
	}

	respondWithJSON(w, http.StatusOK, h.memberView(*member))
}

// UpdateProfile godoc
// @Summary Обновить профиль участника
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "ID участника (UUID)"
// @Param profile body ProfileInput true "Профиль"
// @Success 200 {object} models.MemberView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /members/{id}/profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.memberID(w, r)
	if !ok {
		return
	}

	var input ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if (input.Age != nil && *input.Age <= 0) ||
		(input.HeightCm != nil && *input.HeightCm <= 0) ||
		(input.WeightKg != nil && *input.WeightKg <= 0) {
		h.respondWithError(w, http.StatusBadRequest, "Age, height and weight must be positive")
		return
	}

	profile := models.Profile(input)
	if err := h.store.UpdateProfile(r.Context(), id, profile); err != nil {
		h.storeError(w, err, "update profile", id)
		return
	}

	member, err := h.store.GetMember(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "get member", id)
		return
	}
	respondWithJSON(w, http.StatusOK, h.memberView(*member))
}

// DeleteMember godoc
// @Summary Удалить участника
// @Description Удаляет участника вместе с подпиской
// @Tags members
// @Param id path string true "ID участника (UUID)"
// @Success 204 {string} string "No Content"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /members/{id} [delete]
func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.memberID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteMember(r.Context(), id); err != nil {
		h.storeError(w, err, "delete member", id)
		return
	}

	h.log.Info("member deleted", zap.Stringer("member_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// GetSubscription godoc
// @Summary Подписка участника
// @Description Возвращает подписку, оставшиеся дни, статус, прогресс, возможности тарифа и предупреждение об окончании
// @Tags subscriptions
// @Produce json
// @Param id path string true "ID участника (UUID)"
// @Success 200 {object} SubscriptionDetails
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /members/{id}/subscription [get]
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := h.memberID(w, r)
	if !ok {
		return
	}

	member, err := h.store.GetMember(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "get member", id)
		return
	}
	if member.Subscription == nil {
		h.respondWithError(w, http.StatusNotFound, "Subscription not found")
		return
	}

	mv := h.memberView(*member)
	details := SubscriptionDetails{
		Subscription: *member.Subscription,
		View:         *mv.View,
		Alert:        alertMessage(*mv.View),
	}
	if plan, ok := plans.Lookup(member.Subscription.Category); ok {
		details.Features = plan.Features
	}

	respondWithJSON(w, http.StatusOK, details)
}

// RenewSubscription godoc
// @Summary Продлить подписку
// @Description Переносит дату окончания подписки на месяц вперед от сегодняшнего дня
// @Tags subscriptions
// @Produce json
// @Param id path string true "ID участника (UUID)"
// @Success 200 {object} models.MemberView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /members/{id}/renew [post]
func (h *Handler) RenewSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := h.memberID(w, r)
	if !ok {
		return
	}

	endDate := h.clock.Today().AddDate(0, 1, 0)
	if err := h.store.RenewSubscription(r.Context(), id, endDate); err != nil {
		h.storeError(w, err, "renew subscription", id)
		return
	}

	member, err := h.store.GetMember(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "get member", id)
		return
	}

	h.log.Info("subscription renewed", zap.Stringer("member_id", id), zap.Time("end_date", endDate))
	respondWithJSON(w, http.StatusOK, h.memberView(*member))
}

// resolvePeriod разбирает даты подписки: начало по умолчанию сегодня,
// окончание по умолчанию через defaultPeriodDays от начала
func resolvePeriod(input MemberInput, today time.Time) (time.Time, time.Time, string) {
	start := today
	if input.StartDate != nil && *input.StartDate != "" {
		parsed, err := subscription.ParseDate(*input.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, "Invalid start_date format"
		}
		start = parsed
	}

	end := start.AddDate(0, 0, defaultPeriodDays)
	if input.EndDate != nil && *input.EndDate != "" {
		parsed, err := subscription.ParseDate(*input.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, "Invalid end_date format"
		}
		end = parsed
	}
	return start, end, ""
}

// applyInput проверяет ввод и переносит его в участника.
// Пустая роль сохраняет текущую, новый участник получает роль user.
// Email хранится в нижнем регистре.
func applyInput(m *models.Member, input MemberInput, start, end time.Time) string {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || input.Email == "" || input.Category == "" {
		return "Missing required fields"
	}

	role := input.Role
	if role == "" {
		role = m.Role
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return "Invalid role"
	}

	plan, ok := plans.Lookup(input.Category)
	if !ok {
		return fmt.Sprintf("Unknown subscription category %q", input.Category)
	}

	subID := uuid.New()
	if m.Subscription != nil {
		subID = m.Subscription.ID
	}

	m.Name = input.Name
	m.Email = input.Email
	m.Role = role
	m.Subscription = &models.Subscription{
		ID:        subID,
		MemberID:  m.ID,
		Category:  plan.Name,
		Price:     plan.Price,
		StartDate: start,
		EndDate:   end,
	}
	return ""
}

func alertMessage(v models.SubscriptionView) string {
	switch v.Status {
	case models.StatusExpired:
		return "Your subscription has expired. Renew now to continue accessing the gym."
	case models.StatusExpiring:
		unit := "days"
		if v.DaysLeft == 1 {
			unit = "day"
		}
		return fmt.Sprintf("Your subscription expires in %d %s. Consider renewing soon.", v.DaysLeft, unit)
	}
	return ""
}
