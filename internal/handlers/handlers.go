package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/EvgenyiK/pulsefit-service/internal/fitness"
	"github.com/EvgenyiK/pulsefit-service/internal/metrics"
	"github.com/EvgenyiK/pulsefit-service/internal/models"
	"github.com/EvgenyiK/pulsefit-service/internal/plans"
	"github.com/EvgenyiK/pulsefit-service/internal/repository"
	"github.com/EvgenyiK/pulsefit-service/internal/subscription"
)

type Handler struct {
	store repository.Store
	clock subscription.Clock
	log   *zap.Logger
}

func NewHandler(store repository.Store, clock subscription.Clock, log *zap.Logger) *Handler {
	return &Handler{store: store, clock: clock, log: log}
}

// ListPlans godoc
// @Summary Список тарифов
// @Description Возвращает каталог тарифных планов клуба
// @Tags plans
// @Produce json
// @Success 200 {array} plans.Plan
// @Router /plans [get]
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, plans.All())
}

// Health отвечает, что сервис жив
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// memberView считает состояние подписки участника на сегодня
func (h *Handler) memberView(m models.Member) models.MemberView {
	mv := models.MemberView{Member: m}

	if m.Subscription != nil {
		view := subscription.Compute(*m.Subscription, h.clock.Today())
		metrics.RecordView(view.Status)
		mv.View = &view
	}

	if m.Profile.HeightCm != nil && m.Profile.WeightKg != nil {
		if bmi, err := fitness.BMI(*m.Profile.HeightCm, *m.Profile.WeightKg); err == nil {
			mv.BMI = &bmi
		}
	}
	return mv
}

func (h *Handler) memberID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := parseUUID(mux.Vars(r)["id"])
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid member ID format")
		return uuid.Nil, false
	}
	return id, true
}

// storeError переводит ошибку хранилища в HTTP-ответ
func (h *Handler) storeError(w http.ResponseWriter, err error, action string, id uuid.UUID) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.respondWithError(w, http.StatusNotFound, "Member not found")
	case errors.Is(err, repository.ErrDuplicateEmail):
		h.respondWithError(w, http.StatusConflict, "Email already registered")
	default:
		h.log.Error("store failure", zap.String("action", action), zap.Stringer("member_id", id), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// парсинг ID участника
func parseUUID(idStr string) (uuid.UUID, error) {
	return uuid.Parse(idStr)
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Обработка ошибок с логированием
func (h *Handler) respondWithError(w http.ResponseWriter, status int, message string) {
	h.log.Debug("request failed", zap.Int("status", status), zap.String("error", message))
	respondWithJSON(w, status, map[string]string{"error": message})
}
