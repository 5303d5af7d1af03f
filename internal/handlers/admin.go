package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/EvgenyiK/pulsefit-service/internal/export"
	"github.com/EvgenyiK/pulsefit-service/internal/metrics"
	"github.com/EvgenyiK/pulsefit-service/internal/models"
	"github.com/EvgenyiK/pulsefit-service/internal/repository"
	"github.com/EvgenyiK/pulsefit-service/internal/subscription"
)

type StatsResponse struct {
	models.Stats
	Notice string `json:"notice,omitempty"`
}

// GetStats godoc
// @Summary Статистика для администратора
// @Description Количество активных, истекающих и истекших подписок и суммарная выручка
// @Tags admin
// @Produce json
// @Success 200 {object} StatsResponse
// @Failure 500 {object} map[string]string
// @Router /admin/stats [get]
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	views, ok := h.listViews(w, r)
	if !ok {
		return
	}

	stats := Summarize(views)
	metrics.SetMembersByStatus(stats)

	resp := StatsResponse{Stats: stats}
	if stats.Expiring > 0 {
		noun := "users have"
		if stats.Expiring == 1 {
			noun = "user has"
		}
		resp.Notice = fmt.Sprintf("%d %s subscriptions expiring within %d days.",
			stats.Expiring, noun, subscription.ExpiringThresholdDays)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// Summarize считает участников по статусам; участники без подписки не учитываются
func Summarize(views []models.MemberView) models.Stats {
	var s models.Stats
	for _, v := range views {
		if v.View == nil {
			continue
		}
		s.Total++
		s.TotalRevenue += v.Subscription.Price
		switch v.View.Status {
		case models.StatusActive:
			s.Active++
		case models.StatusExpiring:
			s.Expiring++
		case models.StatusExpired:
			s.Expired++
		}
	}
	return s
}

// ExportMembers godoc
// @Summary Выгрузка участников
// @Description Выгружает участников с подписками в CSV или XLSX
// @Tags admin
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv или xlsx" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/export [get]
func (h *Handler) ExportMembers(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatCSV
	}

	var write func(io.Writer, []export.Row) error
	switch format {
	case export.FormatCSV:
		write = export.WriteCSV
	case export.FormatXLSX:
		write = export.WriteXLSX
	default:
		h.respondWithError(w, http.StatusBadRequest, "Unsupported export format")
		return
	}

	views, ok := h.listViews(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, export.Rows(views)); err != nil {
		h.log.Error("export failed", zap.String("format", format), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to export members")
		return
	}

	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", export.FileBase, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GetTotalCost godoc
// @Summary Подсчитывает общую стоимость подписок за выбранную дату
// @Description Возвращает сумму подписок, действующих на указанную дату, с возможностью фильтрации по участнику и тарифу
// @Tags subscriptions
// @Produce json
// @Param date path string true "Дата в формате YYYY-MM-DD"
// @Param member_id query string false "ID участника (UUID)"
// @Param category query string false "Название тарифа"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /subscriptions/view/total/{date} [get]
func (h *Handler) GetTotalCost(w http.ResponseWriter, r *http.Request) {
	dateStr := mux.Vars(r)["date"] // например, "2024-06-01"

	date, err := subscription.ParseDate(dateStr)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid date format")
		return
	}

	// Получаем фильтры из query-параметров
	filter := repository.TotalCostFilter{Category: r.URL.Query().Get("category")}
	if idStr := r.URL.Query().Get("member_id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, "Invalid member ID format")
			return
		}
		filter.MemberID = &id
	}

	total, err := h.store.TotalCost(r.Context(), date, filter)
	if err != nil {
		h.log.Error("total cost failed", zap.String("date", dateStr), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Error calculating total cost")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"date":  dateStr,
		"total": total,
	})
}

func (h *Handler) listViews(w http.ResponseWriter, r *http.Request) ([]models.MemberView, bool) {
	members, err := h.store.ListMembers(r.Context())
	if err != nil {
		h.log.Error("list members failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Error fetching members")
		return nil, false
	}

	views := make([]models.MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, h.memberView(m))
	}
	return views, true
}
