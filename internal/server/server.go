package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/EvgenyiK/pulsefit-service/internal/handlers"
)

type Options struct {
	MetricsEnabled bool
	RateLimiter    *RateLimiter
}

func NewRouter(h *handlers.Handler, opts Options) *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/plans", h.ListPlans).Methods(http.MethodGet)
	if opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Участники и их подписки
	members := r.PathPrefix("/members").Subrouter()
	members.HandleFunc("", h.CreateMember).Methods(http.MethodPost)
	members.HandleFunc("", h.ListMembers).Methods(http.MethodGet)
	members.HandleFunc("/{id:[0-9a-fA-F-]{36}}", h.GetMember).Methods(http.MethodGet)
	members.HandleFunc("/{id:[0-9a-fA-F-]{36}}", h.UpdateMember).Methods(http.MethodPut)
	members.HandleFunc("/{id:[0-9a-fA-F-]{36}}", h.DeleteMember).Methods(http.MethodDelete)
	members.HandleFunc("/{id:[0-9a-fA-F-]{36}}/profile", h.UpdateProfile).Methods(http.MethodPut)
	members.HandleFunc("/{id:[0-9a-fA-F-]{36}}/subscription", h.GetSubscription).Methods(http.MethodGet)
	members.HandleFunc("/{id:[0-9a-fA-F-]{36}}/renew", h.RenewSubscription).Methods(http.MethodPost)

	// Панель администратора
	admin := r.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)
	admin.HandleFunc("/export", h.ExportMembers).Methods(http.MethodGet)

	subs := r.PathPrefix("/subscriptions").Subrouter()
	subs.HandleFunc("/view/total/{date}", h.GetTotalCost).Methods(http.MethodGet)

	return r
}
