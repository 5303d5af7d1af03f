package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/EvgenyiK/pulsefit-service/internal/models"
)

var (
	subscriptionViewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulsefit_subscription_views_total",
		Help: "Total number of computed subscription views",
	}, []string{"status"})

	membersByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pulsefit_members_by_status",
		Help: "Members per subscription status as of the last stats request",
	}, []string{"status"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulsefit_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"route", "method", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulsefit_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

func RecordView(status models.Status) {
	subscriptionViewsTotal.WithLabelValues(string(status)).Inc()
}

func SetMembersByStatus(s models.Stats) {
	membersByStatus.WithLabelValues(string(models.StatusActive)).Set(float64(s.Active))
	membersByStatus.WithLabelValues(string(models.StatusExpiring)).Set(float64(s.Expiring))
	membersByStatus.WithLabelValues(string(models.StatusExpired)).Set(float64(s.Expired))
}

func RecordRequest(route, method string, code int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
