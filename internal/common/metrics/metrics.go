// internal/common/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borrower_api_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "borrower_api_request_duration_seconds",
			Help:    "Duration of backend API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borrower_token_refresh_total",
			Help: "Token refresh attempts by outcome",
		},
		[]string{"trigger", "outcome"},
	)

	FlowTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borrower_flow_transitions_total",
			Help: "Wizard step transitions",
		},
		[]string{"flow", "from", "to"},
	)

	FlowErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borrower_flow_errors_total",
			Help: "Wizard actions refused or failed",
		},
		[]string{"flow", "step", "error_code"},
	)

	RemindersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borrower_emi_reminders_total",
			Help: "EMI reminders by channel and outcome",
		},
		[]string{"channel", "status"},
	)

	StatementRowsExported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "borrower_statement_rows_exported_total",
			Help: "EMI rows written to the statement table",
		},
	)

	SessionSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "borrower_session_subscribers",
			Help: "Number of active session change subscribers",
		},
	)
)

// Handler exposes the default registry for the optional metrics listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
