package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/ErlanBelekov/storefront-client/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API client metrics

	ClientRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Name:      "client_request_duration_seconds",
		Help:      "Latency of backend calls made by the API client.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "route", "status"})

	ClientRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "client_requests_total",
		Help:      "Backend calls made by the API client. status=error means no response.",
	}, []string{"method", "route", "status"})

	ClientRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "client_retries_total",
		Help:      "Calls replayed after a successful token refresh.",
	})

	// Session metrics

	TokenRefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "token_refreshes_total",
		Help:      "Access token refresh attempts, by outcome.",
	}, []string{"outcome"})

	SessionAuthenticated = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "storefront",
		Name:      "session_authenticated",
		Help:      "1 while the client holds an authenticated session.",
	})

	// Dev backend HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "route", "status"})

	RevokedTokens = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "storefront",
		Name:      "revoked_tokens",
		Help:      "Token IDs currently held in the revocation list.",
	})

	ChatConversations = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "storefront",
		Name:      "chat_conversations",
		Help:      "Chatbot conversations held in memory.",
	})
)

func RegisterClient(reg prometheus.Registerer) {
	reg.MustRegister(
		ClientRequestDuration,
		ClientRequestsTotal,
		ClientRetriesTotal,
		TokenRefreshesTotal,
		SessionAuthenticated,
	)
}

func RegisterServer(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestDuration,
		HTTPRequestsTotal,
		RevokedTokens,
		ChatConversations,
	)
}

// NewServer exposes /metrics plus liveness and readiness probes backed by
// checker.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
