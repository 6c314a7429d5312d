package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "research_chat_build_info",
		Help: "Build information of the research chat server",
	},
		[]string{"version", "commit", "date"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_chat_http_requests_total",
		Help: "Total number of HTTP requests",
	},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "research_chat_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "research_chat_http_requests_in_flight",
		Help: "Number of HTTP requests currently being processed",
	})

	RequestErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_chat_request_errors_total",
		Help: "Total number of API request errors",
	},
		[]string{"path", "reason"},
	)
)

// metricsMiddleware records request counts and durations by route pattern.
func metricsMiddleware(clock clockwork.Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := clock.Now()
			HTTPRequestsInFlight.Inc()
			defer HTTPRequestsInFlight.Dec()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Use the route pattern if available, otherwise use the path
			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}

			HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
			HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(clock.Since(start).Seconds())
		})
	}
}
