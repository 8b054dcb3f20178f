package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the web front end.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	upstreamTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	logins          *prometheus.CounterVec
	logouts         prometheus.Counter
	guard           *prometheus.CounterVec
}

// NewMetrics initialises the registry and collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rental_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	upstream := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_api_requests_total",
		Help: "Requests sent to the rental API by method and status.",
	}, []string{"method", "code"})
	upstreamLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rental_api_request_duration_seconds",
		Help:    "Rental API round trip latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "code"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_auth_logins_total",
		Help: "Login attempts by variant and outcome.",
	}, []string{"variant", "outcome"})
	logouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rental_auth_logouts_total",
		Help: "Completed logouts.",
	})
	guard := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_auth_guard_decisions_total",
		Help: "Route guard evaluations by decision.",
	}, []string{"decision"})
	registry.MustRegister(requests, duration, upstream, upstreamLatency, logins, logouts, guard)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		upstreamTotal:   upstream,
		upstreamLatency: upstreamLatency,
		logins:          logins,
		logouts:         logouts,
		guard:           guard,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// InstrumentTransport wraps an outbound transport with API call metrics.
func (m *Metrics) InstrumentTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if m == nil {
		return base
	}
	return promhttp.InstrumentRoundTripperCounter(m.upstreamTotal,
		promhttp.InstrumentRoundTripperDuration(m.upstreamLatency, base))
}

// LoginAttempt counts a login by variant ("admin", "user") and outcome.
func (m *Metrics) LoginAttempt(variant, outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(variant, outcome).Inc()
}

// Logout counts a logout.
func (m *Metrics) Logout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

// GuardDecision counts a route guard evaluation.
func (m *Metrics) GuardDecision(decision string) {
	if m == nil {
		return
	}
	m.guard.WithLabelValues(decision).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
