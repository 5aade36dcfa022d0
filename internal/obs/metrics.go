package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	authzDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Resource authorization decisions by outcome.",
		},
		[]string{"resource_type", "action", "outcome"},
	)

	lockoutEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_lockout_events_total",
			Help: "Progressive lockout state machine events.",
		},
		[]string{"event"},
	)

	auditDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "security_events_dropped_total",
		Help: "Security events that failed to persist and fell back to local logging.",
	})
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		authzDecisions, lockoutEvents, auditDropped,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAuthzDecision records an authorization outcome.
func ObserveAuthzDecision(resourceType, action string, authorized bool) {
	outcome := "denied"
	if authorized {
		outcome = "granted"
	}
	authzDecisions.WithLabelValues(resourceType, action, outcome).Inc()
}

// ObserveLockout records a lockout state machine event
// ("failed_attempt", "locked", "reset", "unknown_account").
func ObserveLockout(event string) {
	lockoutEvents.WithLabelValues(event).Inc()
}

// ObserveAuditDropped counts a security event lost to a sink failure.
func ObserveAuditDropped() {
	auditDropped.Inc()
}

// Instrument wraps a handler with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// knownPaths is the served route table. Anything else is collapsed to a
// single label value so probe and scan traffic cannot blow up cardinality.
var knownPaths = map[string]struct{}{
	"/":                         {},
	"/healthz":                  {},
	"/readyz":                   {},
	"/metrics":                  {},
	"/v1/info":                  {},
	"/v1/auth/login":            {},
	"/v1/authz/check":           {},
	"/v1/authz/check-composite": {},
	"/v1/authz/check-bulk":      {},
}

// CanonicalPath maps a request path to a bounded metric label.
func CanonicalPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if _, ok := knownPaths[p]; ok {
		return p
	}
	return "other"
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
