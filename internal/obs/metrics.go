package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shared HTTP metrics
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
)

// Domain counters
var (
	auditEntriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sentra_audit_entries_total",
		Help: "Audit entries written.",
	})

	sessionsRevokedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sentra_sessions_revoked_total",
		Help: "Sessions revoked, across all revocation paths.",
	})

	rateLimitRejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentra_rate_limit_rejects_total",
			Help: "Requests rejected by the rate limiter.",
		},
		[]string{"tier"},
	)
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		auditEntriesTotal, sessionsRevokedTotal, rateLimitRejectsTotal,
	)
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// AuditEntryWritten counts one persisted audit entry.
func AuditEntryWritten() { auditEntriesTotal.Inc() }

// SessionsRevoked counts revoked sessions.
func SessionsRevoked(n int64) {
	if n > 0 {
		sessionsRevokedTotal.Add(float64(n))
	}
}

// RateLimitRejected counts one throttled request. Tier is "user" or "ip".
func RateLimitRejected(tier string) { rateLimitRejectsTotal.WithLabelValues(tier).Inc() }

// Instrument measures request rate, latency and in-flight count.
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

// statusWriter captures the response code for labeling.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
