package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/gowallet/internal/infrastructure/metrics"
)

// Metrics records request counts, latency and in-flight requests.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.HTTPInFlight.Inc()
			defer m.HTTPInFlight.Dec()

			wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := normalizePath(r.URL.Path)
			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Collections whose next path segment is an identifier.
var idCollections = map[string]bool{
	"users":       true,
	"wallets":     true,
	"transaction": true,
}

// Segments under an id collection that are fixed routes, not identifiers.
var fixedSegments = map[string]bool{
	"transfer": true,
}

// normalizePath replaces identifiers with :id to keep label cardinality low.
// /api/wallets/9b2c.../balance -> /api/wallets/:id/balance
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		if segments[i] == "" || fixedSegments[segments[i]] {
			continue
		}
		if idCollections[segments[i-1]] {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}
