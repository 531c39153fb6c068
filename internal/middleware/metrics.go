// File: internal/middleware/metrics.go
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/voyago/go-tripmate/internal/metrics"
)

// statusWriter wraps http.ResponseWriter to capture the status code while
// still exposing http.Flusher for SSE responses.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Metrics returns middleware that records Prometheus metrics.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, path, strconv.Itoa(wrapped.status),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			r.Method, path,
		).Observe(duration)
	})
}

// normalizePath collapses thread ids to avoid high cardinality in metrics.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/thread/") && len(path) > len("/thread/") {
		if strings.HasSuffix(path, "/messages") {
			return "/thread/:id/messages"
		}
		return "/thread/:id"
	}
	return path
}
