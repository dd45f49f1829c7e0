package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// HTTPMiddleware wraps an HTTP handler to collect request metrics:
// count, duration, size, and in-flight requests.
//
// Usage:
//
//	handler := metrics.HTTPMiddleware(metrics, http.HandlerFunc(myHandler))
//	http.Handle("/api/", handler)
func HTTPMiddleware(m *Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(wrapped, r)

		size := r.ContentLength
		if size < 0 {
			size = 0
		}
		m.RecordHTTP(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start).Seconds(), size)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(w.statusCode)
	}
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (w *responseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements http.Hijacker if the underlying ResponseWriter supports it.
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not support hijacking")
}

// staticPaths are routes recorded under their own name.
var staticPaths = map[string]bool{
	"/":                     true,
	"/healthz":              true,
	"/readyz":               true,
	"/metrics":              true,
	"/metrics/history":      true,
	"/api/code_identifiers": true,
	"/api/language_stats":   true,
	"/identifiers":          true,
	"/languages":            true,
}

// userPaths collapse the username segment into a placeholder so the
// path label stays low-cardinality.
var userPaths = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`^/identifiers/[^/]+$`), "/identifiers/{username}"},
	{regexp.MustCompile(`^/languages/[^/]+$`), "/languages/{username}"},
	{regexp.MustCompile(`^/api/code_identifiers/[^/]+$`), "/api/code_identifiers/{username}"},
	{regexp.MustCompile(`^/api/language_stats/[^/]+$`), "/api/language_stats/{username}"},
}

// normalizePath maps a request path to its metric label.
//
// Examples:
//   - /api/code_identifiers -> /api/code_identifiers
//   - /identifiers/octocat -> /identifiers/{username}
func normalizePath(path string) string {
	if staticPaths[path] {
		return path
	}
	for _, p := range userPaths {
		if p.re.MatchString(path) {
			return p.replacement
		}
	}
	return path
}

// statusCode converts an HTTP status to a metric label. Common codes
// keep their number, the rest collapse into their class.
func statusCode(code int) string {
	switch code {
	case 200, 201, 204, 400, 401, 403, 404, 405, 500, 502, 503:
		return strconv.Itoa(code)
	}
	if code >= 100 && code < 600 {
		return fmt.Sprintf("%dxx", code/100)
	}
	return strconv.Itoa(code)
}
