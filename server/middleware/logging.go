package middleware

import (
	"net/http"
	"time"

	"github.com/skillsenselab/vbdiar/logger"
)

// statusWriter records the response status so the access log can report
// it. Flush and Unwrap pass through so SSE streaming keeps working
// behind the wrapper.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.status = http.StatusOK
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RequestLogger logs one line per request with method, path, status and
// latency. Probe endpoints are skipped so health checks do not flood
// the log.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isQuietPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(sw, r)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			if id := sw.Header().Get("X-Request-Id"); id != "" {
				fields["request_id"] = id
			}
			logByStatus(log, sw.status, fields)
		})
	}
}

func logByStatus(log *logger.Logger, status int, fields map[string]interface{}) {
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed", fields)
	case status >= http.StatusBadRequest:
		log.Warn("request rejected", fields)
	default:
		log.Debug("request completed", fields)
	}
}

func isQuietPath(path string) bool {
	switch path {
	case "/health", "/liveness", "/readiness", "/metrics":
		return true
	}
	return false
}
