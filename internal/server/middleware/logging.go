package middleware

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// logWriter wraps http.ResponseWriter to capture the status code and bytes written.
type logWriter struct {
	http.ResponseWriter
	code, bytes int
}

var _ http.ResponseWriter = (*logWriter)(nil)

// Write implements http.ResponseWriter.
func (w *logWriter) Write(p []byte) (int, error) {
	written, err := w.ResponseWriter.Write(p)
	w.bytes += written
	return written, err
}

// WriteHeader implements http.ResponseWriter.
func (w *logWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// NewLoggingMiddleware returns a middleware that logs one line per request.
func NewLoggingMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := &logWriter{ResponseWriter: w, code: http.StatusOK}
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"addr", r.RemoteAddr)
			next.ServeHTTP(lw, r)
			logger.Debug("response",
				"method", r.Method,
				"path", r.URL.Path,
				"status", lw.code,
				"bytes", lw.bytes,
				"time", time.Since(start))
		})
	}
}
