package httpx

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// accessRecorder remembers what the handler wrote for the access log line.
type accessRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (rec *accessRecorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *accessRecorder) Write(p []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(p)
	rec.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rec *accessRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

func (rec *accessRecorder) statusCode() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

// WithAccessLog logs one line per request. 5xx responses log at warn; health
// check endpoints log at debug so they stay out of normal output.
func WithAccessLog(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			rec := &accessRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.statusCode()
			logger.Log(r.Context(), accessLevel(r.URL.Path, status), "http request",
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int64("bytes", rec.written),
				slog.String("tenant_id", r.Header.Get("X-Tenant-Id")),
				slog.Int64("duration_ms", time.Since(began).Milliseconds()),
			)
		})
	}
}

func accessLevel(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelWarn
	case path == "/healthz" || path == "/readyz" || strings.HasPrefix(path, "/debug/"):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
