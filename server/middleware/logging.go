package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kbukum/shadowkit/logger"
)

// RequestLogger logs every request with method, path, status and duration.
// Health checks are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			duration := time.Since(start)

			fields := logger.Fields(
				"method", r.Method,
				logger.FieldPath, r.URL.Path,
				logger.FieldStatus, sw.status,
				logger.FieldDuration, duration.Milliseconds(),
			)
			if id := r.Header.Get(RequestIDHeader); id != "" {
				fields["request_id"] = id
			}
			logByStatus(log, fields, sw.status)
		})
	}
}

func isHealthEndpoint(path string) bool {
	return path == "/health" || path == "/version"
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("request completed", fields)
	case status >= 400:
		log.Warn("request completed", fields)
	default:
		log.Debug("request completed", fields)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
