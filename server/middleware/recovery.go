package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kbukum/shadowkit/errors"
	"github.com/kbukum/shadowkit/logger"
)

// Recovery turns a handler panic into a 500 INTERNAL_ERROR response and logs
// the stack.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
					"method", r.Method,
					logger.FieldPath, r.URL.Path,
					"request_id", r.Header.Get(RequestIDHeader),
				))
				writeJSON(w, http.StatusInternalServerError, errors.Internal(fmt.Errorf("%v", rec)).ToResponse())
			}()
			next.ServeHTTP(w, r)
		})
	}
}
