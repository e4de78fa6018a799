package httprpc

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Middleware is the standard middleware signature compatible with the entire
// Go middleware ecosystem.
type Middleware func(next http.Handler) http.Handler

// Recovery returns middleware that turns a panicking operation into a 500
// problem and logs it with the operation name. The dispatcher itself never
// recovers, and in-process calls do not pass through middleware.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, ci := withCallInfo(r)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				//nolint:errorlint // recovered value may be any type
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.ErrorContext(r.Context(), "operation panicked",
					slog.String("operation", ci.operationLabel()),
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("stack", string(debug.Stack())),
				)
				writeProblem(w, r, http.StatusInternalServerError, "operation "+ci.operationLabel()+" panicked")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
