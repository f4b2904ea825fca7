package middleware

import (
	"context"
	"net/http"
	"time"
)

const timeoutBody = `{"success":false,"error":{"code":"TIMEOUT","message":"Request timeout"}}`

// Timeout bounds the handler with timeout. Handlers see the deadline through the
// request context; a late handler gets a 503 with a TIMEOUT body.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		timeoutHandler := http.TimeoutHandler(next, timeout, timeoutBody)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			timeoutHandler.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
