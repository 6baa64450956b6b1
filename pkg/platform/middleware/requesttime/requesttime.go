// Package requesttime pins one "now" per request. The validation run reads it
// as the reference date for certificate expiration.
package requesttime

import (
	"net/http"
	"time"

	"docval/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
