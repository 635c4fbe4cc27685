package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lbrode/clientspace/pkg/ctxutil"
)

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// RequestID propagates an incoming X-Request-Id header or assigns a new
// one, storing it in the context and echoing it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		ctx := ctxutil.WithRequestID(r.Context(), id)
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
