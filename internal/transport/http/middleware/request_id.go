package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"flow4ops/internal/platform/requestctx"
)

const requestIDHeader = "X-Request-Id"

// RequestID attaches an identifier to the request context and echoes it
// in the response. An incoming header wins so upstream proxies can trace
// through.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(requestctx.WithRequestID(r.Context(), id)))
	})
}
