package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"flow4ops/internal/platform/requestctx"
	"flow4ops/internal/transport/http/api"
)

// Recover converts panics into 500 responses so one bad request cannot
// take the process down.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered",
						zap.Any("panic", err),
						zap.String("path", r.URL.Path),
						zap.String("requestId", requestctx.GetRequestID(r.Context())),
						zap.ByteString("stack", debug.Stack()))
					api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error",
						requestctx.GetRequestID(r.Context()))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
