package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderSessionID = "X-Session-ID"
)

type sessionKey struct{}

// RequestIDMiddleware tags the request with an id, taken from X-Request-ID,
// chi's request id or a fresh uuid, and puts a logger carrying it in the
// context.
func RequestIDMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = middleware.GetReqID(r.Context())
			}
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = logger.WithLogger(ctx, log)
			w.Header().Set(HeaderRequestID, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionMiddleware resolves the shopper scope from X-Session-ID. A request
// without one starts a new session; the id is echoed back either way.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(HeaderSessionID)
		if sessionID == "" || len(sessionID) > 128 {
			sessionID = uuid.NewString()
		}

		w.Header().Set(HeaderSessionID, sessionID)
		ctx := context.WithValue(r.Context(), sessionKey{}, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionKey{}).(string); ok {
		return sessionID
	}
	return ""
}
