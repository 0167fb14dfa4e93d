package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
)

const headerRequestID = "X-Request-Id"

// RequestID honors an inbound X-Request-Id, minting one when absent, echoes
// it on the response and binds it to the request-scoped logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(headerRequestID, id)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
