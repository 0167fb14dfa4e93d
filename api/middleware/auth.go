package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/velvetsouk/velvetsouk-backend/api/responses"
	pkgauth "github.com/velvetsouk/velvetsouk-backend/pkg/auth"
	"github.com/velvetsouk/velvetsouk-backend/pkg/config"
	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
)

// Auth verifies the bearer token and seeds the request context with the
// caller's id and role. Identity is external; the token is the only thing
// this service trusts about who is calling.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(claims.Role),
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
