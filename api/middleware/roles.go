package middleware

import (
	"net/http"

	"github.com/velvetsouk/velvetsouk-backend/api/responses"
	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
)

// RequireRole gates a route group on the role Auth placed in the context.
// Must run after Auth.
func RequireRole(role string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != role {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
