package middleware

import (
	"net/http"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

// RequireAtLeast enforces the role hierarchy admin > staff.
// Auth must run first.
func RequireAtLeast(minRole string, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok {
				writeErr(w, r, domain.ErrTokenInvalid())
				return
			}
			if !domain.IsValidRole(role) || !domain.IsValidRole(minRole) {
				writeErr(w, r, domain.ErrForbidden())
				return
			}
			if domain.RoleRank(role) < domain.RoleRank(minRole) {
				writeErr(w, r, domain.ErrInsufficientRole(minRole))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
