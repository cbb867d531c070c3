package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/jwt"
)

// RequireRoles allows the request through only when the token role is one of roles.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := jwt.ClaimsFromContext(r.Context())
			if err != nil {
				response.HandleError(w, jwt.ErrMissingClaims)
				return
			}

			if !slices.Contains(roles, claims.Role) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: requires one of '%s', but user role is '%s'",
					strings.Join(roles, ", "), claims.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireReviewer allows managers, HR and admins.
func RequireReviewer(next http.Handler) http.Handler {
	return RequireRoles(jwt.RoleManager, jwt.RoleHR, jwt.RoleAdmin)(next)
}

// RequireAdmin allows HR and admins.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRoles(jwt.RoleHR, jwt.RoleAdmin)(next)
}
