// Package rbac guards route groups by role.
package rbac

import (
	"net/http"

	"github.com/bytekstore/bytek/pkg/middleware"
	"github.com/bytekstore/bytek/pkg/response"
)

// Roles known to the back office.
const (
	RoleAdmin = "admin"
)

// HasRole allows access only to users whose token carries one of roles.
// middleware.Auth must run first.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := middleware.ClaimsFromCtx(r.Context())
			if !ok {
				response.Unauthorized(w)
				return
			}
			if !allowed[claims.Role] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
