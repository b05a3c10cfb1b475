package middleware

import (
	"database/sql"
	"net/http"

	"scholartrack/internal/repository"
)

// RBACMiddleware gates routes on the caller's granted roles. It is the
// outer guard only; services re-check roles against their own transition
// allow-lists.
type RBACMiddleware struct {
	userRepo *repository.UserRepository
}

// NewRBACMiddleware creates a new RBAC middleware
func NewRBACMiddleware(db *sql.DB) *RBACMiddleware {
	return &RBACMiddleware{userRepo: repository.NewUserRepository(db)}
}

// RequireRole admits only callers holding the given role.
func (m *RBACMiddleware) RequireRole(roleName string) func(http.Handler) http.Handler {
	return m.RequireAnyRole(roleName)
}

// RequireAnyRole admits callers holding at least one of the given roles.
func (m *RBACMiddleware) RequireAnyRole(roleNames ...string) func(http.Handler) http.Handler {
	wanted := make(map[string]struct{}, len(roleNames))
	for _, name := range roleNames {
		wanted[name] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			roles, err := m.userRepo.GetUserRoles(userID)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, "Failed to get user roles")
				return
			}

			for _, role := range roles {
				if _, ok := wanted[role.Name]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			respondWithError(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}
