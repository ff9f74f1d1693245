// Package middleware provides HTTP guards over the RBAC evaluator.
//
// The guards read the principal snapshot from the request context (see
// pkg/authctx) and resolve the target tenant from the "tenant" route variable
// when the application routes with gorilla/mux, falling back to the context
// value. Authorization outcomes map to plain HTTP statuses: missing principal
// is 401, denied is 403.
package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gatehouse-dev/gatehouse/pkg/authctx"
	"github.com/gatehouse-dev/gatehouse/pkg/rbac"
	"github.com/gatehouse-dev/gatehouse/pkg/session"
)

// Guard builds permission-checking middleware for one session manager.
type Guard struct {
	sessions *session.Manager
}

// NewGuard creates a guard over the session manager.
func NewGuard(sessions *session.Manager) *Guard {
	return &Guard{sessions: sessions}
}

// RequirePermission admits only requests whose principal holds the permission
// for the request's tenant.
func (g *Guard) RequirePermission(perm rbac.Permission) func(http.Handler) http.Handler {
	return g.require(func(eval *rbac.Evaluator, tenantID string) bool {
		return eval.HasPermission(perm, tenantID)
	})
}

// RequireAny admits requests whose principal holds at least one of the
// permissions.
func (g *Guard) RequireAny(perms ...rbac.Permission) func(http.Handler) http.Handler {
	return g.require(func(eval *rbac.Evaluator, tenantID string) bool {
		return eval.HasAny(perms, tenantID)
	})
}

// RequireAll admits requests whose principal holds every one of the
// permissions.
func (g *Guard) RequireAll(perms ...rbac.Permission) func(http.Handler) http.Handler {
	return g.require(func(eval *rbac.Evaluator, tenantID string) bool {
		return eval.HasAll(perms, tenantID)
	})
}

// RequireLevel admits requests whose principal reaches the access tier on the
// resource.
func (g *Guard) RequireLevel(level rbac.Level, resource string) func(http.Handler) http.Handler {
	return g.require(func(eval *rbac.Evaluator, tenantID string) bool {
		return eval.HasLevel(level, resource, tenantID)
	})
}

func (g *Guard) require(allowed func(*rbac.Evaluator, string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := authctx.Principal(r.Context())
			if principal == nil {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			eval := g.sessions.Evaluator(principal)
			if eval == nil {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			if !allowed(eval, TenantFromRequest(r)) {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TenantFromRequest resolves the target tenant for a request: the "tenant"
// route variable wins, then the context value, then "".
func TenantFromRequest(r *http.Request) string {
	if vars := mux.Vars(r); vars != nil {
		if tenant, ok := vars["tenant"]; ok && tenant != "" {
			return tenant
		}
	}
	return authctx.Tenant(r.Context())
}
