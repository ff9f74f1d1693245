// Package authctx provides centralized context carriage for the identity
// inputs the engine consumes.
//
// The engine never fetches principals or tenants itself; the embedding
// application's session layer resolves them and stows them on the request
// context with these helpers. Keeping the keys in one place prevents typos
// and documents who sets what.
package authctx

import (
	"context"

	"github.com/gatehouse-dev/gatehouse/pkg/rbac"
)

// key is the private context key type to prevent collisions.
type key string

const (
	// principalKey contains the *rbac.Principal snapshot for the request.
	// Set by: the application's authentication middleware.
	// Required by: pkg/middleware guards, navigation handlers.
	principalKey key = "gatehouse_principal"

	// tenantKey contains the active tenant id string.
	// Set by: the application's tenant-resolution middleware or route vars.
	tenantKey key = "gatehouse_tenant"
)

// WithPrincipal returns a context carrying the principal snapshot.
func WithPrincipal(ctx context.Context, p *rbac.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// Principal returns the principal snapshot from the context, or nil when the
// request is unauthenticated.
func Principal(ctx context.Context) *rbac.Principal {
	p, _ := ctx.Value(principalKey).(*rbac.Principal)
	return p
}

// WithTenant returns a context carrying the active tenant id.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// Tenant returns the active tenant id from the context, or "".
func Tenant(ctx context.Context) string {
	t, _ := ctx.Value(tenantKey).(string)
	return t
}
