package events

import (
	"github.com/gatehouse-dev/gatehouse/pkg/observability"
	"github.com/gatehouse-dev/gatehouse/pkg/rbac"
)

// Invalidator is the slice of the RBAC evaluator the notifier drives.
// *rbac.Evaluator satisfies it.
type Invalidator interface {
	Invalidate(principalID, tenantID string)
	EffectivePermissions(tenantID string) []rbac.Permission
}

// BindEvaluator subscribes the standard reaction to change events: invalidate
// the affected cache prefix, then recompute the principal's effective
// permission set so the next query starts from fresh state.
//
// The dispatch goroutine is the single writer for these invalidations, which
// is what makes a tenant switch safe against in-flight checks.
func BindEvaluator(n *Notifier, eval Invalidator, logger *observability.Logger) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	n.Subscribe(func(evt Event) {
		switch evt.Type {
		case TypePermissionsChanged:
			change := evt.PermissionsChanged
			if change == nil {
				return
			}
			eval.Invalidate(change.PrincipalID, "")
			effective := eval.EffectivePermissions("")
			logger.WithPrincipal(change.PrincipalID).
				WithField("effective_permissions", len(effective)).
				Info("permissions changed, cache invalidated")
		case TypeTenantChanged:
			change := evt.TenantChanged
			if change == nil {
				return
			}
			// The old scope is dropped before anything recomputes under the
			// new tenant.
			eval.Invalidate(change.PrincipalID, change.OldTenantID)
			effective := eval.EffectivePermissions(change.NewTenantID)
			logger.WithPrincipal(change.PrincipalID).
				WithTenant(change.NewTenantID).
				WithField("effective_permissions", len(effective)).
				Info("tenant changed, cache invalidated")
		}
	})
}
