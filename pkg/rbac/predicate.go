package rbac

import (
	"sort"
	"time"
)

// Evaluate is the pure permission predicate. It reports whether the principal
// holds the permission for the target tenant at the given instant.
//
// The check short-circuits in order: system administrators pass
// unconditionally, expired grants are skipped, out-of-scope tenant grants are
// skipped, and the first grant carrying the permission (or the wildcard)
// decides. No side effects; deterministic for a given (principal, now).
func Evaluate(p *Principal, perm Permission, tenantID string, now time.Time) bool {
	if p == nil || !perm.Valid() {
		return false
	}
	if p.IsSystemAdmin {
		return true
	}
	for _, g := range p.Roles {
		if !g.ActiveAt(now) {
			continue
		}
		if tenantID != "" && g.TenantID != "" && g.TenantID != tenantID {
			continue
		}
		if g.Contains(perm) {
			return true
		}
	}
	return false
}

// EffectivePermissions returns the de-duplicated, sorted union of all
// permissions carried by the principal's active, in-scope grants. A system
// administrator's effective set is the wildcard alone.
func EffectivePermissions(p *Principal, tenantID string, now time.Time) []Permission {
	if p == nil {
		return nil
	}
	if p.IsSystemAdmin {
		return []Permission{Wildcard}
	}
	set := make(map[Permission]struct{})
	for _, g := range p.Roles {
		if !g.ActiveAt(now) || !g.AppliesTo(tenantID) {
			continue
		}
		for _, perm := range g.Permissions {
			if perm.Valid() {
				set[perm] = struct{}{}
			}
		}
	}
	perms := make([]Permission, 0, len(set))
	for perm := range set {
		perms = append(perms, perm)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}
