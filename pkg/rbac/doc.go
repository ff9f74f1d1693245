// Package rbac provides tenant-scoped, role-based permission evaluation for
// the Gatehouse authorization engine.
//
// # Overview
//
// The package answers one question repeatedly and cheaply: does principal P,
// scoped to tenant T, hold permission X right now? It accounts for per-role
// permission sets, tenant scoping, time-based role expiration, a
// system-administrator bypass and the universal wildcard permission. Results
// are memoized in a bounded TTL cache so that the check is cheap enough to
// gate every rendered UI element and every navigation node.
//
// # Model
//
// The building blocks are:
//
//  1. Permission: an opaque capability token in "resource:action" form,
//     e.g. "users:read". The wildcard "*" means all permissions, all tenants.
//  2. RoleGrant: a time-bounded, optionally tenant-scoped bundle of
//     permissions attached to a principal.
//  3. Principal: the authenticated actor plus its role grants. Principals are
//     immutable snapshots; a change produces a whole new snapshot.
//  4. Level: coarse access tiers (read, write, admin, owner) mapped onto
//     "resource:<action>" permissions.
//
// # Evaluation
//
// Evaluate is the pure predicate: no state, deterministic for a given
// principal snapshot and instant. Evaluator wraps it with a permission cache,
// statistics and invalidation:
//
//	principal := &rbac.Principal{
//		ID: "u-1",
//		Roles: []rbac.RoleGrant{{
//			Role:        "manager",
//			TenantID:    "t1",
//			Permissions: []rbac.Permission{"users:read", "transactions:read"},
//		}},
//	}
//	eval := rbac.NewEvaluator(principal, rbac.DefaultConfig())
//	defer eval.Close()
//
//	eval.HasPermission("users:read", "t1") // true
//	eval.HasPermission("users:read", "t2") // false, grant is scoped to t1
//	eval.HasAny([]rbac.Permission{"users:delete", "transactions:read"}, "t1") // true
//
// # Scoping rules
//
// A grant with a tenant id is only consulted when the query targets that
// tenant. A grant without a tenant id is global and is consulted for every
// query. An expired grant contributes nothing, regardless of cache state.
// System administrators bypass evaluation entirely.
//
// # Failure policy
//
// Authorization decisions never return errors. Malformed input (empty
// permission, nil principal, unknown level) resolves to false: the engine
// always fails closed.
package rbac
