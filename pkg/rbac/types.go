package rbac

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Permission is an opaque capability token, conventionally "resource:action".
type Permission string

// Wildcard grants all permissions across all tenants.
const Wildcard Permission = "*"

// Valid reports whether the permission is well-formed enough to evaluate.
// Malformed permissions are treated as non-matching, never as errors.
func (p Permission) Valid() bool {
	return p != "" && !strings.ContainsAny(string(p), " \t\n")
}

// Resource returns the part before the first colon, or the whole token when
// there is none.
func (p Permission) Resource() string {
	if i := strings.IndexByte(string(p), ':'); i >= 0 {
		return string(p)[:i]
	}
	return string(p)
}

// Action returns the part after the first colon, or "" when there is none.
func (p Permission) Action() string {
	if i := strings.IndexByte(string(p), ':'); i >= 0 {
		return string(p)[i+1:]
	}
	return ""
}

// Level is a coarse access tier over a resource.
type Level string

const (
	LevelRead  Level = "read"
	LevelWrite Level = "write"
	LevelAdmin Level = "admin"
	LevelOwner Level = "owner"
)

// actions returns the permission actions that satisfy the level, strongest
// last. An unknown level satisfies nothing.
func (l Level) actions() []string {
	switch l {
	case LevelRead:
		return []string{"read", "write", "admin", "owner"}
	case LevelWrite:
		return []string{"write", "admin", "owner"}
	case LevelAdmin:
		return []string{"admin", "owner"}
	case LevelOwner:
		return []string{"owner"}
	default:
		return nil
	}
}

// RoleGrant is a time-bounded, optionally tenant-scoped bundle of permissions
// attached to a principal.
type RoleGrant struct {
	Role        string       `json:"role"`
	TenantID    string       `json:"tenant_id,omitempty"` // empty means global
	Permissions []Permission `json:"permissions"`
	AssignedBy  string       `json:"assigned_by,omitempty"`
	AssignedAt  time.Time    `json:"assigned_at,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

// ActiveAt reports whether the grant is in force at the given instant.
func (g RoleGrant) ActiveAt(now time.Time) bool {
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}

// AppliesTo reports whether the grant is in scope for the target tenant.
// Global grants apply everywhere; scoped grants only to their own tenant.
// An empty target tenant consults every grant.
func (g RoleGrant) AppliesTo(tenantID string) bool {
	return tenantID == "" || g.TenantID == "" || g.TenantID == tenantID
}

// Contains reports whether the grant carries the permission, directly or via
// the wildcard.
func (g RoleGrant) Contains(perm Permission) bool {
	for _, p := range g.Permissions {
		if p == perm || p == Wildcard {
			return true
		}
	}
	return false
}

// Principal is the authenticated actor plus its role grants. It is an
// immutable snapshot: mutations replace the whole value, never patch it in
// place.
type Principal struct {
	ID            string      `json:"id"`
	IsSystemAdmin bool        `json:"is_system_admin"`
	Roles         []RoleGrant `json:"roles"`
}

// Signature returns a short stable digest of the principal's grants. Cache
// keys embed it so that a role change orphans stale entries even when
// explicit invalidation is skipped.
func (p *Principal) Signature() string {
	if p == nil {
		return "none"
	}
	lines := make([]string, 0, len(p.Roles))
	for _, g := range p.Roles {
		perms := make([]string, len(g.Permissions))
		for i, perm := range g.Permissions {
			perms[i] = string(perm)
		}
		sort.Strings(perms)
		exp := ""
		if g.ExpiresAt != nil {
			exp = g.ExpiresAt.UTC().Format(time.RFC3339Nano)
		}
		lines = append(lines, g.Role+"\x1f"+g.TenantID+"\x1f"+exp+"\x1f"+strings.Join(perms, ","))
	}
	sort.Strings(lines)
	admin := "0"
	if p.IsSystemAdmin {
		admin = "1"
	}
	sum := sha256.Sum256([]byte(admin + "\x1e" + strings.Join(lines, "\x1e")))
	return hex.EncodeToString(sum[:8])
}

// Stats reports cache behavior for one evaluator.
type Stats struct {
	Size      int     `json:"size"`
	Requests  uint64  `json:"requests"`
	Hits      uint64  `json:"hits"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}
