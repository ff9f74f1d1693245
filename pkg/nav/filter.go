package nav

import (
	"time"

	"github.com/gatehouse-dev/gatehouse/pkg/observability"
	"github.com/gatehouse-dev/gatehouse/pkg/rbac"
)

// Authorizer is the slice of the RBAC evaluator the filter consumes.
// *rbac.Evaluator satisfies it.
type Authorizer interface {
	HasPermission(perm rbac.Permission, tenantID string) bool
	HasAny(perms []rbac.Permission, tenantID string) bool
	HasAll(perms []rbac.Permission, tenantID string) bool
	SystemAdmin() bool
}

// Policy selects between the behaviors the filter supports for the two cases
// where upstream conventions diverge.
type Policy struct {
	// HideEmptyGroups hides any group whose children were all filtered out.
	// When unset, such a group survives as long as it has its own path.
	HideEmptyGroups bool
	// HideDisabled removes disabled nodes instead of rendering them inert.
	HideDisabled bool
}

// FilterConfig holds filter construction options.
type FilterConfig struct {
	Authorizer Authorizer
	Policy     Policy
	Logger     *observability.Logger
	Metrics    *observability.Metrics
}

// Filter prunes navigation catalogs for one authorizer.
type Filter struct {
	auth    Authorizer
	policy  Policy
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewFilter creates a filter. The Authorizer is required; logger and metrics
// are optional.
func NewFilter(cfg FilterConfig) *Filter {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Filter{
		auth:    cfg.Authorizer,
		policy:  cfg.Policy,
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// Filter returns the subtree of the catalog the authorizer's principal may
// see for the target tenant. Ordering and nesting are preserved; the source
// tree is never mutated. A nil authorizer yields an empty tree: the filter
// fails closed.
func (f *Filter) Filter(nodes []*Node, tenantID string) []*Node {
	start := time.Now()
	out, visible, pruned := f.filterNodes(nodes, tenantID)
	if f.metrics != nil {
		f.metrics.ObserveFilter(time.Since(start), visible, pruned)
	}
	f.logger.WithTenant(tenantID).
		WithField("visible", visible).
		WithField("pruned", pruned).
		Debug("navigation catalog filtered")
	return out
}

func (f *Filter) filterNodes(nodes []*Node, tenantID string) ([]*Node, int, int) {
	out := make([]*Node, 0, len(nodes))
	visible, pruned := 0, 0
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if !f.passes(n, tenantID) {
			pruned++
			continue
		}
		children, cv, cp := f.filterNodes(n.Children, tenantID)
		visible += cv
		pruned += cp

		if n.Kind == KindGroup && len(children) == 0 {
			if f.policy.HideEmptyGroups || n.Path == "" {
				pruned++
				continue
			}
		}

		clone := n.clone()
		clone.Children = children
		out = append(out, clone)
		visible++
	}
	return out, visible, pruned
}

// passes applies the per-node visibility predicate. Every rule must hold;
// permission gates fail closed.
func (f *Filter) passes(n *Node, tenantID string) bool {
	if f.auth == nil {
		return false
	}
	if n.SystemOnly && !f.auth.SystemAdmin() {
		return false
	}
	if n.TenantOnly && tenantID == "" {
		return false
	}
	if n.Hidden {
		return false
	}
	if n.Disabled && f.policy.HideDisabled {
		return false
	}
	switch {
	case n.Permission != "":
		return f.auth.HasPermission(n.Permission, tenantID)
	case len(n.Permissions) > 0:
		if n.RequireAll {
			return f.auth.HasAll(n.Permissions, tenantID)
		}
		return f.auth.HasAny(n.Permissions, tenantID)
	default:
		return true
	}
}
