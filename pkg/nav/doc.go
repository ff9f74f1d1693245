// Package nav filters hierarchical navigation catalogs down to the subset a
// principal may see.
//
// # Model
//
// A catalog is a tree of Node values with a closed set of kinds: item, group,
// divider and header. Kinds are resolved at construction time; only groups
// accept children, and AddChild enforces that as a hard construction-time
// error. Authorization never raises errors: a denied node is simply absent
// from the filtered tree.
//
// # Filtering
//
// Filter walks the tree depth-first and applies the per-node visibility
// predicate: explicit hidden flag, system-only, tenant-only, optional
// disabled-hiding policy, then the permission gate (single permission, or a
// permission set combined with any-of/all-of semantics). Surviving nodes are
// cloned; the source tree is never mutated.
//
// Two behaviors the upstream designs left ambiguous are policy flags rather
// than fixed rules:
//
//   - HideDisabled: by default a disabled node stays visible-but-inert;
//     setting the flag filters it out entirely.
//   - HideEmptyGroups: by default a group whose children were all filtered is
//     kept when it has a navigable path of its own; setting the flag hides
//     any group without surviving children.
//
// # Active path
//
// MarkActive decorates a (typically already filtered) tree with presentation
// state: a node is active when its path equals or path-prefixes the current
// location ("/" matches only itself), and ancestors of active nodes are
// expanded.
package nav
