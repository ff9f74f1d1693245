package nav

import (
	"errors"

	"github.com/gatehouse-dev/gatehouse/pkg/rbac"
)

// Kind discriminates the node variants.
type Kind string

const (
	KindItem    Kind = "item"
	KindGroup   Kind = "group"
	KindDivider Kind = "divider"
	KindHeader  Kind = "header"
)

// ErrNotGroup is returned when children are attached to a non-group node.
var ErrNotGroup = errors.New("nav: children are only allowed on group nodes")

// Node is one entry in a navigation catalog. The zero flags make a node
// visible, enabled and ungated.
type Node struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Path  string `json:"path,omitempty"`
	Label string `json:"label,omitempty"`
	Icon  string `json:"icon,omitempty"`

	// Permission gates the node on a single permission. Permissions gates it
	// on a set, combined with all-of semantics when RequireAll is set and
	// any-of otherwise. Permission wins when both are present.
	Permission  rbac.Permission   `json:"permission,omitempty"`
	Permissions []rbac.Permission `json:"permissions,omitempty"`
	RequireAll  bool              `json:"require_all,omitempty"`

	SystemOnly bool `json:"system_only,omitempty"`
	TenantOnly bool `json:"tenant_only,omitempty"`
	Hidden     bool `json:"hidden,omitempty"`
	Disabled   bool `json:"disabled,omitempty"`

	Children []*Node `json:"children,omitempty"`

	// Presentation state, populated by MarkActive. Not authorization.
	Active   bool `json:"active,omitempty"`
	Expanded bool `json:"expanded,omitempty"`
}

// NewItem creates a leaf navigation entry.
func NewItem(id, path, label string) *Node {
	return &Node{ID: id, Kind: KindItem, Path: path, Label: label}
}

// NewGroup creates a node that may carry children. A group with its own path
// doubles as a navigable entry.
func NewGroup(id, path, label string) *Node {
	return &Node{ID: id, Kind: KindGroup, Path: path, Label: label}
}

// NewDivider creates a visual separator.
func NewDivider(id string) *Node {
	return &Node{ID: id, Kind: KindDivider}
}

// NewHeader creates a non-navigable section label.
func NewHeader(id, label string) *Node {
	return &Node{ID: id, Kind: KindHeader, Label: label}
}

// AddChild attaches children to a group. Calling it on any other kind is a
// programmer error and fails immediately.
func (n *Node) AddChild(children ...*Node) error {
	if n.Kind != KindGroup {
		return ErrNotGroup
	}
	n.Children = append(n.Children, children...)
	return nil
}

// MustAddChild is AddChild for static catalog construction; it panics on a
// non-group receiver.
func (n *Node) MustAddChild(children ...*Node) *Node {
	if err := n.AddChild(children...); err != nil {
		panic(err)
	}
	return n
}

// Require gates the node on one permission and returns it for chaining.
func (n *Node) Require(perm rbac.Permission) *Node {
	n.Permission = perm
	return n
}

// RequireAnyOf gates the node on holding at least one of the permissions.
func (n *Node) RequireAnyOf(perms ...rbac.Permission) *Node {
	n.Permissions = perms
	n.RequireAll = false
	return n
}

// RequireAllOf gates the node on holding every one of the permissions.
func (n *Node) RequireAllOf(perms ...rbac.Permission) *Node {
	n.Permissions = perms
	n.RequireAll = true
	return n
}

// clone returns a copy of the node without children; filtering and marking
// attach freshly built child slices so the source tree is never mutated.
func (n *Node) clone() *Node {
	c := *n
	c.Children = nil
	return &c
}
