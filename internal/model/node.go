package model

import (
	"strings"

	"github.com/fluxionfmt/fluxion/internal/fluxionerr"
)

// CurrentVersion is the newest format version this module writes when the
// caller requests version 0 ("current").
const CurrentVersion uint8 = 3

// Attribute is a named, valued leaf attached to a Node. It carries no
// children of its own.
type Attribute struct {
	name  string
	value Value
}

// NewAttribute constructs an attribute. A blank or whitespace-only name
// collapses to "no name", per the format's name-normalization rule.
func NewAttribute(name string, value Value) *Attribute {
	return &Attribute{name: normalizeName(name), value: value}
}

// Name returns the attribute's name, or "" if it has none.
func (a *Attribute) Name() string { return a.name }

// Value returns the attribute's value.
func (a *Attribute) Value() Value { return a.value }

// SetValue replaces the attribute's value.
func (a *Attribute) SetValue(v Value) { a.value = v }

// Clone returns a copy of a. copyValue selects whether the value is
// carried over or reset to Null.
func (a *Attribute) Clone(copyName, copyValue bool) *Attribute {
	out := &Attribute{}
	if copyName {
		out.name = a.name
	}
	if copyValue {
		out.value = a.value
	}
	return out
}

func normalizeName(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// Node is a named, valued tree element with ordered children and
// attributes. A Node is either a root (Parent() == nil) or belongs to
// exactly one parent's child sequence.
type Node struct {
	name     string
	value    Value
	children []*Node
	attrs    []*Attribute
	parent   *Node
	version  uint8 // meaningful only at the root
}

// NewNode constructs a detached node (no parent). Its version is
// meaningful only once it becomes a root via SetVersion or by being
// built up without ever being added to another node.
func NewNode(name string, value Value) *Node {
	return &Node{name: normalizeName(name), value: value, version: CurrentVersion}
}

// Name returns the node's name, or "" if it has none.
func (n *Node) Name() string { return n.name }

// SetName replaces the node's name.
func (n *Node) SetName(name string) { n.name = normalizeName(name) }

// Value returns the node's value.
func (n *Node) Value() Value { return n.value }

// SetValue replaces the node's value.
func (n *Node) SetValue(v Value) { n.value = v }

// Parent returns the node's parent, or nil if it is a root.
func (n *Node) Parent() *Node { return n.parent }

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool { return n.parent == nil }

// Root walks up to the ultimate ancestor (n itself if n is already a root).
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Version reports the format version of the tree n belongs to. It is
// always the root's version, even when queried from a descendant.
func (n *Node) Version() uint8 { return n.Root().version }

// SetVersion sets the format version on n's root.
func (n *Node) SetVersion(v uint8) { n.Root().version = v }

// Children returns the ordered child slice. Callers must not mutate it
// directly; use Add/Insert/Remove.
func (n *Node) Children() []*Node { return n.children }

// ChildAt returns the child at index, or (nil, false) if out of range.
func (n *Node) ChildAt(index int) (*Node, bool) {
	if index < 0 || index >= len(n.children) {
		return nil, false
	}
	return n.children[index], true
}

// ChildByName returns the first child with the given name in insertion
// order, or (nil, false) if none match.
func (n *Node) ChildByName(name string) (*Node, bool) {
	name = normalizeName(name)
	for _, c := range n.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Attributes returns the ordered attribute slice. Callers must not mutate
// it directly; use AddAttribute/RemoveAttribute.
func (n *Node) Attributes() []*Attribute { return n.attrs }

// AttributeAt returns the attribute at index, or (nil, false) if out of range.
func (n *Node) AttributeAt(index int) (*Attribute, bool) {
	if index < 0 || index >= len(n.attrs) {
		return nil, false
	}
	return n.attrs[index], true
}

// AttributeByName returns the first attribute with the given name in
// insertion order, or (nil, false) if none match.
func (n *Node) AttributeByName(name string) (*Attribute, bool) {
	name = normalizeName(name)
	for _, a := range n.attrs {
		if a.name == name {
			return a, true
		}
	}
	return nil, false
}

// AddAttribute appends an attribute to n.
func (n *Node) AddAttribute(a *Attribute) {
	n.attrs = append(n.attrs, a)
}

// RemoveAttribute removes the first occurrence of a, reporting whether
// anything was removed.
func (n *Node) RemoveAttribute(a *Attribute) bool {
	for i, existing := range n.attrs {
		if existing == a {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return true
		}
	}
	return false
}

// isSelfOrAncestor reports whether candidate is n itself or one of n's
// ancestors — i.e. whether making candidate a child of n (or of anything
// under n) would create a cycle.
func isSelfOrAncestor(n, candidate *Node) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur == candidate {
			return true
		}
	}
	return false
}

// wouldCycle reports whether attaching child under parent would create a
// cycle: child must not be parent itself, nor an ancestor of parent, nor
// already contain parent as a descendant via the ancestor chain check run
// from parent upward through child.
func wouldCycle(parent, child *Node) bool {
	if parent == child {
		return true
	}
	return isSelfOrAncestor(parent, child)
}

func (n *Node) detachFromParent() {
	if n.parent == nil {
		return
	}
	old := n.parent
	for i, c := range old.children {
		if c == n {
			old.children = append(old.children[:i], old.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Add appends child to n's child sequence, detaching it from any
// previous parent first, and returns its new index. It fails with
// InvalidParent if child is nil, n itself, or an ancestor of n.
func (n *Node) Add(child *Node) (int, error) {
	if child == nil {
		return 0, fluxionerr.InvalidParent("cannot add a nil child")
	}
	if wouldCycle(n, child) {
		return 0, fluxionerr.InvalidParent("would create a cycle")
	}
	child.detachFromParent()
	child.parent = n
	n.children = append(n.children, child)
	return len(n.children) - 1, nil
}

// Insert places child at index in n's child sequence, detaching it from
// any previous parent first. The cycle check runs first; after it, an
// index beyond the current length (or a negative index) makes Insert a
// no-op that returns nil and leaves the child attached to its old parent.
func (n *Node) Insert(index int, child *Node) error {
	if child == nil {
		return fluxionerr.InvalidParent("cannot add a nil child")
	}
	if wouldCycle(n, child) {
		return fluxionerr.InvalidParent("would create a cycle")
	}
	if index < 0 || index > len(n.children) {
		return nil
	}
	child.detachFromParent()
	child.parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	return nil
}

// Remove removes the first occurrence of child from n's child sequence
// and clears its parent back-reference, reporting whether anything was
// removed.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// AddRange appends every node in children to n's child sequence. The
// cycle check runs against all of them before any mutation happens, so a
// single offending child fails the whole batch with nothing attached.
func (n *Node) AddRange(children []*Node) error {
	for _, child := range children {
		if child == nil {
			return fluxionerr.InvalidParent("cannot add a nil child")
		}
		if wouldCycle(n, child) {
			return fluxionerr.InvalidParent("would create a cycle")
		}
	}
	for _, child := range children {
		child.detachFromParent()
		child.parent = n
		n.children = append(n.children, child)
	}
	return nil
}
