// Package fluxion implements the Fluxion binary serialization format: a
// compact, hierarchical, named, attributed, dynamically-typed tree
// encoding with three wire versions (v1 streaming, v2 pooled/seekable, v3
// flattened item table with reference compression). See Encode and
// Decode for the entry points, and Node for the in-memory tree type
// every version reads and writes.
package fluxion

import "github.com/fluxionfmt/fluxion/internal/model"

// Node is a named, valued tree element with ordered children and
// attributes. A Node is either a root (Parent() == nil) or belongs to
// exactly one parent's child sequence; the format's codecs serialize
// exactly this type.
type Node = model.Node

// Attribute is a named, valued leaf attached to a Node. It carries no
// children of its own.
type Attribute = model.Attribute

// NewNode constructs a detached node (no parent). A blank or
// whitespace-only name collapses to "no name".
func NewNode(name string, value Value) *Node { return model.NewNode(name, value) }

// NewAttribute constructs an attribute. A blank or whitespace-only name
// collapses to "no name".
func NewAttribute(name string, value Value) *Attribute { return model.NewAttribute(name, value) }
