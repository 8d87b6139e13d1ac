package model

import (
	"math"

	"github.com/mtarnawa/nanoweave/pkg/ident"
)

// Node is the fundamental element of the project hierarchy. Every node
// carries the common fields (identity, kind, display name, placement) plus
// a kind-specific payload in Data. Extra holds carry-through fields that
// have no typed home; they are emitted verbatim at the top level of the
// node's section.
type Node struct {
	ID       ident.ID
	Kind     Kind
	Name     string
	Position Vec3
	Rotation Vec3

	// Properties is the free-form properties sub-table. Most kinds leave
	// it empty; interface and edge aligners have typed settings that the
	// emitter routes here instead.
	Properties map[string]any

	// Extra carries unrecognized fields through to the emitted section.
	Extra map[string]any

	Data NodeData

	parent   *Node
	children []*Node
}

// newNode constructs a node of the given kind with a fresh identifier.
func newNode(kind Kind, name string, data NodeData) *Node {
	return &Node{
		ID:   ident.New(),
		Kind: kind,
		Name: name,
		Data: data,
	}
}

// Parent returns the node's current parent, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's children in insertion order. The returned
// slice is a snapshot; mutating it does not affect the tree.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildIDs returns the ordered identifiers of the node's children, as
// they appear in the emitted documents.
func (n *Node) ChildIDs() []ident.ID {
	ids := make([]ident.ID, len(n.children))
	for i, c := range n.children {
		ids[i] = c.ID
	}
	return ids
}

// PositionAt sets position and rotation in one call and returns the node
// for chaining.
func (n *Node) PositionAt(position, rotation Vec3) *Node {
	n.Position = position
	n.Rotation = rotation
	return n
}

// Translate shifts the node's position by the given deltas.
func (n *Node) Translate(delta Vec3) {
	n.Position.X += delta.X
	n.Position.Y += delta.Y
	n.Position.Z += delta.Z
}

// Rotate adds the given angles to the node's rotation, wrapped to
// [0, 360) per axis.
func (n *Node) Rotate(delta Vec3) {
	wrap := func(a float64) float64 {
		a = math.Mod(a, 360)
		if a < 0 {
			a += 360
		}
		return a
	}
	n.Rotation.X = wrap(n.Rotation.X + delta.X)
	n.Rotation.Y = wrap(n.Rotation.Y + delta.Y)
	n.Rotation.Z = wrap(n.Rotation.Z + delta.Z)
}
