package model

import (
	"fmt"

	"github.com/mtarnawa/nanoweave/pkg/ident"
)

// AddChild appends child to the node's children. The attachment is
// rejected when it would break the tree shape: self-attachment, cycles
// (child is an ancestor of n), children under terminal structure nodes,
// project nodes as children, and scenes nested inside scenes. A child
// that already has a parent is detached from it first, so a node has at
// most one parent at any time.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return fmt.Errorf("add child: nil node")
	}
	if child == n {
		return fmt.Errorf("add child: node %s cannot be its own child", n.ID.Short())
	}
	if n.Kind.terminal() {
		return fmt.Errorf("add child: %s nodes are terminal and cannot have children", n.Kind)
	}
	if child.Kind == KindProject {
		return fmt.Errorf("add child: a project node can never be a child")
	}
	if child.Kind == KindScene && n.hasScene() {
		return fmt.Errorf("add child: nested scenes are not allowed")
	}
	for a := n.parent; a != nil; a = a.parent {
		if a == child {
			return fmt.Errorf("add child: node %s is an ancestor of %s", child.ID.Short(), n.ID.Short())
		}
	}

	child.detach()
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// hasScene reports whether n or any of its ancestors is a scene.
func (n *Node) hasScene() bool {
	for a := n; a != nil; a = a.parent {
		if a.Kind == KindScene {
			return true
		}
	}
	return false
}

// detach removes the node from its current parent, if any.
func (n *Node) detach() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// AppendNode attaches node at the deepest point of the last-child chain
// from n, removing the need to track the current leaf while building a
// linear hierarchy.
func (n *Node) AppendNode(node *Node) error {
	leaf := n
	for len(leaf.children) > 0 {
		leaf = leaf.children[len(leaf.children)-1]
	}
	return leaf.AddChild(node)
}

// Descendants returns all nodes reachable below n in pre-order: each
// child's subtree is fully visited before the next sibling. The result is
// a snapshot; later tree mutations do not affect it.
func (n *Node) Descendants() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(n)
	return out
}

// Ancestors returns the chain from n's immediate parent up to the root,
// in that order.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for a := n.parent; a != nil; a = a.parent {
		out = append(out, a)
	}
	return out
}

// DeepCopy duplicates the node with a freshly issued identifier. With
// copyChildren, the whole subtree is duplicated preserving structure and
// order, every copy carrying a fresh id; otherwise only the node itself
// is copied, detached and childless. Attribute values are copied by
// value. Reference ids held in the payload (preset, mesh, image) are
// copied verbatim: copying a node never duplicates the entities it
// points at.
func (n *Node) DeepCopy(copyChildren bool) *Node {
	c := &Node{
		ID:       ident.New(),
		Kind:     n.Kind,
		Name:     n.Name,
		Position: n.Position,
		Rotation: n.Rotation,
	}
	if n.Data != nil {
		c.Data = n.Data.clone()
	}
	if n.Properties != nil {
		c.Properties = copyValueMap(n.Properties)
	}
	if n.Extra != nil {
		c.Extra = copyValueMap(n.Extra)
	}
	if copyChildren {
		for _, child := range n.children {
			cc := child.DeepCopy(true)
			cc.parent = c
			c.children = append(c.children, cc)
		}
	}
	return c
}

// copyValueMap duplicates a scalar/vector attribute map so that mutating
// the copy never affects the source.
func copyValueMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case []float64:
		return append([]float64(nil), t...)
	case []int64:
		return append([]int64(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case map[string]any:
		return copyValueMap(t)
	default:
		return v
	}
}
