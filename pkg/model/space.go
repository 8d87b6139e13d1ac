package model

import "fmt"

// NewScene creates a scene node. Scenes are the printable containers;
// they never nest inside other scenes.
func NewScene(name string, writingDirectionUpward bool) *Node {
	if name == "" {
		name = "Scene"
	}
	return newNode(KindScene, name, &SceneData{
		WritingDirectionUpward: writingDirectionUpward,
	})
}

// NewGroup creates a group node, a purely logical container.
func NewGroup(name string) *Node {
	if name == "" {
		name = "Group"
	}
	return newNode(KindGroup, name, &GroupData{})
}

// NewArray creates an array node replicating its children on a grid.
// order must be "Lexical" or "Meander"; shape "Rectangular" or "Round".
func NewArray(name string, count Int2, spacing Vec2, order, shape string) (*Node, error) {
	if name == "" {
		name = "Array"
	}
	if count.X <= 0 || count.Y <= 0 {
		return nil, fmt.Errorf("array: count must be positive on both axes, got [%d, %d]", count.X, count.Y)
	}
	if order == "" {
		order = "Lexical"
	}
	if order != "Lexical" && order != "Meander" {
		return nil, fmt.Errorf("array: order must be Lexical or Meander, got %q", order)
	}
	if shape == "" {
		shape = "Rectangular"
	}
	if shape != "Rectangular" && shape != "Round" {
		return nil, fmt.Errorf("array: shape must be Rectangular or Round, got %q", shape)
	}
	return newNode(KindArray, name, &ArrayData{
		Count:   count,
		Spacing: spacing,
		Order:   order,
		Shape:   shape,
	}), nil
}
