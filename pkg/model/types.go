// Package model defines the entity model for nanoweave print projects:
// presets, resources and the typed node hierarchy, together with the tree
// operations used to assemble and inspect a project.
package model

// Vec3 is a 3-component vector: a position [x, y, z] in micrometers or a
// rotation [psi, theta, phi] in degrees, depending on context.
type Vec3 struct {
	X, Y, Z float64
}

// Slice returns the vector in the list form used by the emitted documents.
func (v Vec3) Slice() []float64 {
	return []float64{v.X, v.Y, v.Z}
}

// Vec2 is a 2-component vector (an in-plane position or a [width, height]
// extent).
type Vec2 struct {
	X, Y float64
}

// Slice returns the vector in the list form used by the emitted documents.
func (v Vec2) Slice() []float64 {
	return []float64{v.X, v.Y}
}

// Int2 is a 2-component integer vector (grid point counts).
type Int2 struct {
	X, Y int
}

// Slice returns the vector in the list form used by the emitted documents.
func (v Int2) Slice() []int64 {
	return []int64{int64(v.X), int64(v.Y)}
}

// Kind enumerates the node variants of the project hierarchy.
type Kind int

const (
	KindProject Kind = iota
	KindCoarseAligner
	KindInterfaceAligner
	KindMarkerAligner
	KindEdgeAligner
	KindFiberAligner
	KindScene
	KindGroup
	KindArray
	KindStructure
	KindText
	KindLens
	KindDoseCompensation
	KindCapture
	KindStageMove
	KindWait
)

// String returns the type tag the consuming application expects for this
// kind. Text and lens nodes are structure nodes on the wire; their payload
// kind lives in the geometry sub-table.
func (k Kind) String() string {
	switch k {
	case KindProject:
		return "project"
	case KindCoarseAligner:
		return "coarse_alignment"
	case KindInterfaceAligner:
		return "interface_alignment"
	case KindMarkerAligner:
		return "marker_alignment"
	case KindEdgeAligner:
		return "edge_alignment"
	case KindFiberAligner:
		return "fiber_core_alignment"
	case KindScene:
		return "scene"
	case KindGroup:
		return "group"
	case KindArray:
		return "array"
	case KindStructure, KindText, KindLens:
		return "structure"
	case KindDoseCompensation:
		return "dose_compensation"
	case KindCapture:
		return "capture"
	case KindStageMove:
		return "stage_move"
	case KindWait:
		return "wait"
	default:
		return "unknown"
	}
}

// terminal reports whether nodes of this kind may never carry children.
func (k Kind) terminal() bool {
	switch k {
	case KindStructure, KindText, KindLens:
		return true
	}
	return false
}

// ProjectInfo is the metadata record carried verbatim into the exported
// project_info document.
type ProjectInfo struct {
	Author       string `json:"author"`
	Objective    string `json:"objective"`
	Resist       string `json:"resist"`
	Substrate    string `json:"substrate"`
	CreationDate string `json:"creation_date"`
}
