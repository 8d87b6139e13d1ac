package model

import "github.com/mtarnawa/nanoweave/pkg/ident"

// NodeData is the variant payload carried by a Node. Implementations are
// restricted to this package; downstream code switches exhaustively on the
// concrete type where behavior differs.
type NodeData interface {
	nodeData()
	clone() NodeData
}

// ---------------------------------------------------------------------------
// Project
// ---------------------------------------------------------------------------

// ProjectData is the payload of the project root node.
type ProjectData struct {
	Objective string
	Resin     string
	Substrate string
}

func (ProjectData) nodeData() {}
func (d *ProjectData) clone() NodeData {
	c := *d
	return &c
}

// ---------------------------------------------------------------------------
// Aligners
// ---------------------------------------------------------------------------

// CoarseAnchor is a labeled 3D position used by coarse alignment.
type CoarseAnchor struct {
	Label    string
	Position Vec3
}

// CoarseAlignerData is the payload of a coarse alignment node.
type CoarseAlignerData struct {
	ResidualThreshold float64
	Anchors           []CoarseAnchor
}

func (CoarseAlignerData) nodeData() {}
func (d *CoarseAlignerData) clone() NodeData {
	c := *d
	c.Anchors = append([]CoarseAnchor(nil), d.Anchors...)
	return &c
}

// InterfaceAnchor is a labeled in-plane measurement location with its scan
// area extent.
type InterfaceAnchor struct {
	Label        string
	Position     Vec2
	ScanAreaSize Vec2
}

// InterfaceAlignerData is the payload of an interface alignment node.
type InterfaceAlignerData struct {
	SignalType          string // properties sub-table
	DetectorType        string // properties sub-table
	ActionUponFailure   string
	MeasureTilt         bool
	AreaMeasurement     bool
	CenterStage         bool
	LaserPower          float64
	ScanAreaResFactors  Vec2
	ScanZSampleDistance float64
	ScanZSampleCount    int

	Pattern        string // "Origin", "Grid" or "Custom"
	GridPointCount Int2
	GridSize       Vec2
	Anchors        []InterfaceAnchor
}

func (InterfaceAlignerData) nodeData() {}
func (d *InterfaceAlignerData) clone() NodeData {
	c := *d
	c.Anchors = append([]InterfaceAnchor(nil), d.Anchors...)
	return &c
}

// MarkerRef ties a marker alignment node to its image resource.
type MarkerRef struct {
	Image ident.ID
	Size  Vec2
}

// MarkerAnchor is a labeled marker location with in-plane rotation.
type MarkerAnchor struct {
	Label    string
	Position Vec2
	Rotation float64
}

// MarkerAlignerData is the payload of a marker alignment node.
type MarkerAlignerData struct {
	Marker                MarkerRef
	ActionUponFailure     string
	CenterStage           bool
	LaserPower            float64
	ScanAreaSize          Vec2
	ScanAreaResFactors    Vec2
	DetectionMargin       float64
	CorrelationThreshold  float64
	ResidualThreshold     float64
	MaxOutliers           int
	Orthonormalize        bool
	ZScanSampleDistance   float64
	ZScanSampleCount      int
	ZScanOptimizationMode string
	MeasureZ              bool
	Anchors               []MarkerAnchor
}

func (MarkerAlignerData) nodeData() {}
func (d *MarkerAlignerData) clone() NodeData {
	c := *d
	c.Anchors = append([]MarkerAnchor(nil), d.Anchors...)
	return &c
}

// EdgeMeasurement is a labeled offset along the edge with its scan area.
type EdgeMeasurement struct {
	Label        string
	Offset       float64
	ScanAreaSize Vec2
}

// EdgeAlignerData is the payload of an edge alignment node. Its scalar
// settings are emitted inside the node's properties sub-table, matching
// the consumer's expectations.
type EdgeAlignerData struct {
	EdgeLocation        Vec2
	EdgeOrientation     float64
	CenterStage         bool
	ActionUponFailure   string
	LaserPower          float64
	ScanAreaResFactors  Vec2
	ScanZSampleDistance float64
	ScanZSampleCount    int
	OutlierThreshold    float64
	Anchors             []EdgeMeasurement
}

func (EdgeAlignerData) nodeData() {}
func (d *EdgeAlignerData) clone() NodeData {
	c := *d
	c.Anchors = append([]EdgeMeasurement(nil), d.Anchors...)
	return &c
}

// FiberAlignerData is the payload of a fiber core alignment node.
type FiberAlignerData struct {
	FiberRadius                 float64
	CenterStage                 bool
	ActionUponFailure           string
	IlluminationName            string
	CoreSignalLowerThreshold    float64
	CoreSignalRange             Vec2
	CorePositionOffsetTolerance float64

	DetectLightDirection  bool
	ZScanRange            Vec2
	ZScanRangeSampleCount int
	ZScanRangeScanCount   int
}

func (FiberAlignerData) nodeData() {}
func (d *FiberAlignerData) clone() NodeData {
	c := *d
	return &c
}

// ---------------------------------------------------------------------------
// Spatial containers
// ---------------------------------------------------------------------------

// SceneData is the payload of a scene node.
type SceneData struct {
	WritingDirectionUpward bool
}

func (SceneData) nodeData() {}
func (d *SceneData) clone() NodeData {
	c := *d
	return &c
}

// GroupData is the payload of a group node. Groups carry nothing beyond
// the common node fields.
type GroupData struct{}

func (GroupData) nodeData() {}
func (d *GroupData) clone() NodeData {
	return &GroupData{}
}

// ArrayData is the payload of an array node.
type ArrayData struct {
	Count   Int2
	Spacing Vec2
	Order   string // "Lexical" or "Meander"
	Shape   string // "Rectangular" or "Round"
}

func (ArrayData) nodeData() {}
func (d *ArrayData) clone() NodeData {
	c := *d
	return &c
}

// ---------------------------------------------------------------------------
// Structures
// ---------------------------------------------------------------------------

// SlicingSettings are the exposure settings shared by structure, text and
// lens nodes.
type SlicingSettings struct {
	SlicingOriginReference string
	SlicingOffset          float64
	Priority               int
	ExposeIndividually     bool
}

// StructureData is the payload of a mesh-backed structure node. Preset and
// Mesh hold identifiers, never objects; nothing checks at assignment time
// that the referenced entities exist.
type StructureData struct {
	SlicingSettings
	Preset ident.ID
	Mesh   ident.ID
	Size   Vec3 // percent per axis; emitted as geometry scale = size/100
}

func (StructureData) nodeData() {}
func (d *StructureData) clone() NodeData {
	c := *d
	return &c
}

// TextData is the payload of a text structure node.
type TextData struct {
	SlicingSettings
	Preset   ident.ID
	Text     string
	FontSize float64
	Height   float64
}

func (TextData) nodeData() {}
func (d *TextData) clone() NodeData {
	c := *d
	return &c
}

// LensData is the payload of a parametric lens structure node.
type LensData struct {
	SlicingSettings
	Preset ident.ID

	Radius         float64
	Height         float64
	CropBase       bool
	Asymmetric     bool
	Curvature      float64
	ConicConstant  float64
	CurvatureY     float64
	ConicConstantY float64

	NrRadialSegments int
	NrPhiSegments    int

	PolynomialType              string // "Normalized" or "Standard"
	PolynomialFactors           []float64
	PolynomialFactorsY          []float64
	SurfaceCompensationFactors  []float64
	SurfaceCompensationFactorsY []float64
}

func (LensData) nodeData() {}
func (d *LensData) clone() NodeData {
	c := *d
	c.PolynomialFactors = append([]float64(nil), d.PolynomialFactors...)
	c.PolynomialFactorsY = append([]float64(nil), d.PolynomialFactorsY...)
	c.SurfaceCompensationFactors = append([]float64(nil), d.SurfaceCompensationFactors...)
	c.SurfaceCompensationFactorsY = append([]float64(nil), d.SurfaceCompensationFactorsY...)
	return &c
}

// ---------------------------------------------------------------------------
// Miscellaneous process steps
// ---------------------------------------------------------------------------

// DoseCompensationData is the payload of a dose compensation node.
type DoseCompensationData struct {
	EdgeLocation    Vec3
	EdgeOrientation float64
	DomainSize      Vec3
	GainLimit       float64
}

func (DoseCompensationData) nodeData() {}
func (d *DoseCompensationData) clone() NodeData {
	c := *d
	return &c
}

// CaptureData is the payload of a capture node.
type CaptureData struct {
	CaptureType        string // "Camera" or "Confocal"
	LaserPower         float64
	ScanAreaSize       Vec2
	ScanAreaRefFactors Vec2
}

func (CaptureData) nodeData() {}
func (d *CaptureData) clone() NodeData {
	c := *d
	return &c
}

// StageMoveData is the payload of a stage move node.
type StageMoveData struct {
	TargetPosition Vec3
}

func (StageMoveData) nodeData() {}
func (d *StageMoveData) clone() NodeData {
	c := *d
	return &c
}

// WaitData is the payload of a wait node.
type WaitData struct {
	WaitTime float64 // seconds
}

func (WaitData) nodeData() {}
func (d *WaitData) clone() NodeData {
	c := *d
	return &c
}
