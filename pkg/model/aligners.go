package model

import "fmt"

// validFailureAction reports whether s is an accepted action_upon_failure.
func validFailureAction(s string) bool {
	return s == "abort" || s == "ignore"
}

// ---------------------------------------------------------------------------
// Coarse aligner
// ---------------------------------------------------------------------------

// NewCoarseAligner creates a coarse alignment node. residualThreshold is
// the largest residual accepted after alignment, in micrometers.
func NewCoarseAligner(name string, residualThreshold float64) (*Node, error) {
	if name == "" {
		name = "Coarse aligner"
	}
	if residualThreshold <= 0 {
		return nil, fmt.Errorf("coarse aligner: residual threshold must be positive, got %v", residualThreshold)
	}
	return newNode(KindCoarseAligner, name, &CoarseAlignerData{
		ResidualThreshold: residualThreshold,
	}), nil
}

// AddCoarseAnchor appends a labeled 3D anchor to a coarse alignment node.
func (n *Node) AddCoarseAnchor(label string, position Vec3) error {
	d, ok := n.Data.(*CoarseAlignerData)
	if !ok {
		return fmt.Errorf("add coarse anchor: node %s is a %s, not a coarse aligner", n.ID.Short(), n.Kind)
	}
	d.Anchors = append(d.Anchors, CoarseAnchor{Label: label, Position: position})
	return nil
}

// ---------------------------------------------------------------------------
// Interface aligner
// ---------------------------------------------------------------------------

// InterfaceAlignerOptions collects the optional settings of an interface
// aligner. The zero value of each field selects the documented default.
type InterfaceAlignerOptions struct {
	SignalType          string  // "auto", "fluorescence" or "reflection"
	DetectorType        string  // "auto", "confocal", "camera" or "camera_legacy"
	MeasureTilt         bool
	AreaMeasurement     bool
	CenterStage         *bool   // default true
	ActionUponFailure   string  // "abort" or "ignore"
	LaserPower          float64 // default 0.5
	ScanAreaResFactors  *Vec2   // default [1, 1]
	ScanZSampleDistance float64 // default 0.1
	ScanZSampleCount    int     // default 51
}

// NewInterfaceAligner creates an interface alignment node. The alignment
// pattern starts as "Origin"; SetGrid switches it to "Grid" and
// AddInterfaceAnchor to "Custom".
func NewInterfaceAligner(name string, opts InterfaceAlignerOptions) (*Node, error) {
	if name == "" {
		name = "Interface aligner"
	}
	if opts.SignalType == "" {
		opts.SignalType = "auto"
	}
	if opts.DetectorType == "" {
		opts.DetectorType = "auto"
	}
	if opts.ActionUponFailure == "" {
		opts.ActionUponFailure = "abort"
	}
	if opts.LaserPower == 0 {
		opts.LaserPower = 0.5
	}
	if opts.ScanZSampleDistance == 0 {
		opts.ScanZSampleDistance = 0.1
	}
	if opts.ScanZSampleCount == 0 {
		opts.ScanZSampleCount = 51
	}

	switch opts.SignalType {
	case "auto", "fluorescence", "reflection":
	default:
		return nil, fmt.Errorf("interface aligner: invalid signal type %q", opts.SignalType)
	}
	switch opts.DetectorType {
	case "auto", "confocal", "camera", "camera_legacy":
	default:
		return nil, fmt.Errorf("interface aligner: invalid detector type %q", opts.DetectorType)
	}
	if !validFailureAction(opts.ActionUponFailure) {
		return nil, fmt.Errorf("interface aligner: action upon failure must be abort or ignore, got %q", opts.ActionUponFailure)
	}
	if opts.LaserPower <= 0 {
		return nil, fmt.Errorf("interface aligner: laser power must be positive")
	}
	if opts.ScanZSampleCount < 1 {
		return nil, fmt.Errorf("interface aligner: scan z sample count must be at least 1")
	}

	d := &InterfaceAlignerData{
		SignalType:          opts.SignalType,
		DetectorType:        opts.DetectorType,
		ActionUponFailure:   opts.ActionUponFailure,
		MeasureTilt:         opts.MeasureTilt,
		AreaMeasurement:     opts.AreaMeasurement,
		CenterStage:         true,
		LaserPower:          opts.LaserPower,
		ScanAreaResFactors:  Vec2{1, 1},
		ScanZSampleDistance: opts.ScanZSampleDistance,
		ScanZSampleCount:    opts.ScanZSampleCount,
		Pattern:             "Origin",
		GridPointCount:      Int2{5, 5},
		GridSize:            Vec2{200, 200},
	}
	if opts.CenterStage != nil {
		d.CenterStage = *opts.CenterStage
	}
	if opts.ScanAreaResFactors != nil {
		d.ScanAreaResFactors = *opts.ScanAreaResFactors
	}
	return newNode(KindInterfaceAligner, name, d), nil
}

// SetGrid switches an interface aligner to the Grid pattern with the
// given point count and extent.
func (n *Node) SetGrid(count Int2, size Vec2) error {
	d, ok := n.Data.(*InterfaceAlignerData)
	if !ok {
		return fmt.Errorf("set grid: node %s is a %s, not an interface aligner", n.ID.Short(), n.Kind)
	}
	d.Pattern = "Grid"
	d.GridPointCount = count
	d.GridSize = size
	return nil
}

// AddInterfaceAnchor appends a labeled measurement location and switches
// the aligner to the Custom pattern. A zero scan area selects the default
// of 10x10 micrometers.
func (n *Node) AddInterfaceAnchor(label string, position Vec2, scanAreaSize Vec2) error {
	d, ok := n.Data.(*InterfaceAlignerData)
	if !ok {
		return fmt.Errorf("add interface anchor: node %s is a %s, not an interface aligner", n.ID.Short(), n.Kind)
	}
	if scanAreaSize == (Vec2{}) {
		scanAreaSize = Vec2{10, 10}
	}
	d.Pattern = "Custom"
	d.Anchors = append(d.Anchors, InterfaceAnchor{Label: label, Position: position, ScanAreaSize: scanAreaSize})
	return nil
}

// ---------------------------------------------------------------------------
// Marker aligner
// ---------------------------------------------------------------------------

// MarkerAlignerOptions collects the optional settings of a marker aligner.
type MarkerAlignerOptions struct {
	CenterStage           *bool   // default true
	ActionUponFailure     string  // "abort" or "ignore"
	LaserPower            float64 // default 0.5
	ScanAreaSize          *Vec2   // default [10, 10]
	ScanAreaResFactors    *Vec2   // default [2, 2]
	DetectionMargin       float64 // default 5
	CorrelationThreshold  float64 // default 60
	ResidualThreshold     float64 // default 0.5
	MaxOutliers           int
	Orthonormalize        *bool   // default true
	ZScanSampleCount      int     // default 1
	ZScanSampleDistance   float64 // default 0.5
	ZScanOptimizationMode string  // "correlation" or "intensity"
	MeasureZ              bool
}

// NewMarkerAligner creates a marker alignment node bound to an image
// resource. markerSize is the physical marker extent in micrometers and
// must be positive on both axes.
func NewMarkerAligner(image *Resource, name string, markerSize Vec2, opts MarkerAlignerOptions) (*Node, error) {
	if image == nil {
		return nil, fmt.Errorf("marker aligner: image resource is required")
	}
	if image.Type != ResourceImage {
		return nil, fmt.Errorf("marker aligner: resource %s is a %s, not an image", image.ID.Short(), image.Type)
	}
	if name == "" {
		name = "Marker aligner"
	}
	if markerSize.X <= 0 || markerSize.Y <= 0 {
		return nil, fmt.Errorf("marker aligner: marker size must be positive, got [%v, %v]", markerSize.X, markerSize.Y)
	}
	if opts.ActionUponFailure == "" {
		opts.ActionUponFailure = "abort"
	}
	if !validFailureAction(opts.ActionUponFailure) {
		return nil, fmt.Errorf("marker aligner: action upon failure must be abort or ignore, got %q", opts.ActionUponFailure)
	}
	if opts.LaserPower == 0 {
		opts.LaserPower = 0.5
	}
	if opts.DetectionMargin == 0 {
		opts.DetectionMargin = 5
	}
	if opts.CorrelationThreshold == 0 {
		opts.CorrelationThreshold = 60
	}
	if opts.CorrelationThreshold < 0 || opts.CorrelationThreshold > 100 {
		return nil, fmt.Errorf("marker aligner: correlation threshold must be within [0, 100]")
	}
	if opts.ResidualThreshold == 0 {
		opts.ResidualThreshold = 0.5
	}
	if opts.MaxOutliers < 0 {
		return nil, fmt.Errorf("marker aligner: max outliers must not be negative")
	}
	if opts.ZScanSampleCount == 0 {
		opts.ZScanSampleCount = 1
	}
	if opts.ZScanSampleCount < 1 {
		return nil, fmt.Errorf("marker aligner: z scan sample count must be at least 1")
	}
	if opts.ZScanSampleDistance == 0 {
		opts.ZScanSampleDistance = 0.5
	}
	if opts.ZScanOptimizationMode == "" {
		opts.ZScanOptimizationMode = "correlation"
	}
	if opts.ZScanOptimizationMode != "correlation" && opts.ZScanOptimizationMode != "intensity" {
		return nil, fmt.Errorf("marker aligner: z scan mode must be correlation or intensity, got %q", opts.ZScanOptimizationMode)
	}

	d := &MarkerAlignerData{
		Marker:                MarkerRef{Image: image.ID, Size: markerSize},
		ActionUponFailure:     opts.ActionUponFailure,
		CenterStage:           true,
		LaserPower:            opts.LaserPower,
		ScanAreaSize:          Vec2{10, 10},
		ScanAreaResFactors:    Vec2{2, 2},
		DetectionMargin:       opts.DetectionMargin,
		CorrelationThreshold:  opts.CorrelationThreshold,
		ResidualThreshold:     opts.ResidualThreshold,
		MaxOutliers:           opts.MaxOutliers,
		Orthonormalize:        true,
		ZScanSampleDistance:   opts.ZScanSampleDistance,
		ZScanSampleCount:      opts.ZScanSampleCount,
		ZScanOptimizationMode: opts.ZScanOptimizationMode,
		MeasureZ:              opts.MeasureZ,
	}
	if opts.CenterStage != nil {
		d.CenterStage = *opts.CenterStage
	}
	if opts.ScanAreaSize != nil {
		d.ScanAreaSize = *opts.ScanAreaSize
	}
	if opts.ScanAreaResFactors != nil {
		d.ScanAreaResFactors = *opts.ScanAreaResFactors
	}
	if opts.Orthonormalize != nil {
		d.Orthonormalize = *opts.Orthonormalize
	}
	return newNode(KindMarkerAligner, name, d), nil
}

// AddMarker appends a labeled marker location with in-plane rotation in
// degrees to a marker alignment node.
func (n *Node) AddMarker(label string, rotation float64, position Vec2) error {
	d, ok := n.Data.(*MarkerAlignerData)
	if !ok {
		return fmt.Errorf("add marker: node %s is a %s, not a marker aligner", n.ID.Short(), n.Kind)
	}
	d.Anchors = append(d.Anchors, MarkerAnchor{Label: label, Position: position, Rotation: rotation})
	return nil
}

// ---------------------------------------------------------------------------
// Edge aligner
// ---------------------------------------------------------------------------

// EdgeAlignerOptions collects the optional settings of an edge aligner.
type EdgeAlignerOptions struct {
	EdgeLocation        Vec2
	EdgeOrientation     float64
	CenterStage         *bool   // default true
	ActionUponFailure   string  // "abort" or "ignore"
	LaserPower          float64 // default 0.5
	ScanAreaResFactors  *Vec2   // default [1, 1]
	ScanZSampleDistance float64 // default 0.1
	ScanZSampleCount    int     // default 51
	OutlierThreshold    float64 // default 10
}

// NewEdgeAligner creates an edge alignment node.
func NewEdgeAligner(name string, opts EdgeAlignerOptions) (*Node, error) {
	if name == "" {
		name = "Edge aligner"
	}
	if opts.ActionUponFailure == "" {
		opts.ActionUponFailure = "abort"
	}
	if !validFailureAction(opts.ActionUponFailure) {
		return nil, fmt.Errorf("edge aligner: action upon failure must be abort or ignore, got %q", opts.ActionUponFailure)
	}
	if opts.LaserPower == 0 {
		opts.LaserPower = 0.5
	}
	if opts.ScanZSampleDistance == 0 {
		opts.ScanZSampleDistance = 0.1
	}
	if opts.ScanZSampleCount == 0 {
		opts.ScanZSampleCount = 51
	}
	if opts.ScanZSampleCount < 1 {
		return nil, fmt.Errorf("edge aligner: scan z sample count must be at least 1")
	}
	if opts.OutlierThreshold == 0 {
		opts.OutlierThreshold = 10
	}
	if opts.OutlierThreshold < 0 || opts.OutlierThreshold > 100 {
		return nil, fmt.Errorf("edge aligner: outlier threshold must be within [0, 100]")
	}

	d := &EdgeAlignerData{
		EdgeLocation:        opts.EdgeLocation,
		EdgeOrientation:     opts.EdgeOrientation,
		CenterStage:         true,
		ActionUponFailure:   opts.ActionUponFailure,
		LaserPower:          opts.LaserPower,
		ScanAreaResFactors:  Vec2{1, 1},
		ScanZSampleDistance: opts.ScanZSampleDistance,
		ScanZSampleCount:    opts.ScanZSampleCount,
		OutlierThreshold:    opts.OutlierThreshold,
	}
	if opts.CenterStage != nil {
		d.CenterStage = *opts.CenterStage
	}
	if opts.ScanAreaResFactors != nil {
		d.ScanAreaResFactors = *opts.ScanAreaResFactors
	}
	return newNode(KindEdgeAligner, name, d), nil
}

// AddMeasurement appends a labeled edge measurement. The scan area width
// must be positive; the height may be zero for a line scan.
func (n *Node) AddMeasurement(label string, offset float64, scanAreaSize Vec2) error {
	d, ok := n.Data.(*EdgeAlignerData)
	if !ok {
		return fmt.Errorf("add measurement: node %s is a %s, not an edge aligner", n.ID.Short(), n.Kind)
	}
	if scanAreaSize.X <= 0 {
		return fmt.Errorf("add measurement: scan area width must be positive, got %v", scanAreaSize.X)
	}
	if scanAreaSize.Y < 0 {
		return fmt.Errorf("add measurement: scan area height must not be negative, got %v", scanAreaSize.Y)
	}
	d.Anchors = append(d.Anchors, EdgeMeasurement{Label: label, Offset: offset, ScanAreaSize: scanAreaSize})
	return nil
}

// ---------------------------------------------------------------------------
// Fiber aligner
// ---------------------------------------------------------------------------

// FiberAlignerOptions collects the optional settings of a fiber core
// aligner.
type FiberAlignerOptions struct {
	FiberRadius              float64 // default 63.5
	CenterStage              *bool   // default true
	ActionUponFailure        string  // "abort" or "ignore"
	IlluminationName         string  // default "process_led_1"
	CoreSignalLowerThreshold float64 // default 0.05
	CoreSignalRange          *Vec2   // default [0.1, 0.9]
	DetectionMargin          float64 // default 6.35
}

// NewFiberAligner creates a fiber core alignment node. Tilt measurement
// is off until enabled with MeasureTilt.
func NewFiberAligner(name string, opts FiberAlignerOptions) (*Node, error) {
	if name == "" {
		name = "Fiber aligner"
	}
	if opts.FiberRadius == 0 {
		opts.FiberRadius = 63.5
	}
	if opts.FiberRadius < 0 {
		return nil, fmt.Errorf("fiber aligner: fiber radius must be positive, got %v", opts.FiberRadius)
	}
	if opts.ActionUponFailure == "" {
		opts.ActionUponFailure = "abort"
	}
	if !validFailureAction(opts.ActionUponFailure) {
		return nil, fmt.Errorf("fiber aligner: action upon failure must be abort or ignore, got %q", opts.ActionUponFailure)
	}
	if opts.IlluminationName == "" {
		opts.IlluminationName = "process_led_1"
	}
	if opts.CoreSignalLowerThreshold == 0 {
		opts.CoreSignalLowerThreshold = 0.05
	}
	if opts.DetectionMargin == 0 {
		opts.DetectionMargin = 6.35
	}
	if opts.DetectionMargin < 0 {
		return nil, fmt.Errorf("fiber aligner: detection margin must be positive, got %v", opts.DetectionMargin)
	}

	d := &FiberAlignerData{
		FiberRadius:                 opts.FiberRadius,
		CenterStage:                 true,
		ActionUponFailure:           opts.ActionUponFailure,
		IlluminationName:            opts.IlluminationName,
		CoreSignalLowerThreshold:    opts.CoreSignalLowerThreshold,
		CoreSignalRange:             Vec2{0.1, 0.9},
		CorePositionOffsetTolerance: opts.DetectionMargin,
		ZScanRange:                  Vec2{10, 100},
		ZScanRangeSampleCount:       1,
		ZScanRangeScanCount:         1,
	}
	if opts.CenterStage != nil {
		d.CenterStage = *opts.CenterStage
	}
	if opts.CoreSignalRange != nil {
		d.CoreSignalRange = *opts.CoreSignalRange
	}
	return newNode(KindFiberAligner, name, d), nil
}

// MeasureTilt enables tilt detection on a fiber aligner with the given
// z-scan parameters.
func (n *Node) MeasureTilt(zScanRange Vec2, sampleCount, scanCount int) error {
	d, ok := n.Data.(*FiberAlignerData)
	if !ok {
		return fmt.Errorf("measure tilt: node %s is a %s, not a fiber aligner", n.ID.Short(), n.Kind)
	}
	if zScanRange.Y <= zScanRange.X || zScanRange.Y <= 0 {
		return fmt.Errorf("measure tilt: z scan range upper bound must exceed the lower bound, got [%v, %v]", zScanRange.X, zScanRange.Y)
	}
	if sampleCount <= 0 || scanCount <= 0 {
		return fmt.Errorf("measure tilt: sample and scan counts must be positive")
	}
	d.DetectLightDirection = true
	d.ZScanRange = zScanRange
	d.ZScanRangeSampleCount = sampleCount
	d.ZScanRangeScanCount = scanCount
	return nil
}
