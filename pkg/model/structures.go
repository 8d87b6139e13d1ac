package model

import "fmt"

// defaultSlicing returns the slicing settings shared by structure-kind
// nodes when the caller passes the zero value.
func normalizeSlicing(s SlicingSettings) (SlicingSettings, error) {
	if s.SlicingOriginReference == "" {
		s.SlicingOriginReference = "scene_bottom"
	}
	switch s.SlicingOriginReference {
	case "structure_center", "zero", "scene_top", "scene_bottom",
		"structure_top", "structure_bottom", "scene_center":
	default:
		return s, fmt.Errorf("invalid slicing origin %q", s.SlicingOriginReference)
	}
	if s.Priority < 0 {
		return s, fmt.Errorf("priority must not be negative, got %d", s.Priority)
	}
	return s, nil
}

// NewStructure creates a mesh-backed structure node exposing the given
// mesh resource with the given preset. Structure nodes are terminal; the
// preset and mesh arguments may be nil, leaving dangling references that
// only the consuming application will notice.
func NewStructure(name string, preset *Preset, mesh *Resource, slicing SlicingSettings) (*Node, error) {
	if name == "" {
		name = "Structure"
	}
	slicing, err := normalizeSlicing(slicing)
	if err != nil {
		return nil, fmt.Errorf("structure: %w", err)
	}
	if mesh != nil && mesh.Type != ResourceMesh {
		return nil, fmt.Errorf("structure: resource %s is a %s, not a mesh", mesh.ID.Short(), mesh.Type)
	}
	d := &StructureData{
		SlicingSettings: slicing,
		Size:            Vec3{100, 100, 100},
	}
	if preset != nil {
		d.Preset = preset.ID
	}
	if mesh != nil {
		d.Mesh = mesh.ID
	}
	return newNode(KindStructure, name, d), nil
}

// NewText creates a text structure node printed with the given preset.
func NewText(name string, preset *Preset, text string, fontSize, height float64, slicing SlicingSettings) (*Node, error) {
	if name == "" {
		name = "Text"
	}
	if text == "" {
		text = "Text"
	}
	if fontSize == 0 {
		fontSize = 10
	}
	if height == 0 {
		height = 5
	}
	if fontSize <= 0 || height <= 0 {
		return nil, fmt.Errorf("text: font size and height must be positive")
	}
	slicing, err := normalizeSlicing(slicing)
	if err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}
	d := &TextData{
		SlicingSettings: slicing,
		Text:            text,
		FontSize:        fontSize,
		Height:          height,
	}
	if preset != nil {
		d.Preset = preset.ID
	}
	return newNode(KindText, name, d), nil
}

// LensOptions collects the optional parameters of a lens node. The zero
// value of each field selects the documented default.
type LensOptions struct {
	Radius           float64 // default 100
	Height           float64 // default 50
	CropBase         bool
	Asymmetric       bool
	Curvature        float64 // default 0.01
	ConicConstant    float64 // default 0.01
	CurvatureY       float64 // default 0.01
	ConicConstantY   float64 // default -1
	NrRadialSegments int     // default 500
	NrPhiSegments    int     // default 360
}

// NewLens creates a parametric lens structure node printed with the
// given preset.
func NewLens(name string, preset *Preset, opts LensOptions, slicing SlicingSettings) (*Node, error) {
	if name == "" {
		name = "Lens"
	}
	if opts.Radius == 0 {
		opts.Radius = 100
	}
	if opts.Height == 0 {
		opts.Height = 50
	}
	if opts.Radius <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("lens: radius and height must be positive")
	}
	if opts.Curvature == 0 {
		opts.Curvature = 0.01
	}
	if opts.ConicConstant == 0 {
		opts.ConicConstant = 0.01
	}
	if opts.CurvatureY == 0 {
		opts.CurvatureY = 0.01
	}
	if opts.ConicConstantY == 0 {
		opts.ConicConstantY = -1
	}
	if opts.NrRadialSegments == 0 {
		opts.NrRadialSegments = 500
	}
	if opts.NrPhiSegments == 0 {
		opts.NrPhiSegments = 360
	}
	slicing, err := normalizeSlicing(slicing)
	if err != nil {
		return nil, fmt.Errorf("lens: %w", err)
	}
	d := &LensData{
		SlicingSettings:  slicing,
		Radius:           opts.Radius,
		Height:           opts.Height,
		CropBase:         opts.CropBase,
		Asymmetric:       opts.Asymmetric,
		Curvature:        opts.Curvature,
		ConicConstant:    opts.ConicConstant,
		CurvatureY:       opts.CurvatureY,
		ConicConstantY:   opts.ConicConstantY,
		NrRadialSegments: opts.NrRadialSegments,
		NrPhiSegments:    opts.NrPhiSegments,
		PolynomialType:   "Normalized",
	}
	if preset != nil {
		d.Preset = preset.ID
	}
	return newNode(KindLens, name, d), nil
}

// SetPolynomial sets the lens polynomial profile. typ must be
// "Normalized" or "Standard".
func (n *Node) SetPolynomial(typ string, factors, factorsY []float64) error {
	d, ok := n.Data.(*LensData)
	if !ok {
		return fmt.Errorf("set polynomial: node %s is a %s, not a lens", n.ID.Short(), n.Kind)
	}
	if typ != "Normalized" && typ != "Standard" {
		return fmt.Errorf("set polynomial: type must be Normalized or Standard, got %q", typ)
	}
	d.PolynomialType = typ
	d.PolynomialFactors = append([]float64(nil), factors...)
	d.PolynomialFactorsY = append([]float64(nil), factorsY...)
	return nil
}

// SetSurfaceCompensation sets the lens surface compensation factors.
func (n *Node) SetSurfaceCompensation(factors, factorsY []float64) error {
	d, ok := n.Data.(*LensData)
	if !ok {
		return fmt.Errorf("set surface compensation: node %s is a %s, not a lens", n.ID.Short(), n.Kind)
	}
	d.SurfaceCompensationFactors = append([]float64(nil), factors...)
	d.SurfaceCompensationFactorsY = append([]float64(nil), factorsY...)
	return nil
}
