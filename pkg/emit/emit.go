// Package emit serializes a project into the document set understood by
// the consuming print application: three TOML documents (presets,
// resources, nodes) and one JSON metadata document. Building is a pure
// function of the project state; two identical projects yield identical
// bytes.
package emit

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/mtarnawa/nanoweave/pkg/model"
)

// Documents is the serialized form of a project, one field per archive
// entry.
type Documents struct {
	Presets     []byte // presets.toml
	Resources   []byte // resources.toml
	Nodes       []byte // nodes.toml
	ProjectInfo []byte // project_info.json
}

// Build serializes the project. Entities appear in registration order;
// nodes appear in pre-order starting at the root.
func Build(p *model.Project) (*Documents, error) {
	return BuildFrom(p.Presets(), p.Resources(), p.Nodes(), p.Info())
}

// BuildFrom serializes explicit collections, in the given order. Callers
// may pass any node subset; references to entities outside it are
// emitted verbatim, never resolved or checked.
func BuildFrom(presets []*model.Preset, resources []*model.Resource, nodes []*model.Node, info model.ProjectInfo) (*Documents, error) {
	presetSections := make([]map[string]any, 0, len(presets))
	for _, preset := range presets {
		presetSections = append(presetSections, preset.Fields())
	}
	resourceSections := make([]map[string]any, 0, len(resources))
	for _, res := range resources {
		resourceSections = append(resourceSections, ResourceSection(res))
	}
	sections := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		sections = append(sections, NodeSection(n))
	}

	presetDoc, err := toml.Marshal(map[string]any{"presets": presetSections})
	if err != nil {
		return nil, fmt.Errorf("emit presets: %w", err)
	}
	resourceDoc, err := toml.Marshal(map[string]any{"resources": resourceSections})
	if err != nil {
		return nil, fmt.Errorf("emit resources: %w", err)
	}
	nodeDoc, err := toml.Marshal(map[string]any{"nodes": sections})
	if err != nil {
		return nil, fmt.Errorf("emit nodes: %w", err)
	}
	infoDoc, err := json.MarshalIndent(info, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("emit project info: %w", err)
	}

	return &Documents{
		Presets:     presetDoc,
		Resources:   resourceDoc,
		Nodes:       nodeDoc,
		ProjectInfo: infoDoc,
	}, nil
}

// ResourceSection returns the flat field map of one resource section.
func ResourceSection(r *model.Resource) map[string]any {
	m := map[string]any{
		"type": r.Type.String(),
		"id":   string(r.ID),
		"name": r.Name,
		"path": r.Path,
	}
	if r.Type == model.ResourceMesh {
		m["translation"] = r.Translation.Slice()
		m["auto_center"] = r.AutoCenter
		m["rotation"] = r.Rotation.Slice()
		m["scale"] = r.Scale.Slice()
		m["enhance_mesh"] = r.EnhanceMesh
		m["simplify_mesh"] = r.SimplifyMesh
		m["target_ratio"] = r.TargetRatio
		m["properties"] = map[string]any{
			"original_triangle_count": int64(r.TriangleCount),
		}
	}
	return m
}

// NodeSection returns the flat field map of one node section: the common
// fields, the kind-specific fields, and any Extra carry-through.
func NodeSection(n *model.Node) map[string]any {
	children := make([]string, 0, len(n.ChildIDs()))
	for _, id := range n.ChildIDs() {
		children = append(children, string(id))
	}
	properties := map[string]any{}
	for k, v := range n.Properties {
		properties[k] = v
	}
	m := map[string]any{
		"type":       n.Kind.String(),
		"id":         string(n.ID),
		"name":       n.Name,
		"position":   n.Position.Slice(),
		"rotation":   n.Rotation.Slice(),
		"children":   children,
		"properties": properties,
		"geometry":   map[string]any{},
	}

	switch d := n.Data.(type) {
	case *model.ProjectData:
		m["objective"] = d.Objective
		m["resin"] = d.Resin
		m["substrate"] = d.Substrate

	case *model.CoarseAlignerData:
		m["residual_threshold"] = d.ResidualThreshold
		anchors := make([]map[string]any, 0, len(d.Anchors))
		for _, a := range d.Anchors {
			anchors = append(anchors, map[string]any{
				"label":    a.Label,
				"position": a.Position.Slice(),
			})
		}
		m["alignment_anchors"] = anchors

	case *model.InterfaceAlignerData:
		properties["signal_type"] = d.SignalType
		properties["detector_type"] = d.DetectorType
		m["action_upon_failure"] = d.ActionUponFailure
		m["measure_tilt"] = d.MeasureTilt
		m["area_measurement"] = d.AreaMeasurement
		m["center_stage"] = d.CenterStage
		m["laser_power"] = d.LaserPower
		m["scan_area_res_factors"] = d.ScanAreaResFactors.Slice()
		m["scan_z_sample_distance"] = d.ScanZSampleDistance
		m["scan_z_sample_count"] = int64(d.ScanZSampleCount)
		m["pattern"] = d.Pattern
		m["grid_point_count"] = d.GridPointCount.Slice()
		m["grid_size"] = d.GridSize.Slice()
		anchors := make([]map[string]any, 0, len(d.Anchors))
		for _, a := range d.Anchors {
			anchors = append(anchors, map[string]any{
				"label":          a.Label,
				"position":       a.Position.Slice(),
				"scan_area_size": a.ScanAreaSize.Slice(),
			})
		}
		m["alignment_anchors"] = anchors

	case *model.MarkerAlignerData:
		m["marker"] = map[string]any{
			"image": string(d.Marker.Image),
			"size":  d.Marker.Size.Slice(),
		}
		m["action_upon_failure"] = d.ActionUponFailure
		m["center_stage"] = d.CenterStage
		m["laser_power"] = d.LaserPower
		m["scan_area_size"] = d.ScanAreaSize.Slice()
		m["scan_area_res_factors"] = d.ScanAreaResFactors.Slice()
		m["detection_margin"] = d.DetectionMargin
		m["correlation_threshold"] = d.CorrelationThreshold
		m["residual_threshold"] = d.ResidualThreshold
		m["max_outliers"] = int64(d.MaxOutliers)
		m["orthonormalize"] = d.Orthonormalize
		m["z_scan_sample_distance"] = d.ZScanSampleDistance
		m["z_scan_sample_count"] = int64(d.ZScanSampleCount)
		m["z_scan_optimization_mode"] = d.ZScanOptimizationMode
		m["measure_z"] = d.MeasureZ
		anchors := make([]map[string]any, 0, len(d.Anchors))
		for _, a := range d.Anchors {
			anchors = append(anchors, map[string]any{
				"label":    a.Label,
				"position": a.Position.Slice(),
				"rotation": a.Rotation,
			})
		}
		m["alignment_anchors"] = anchors

	case *model.EdgeAlignerData:
		properties["xy_position_local_cos"] = d.EdgeLocation.Slice()
		properties["z_rotation_local_cos"] = d.EdgeOrientation
		properties["center_stage"] = d.CenterStage
		properties["action_upon_failure"] = d.ActionUponFailure
		properties["laser_power"] = d.LaserPower
		properties["scan_area_res_factors"] = d.ScanAreaResFactors.Slice()
		properties["scan_z_sample_distance"] = d.ScanZSampleDistance
		properties["scan_z_sample_count"] = int64(d.ScanZSampleCount)
		properties["outlier_threshold"] = d.OutlierThreshold
		anchors := make([]map[string]any, 0, len(d.Anchors))
		for _, a := range d.Anchors {
			anchors = append(anchors, map[string]any{
				"label":          a.Label,
				"offset":         a.Offset,
				"scan_area_size": a.ScanAreaSize.Slice(),
			})
		}
		m["alignment_anchors"] = anchors

	case *model.FiberAlignerData:
		m["fiber_radius"] = d.FiberRadius
		m["center_stage"] = d.CenterStage
		m["action_upon_failure"] = d.ActionUponFailure
		m["illumination_name"] = d.IlluminationName
		m["core_signal_lower_threshold"] = d.CoreSignalLowerThreshold
		m["core_signal_range"] = d.CoreSignalRange.Slice()
		m["core_position_offset_tolerance"] = d.CorePositionOffsetTolerance
		m["detect_light_direction"] = d.DetectLightDirection
		m["z_scan_range"] = d.ZScanRange.Slice()
		m["z_scan_range_sample_count"] = int64(d.ZScanRangeSampleCount)
		m["z_scan_range_scan_count"] = int64(d.ZScanRangeScanCount)

	case *model.SceneData:
		m["writing_direction_upward"] = d.WritingDirectionUpward

	case *model.GroupData:
		// Nothing beyond the common fields.

	case *model.ArrayData:
		m["count"] = d.Count.Slice()
		m["spacing"] = d.Spacing.Slice()
		m["order"] = d.Order
		m["shape"] = d.Shape

	case *model.StructureData:
		applySlicing(m, d.SlicingSettings)
		if d.Preset != "" {
			m["preset"] = string(d.Preset)
		}
		if d.Mesh != "" {
			m["geometry"] = map[string]any{
				"type":     "mesh",
				"resource": string(d.Mesh),
				"scale": []float64{
					d.Size.X / 100,
					d.Size.Y / 100,
					d.Size.Z / 100,
				},
			}
		}

	case *model.TextData:
		applySlicing(m, d.SlicingSettings)
		if d.Preset != "" {
			m["preset"] = string(d.Preset)
		}
		m["geometry"] = map[string]any{
			"type":      "text",
			"text":      d.Text,
			"font_size": d.FontSize,
			"height":    d.Height,
		}

	case *model.LensData:
		applySlicing(m, d.SlicingSettings)
		if d.Preset != "" {
			m["preset"] = string(d.Preset)
		}
		m["geometry"] = map[string]any{
			"type":                           "lens",
			"radius":                         d.Radius,
			"height":                         d.Height,
			"crop_base":                      d.CropBase,
			"asymmetric":                     d.Asymmetric,
			"curvature":                      d.Curvature,
			"conic_constant":                 d.ConicConstant,
			"curvature_y":                    d.CurvatureY,
			"conic_constant_y":               d.ConicConstantY,
			"polynomial_type":                d.PolynomialType,
			"polynomial_factors":             floats(d.PolynomialFactors),
			"polynomial_factors_y":           floats(d.PolynomialFactorsY),
			"surface_compensation_factors":   floats(d.SurfaceCompensationFactors),
			"surface_compensation_factors_y": floats(d.SurfaceCompensationFactorsY),
			"nr_radial_segments":             int64(d.NrRadialSegments),
			"nr_phi_segments":                int64(d.NrPhiSegments),
		}

	case *model.DoseCompensationData:
		m["position_local_cos"] = d.EdgeLocation.Slice()
		m["z_rotation_local_cos"] = d.EdgeOrientation
		m["size"] = d.DomainSize.Slice()
		m["gain_limit"] = d.GainLimit

	case *model.CaptureData:
		m["capture_type"] = d.CaptureType
		m["laser_power"] = d.LaserPower
		m["scan_area_size"] = d.ScanAreaSize.Slice()
		m["scan_area_ref_factors"] = d.ScanAreaRefFactors.Slice()

	case *model.StageMoveData:
		m["target_position"] = d.TargetPosition.Slice()

	case *model.WaitData:
		m["wait_time"] = d.WaitTime
	}

	for k, v := range n.Extra {
		m[k] = v
	}
	return m
}

// applySlicing writes the exposure settings shared by all structure
// variants into the section.
func applySlicing(m map[string]any, s model.SlicingSettings) {
	m["slicing_origin_reference"] = s.SlicingOriginReference
	m["slicing_offset"] = s.SlicingOffset
	m["priority"] = int64(s.Priority)
	m["expose_individually"] = s.ExposeIndividually
}

// floats normalizes a possibly-nil slice so empty factor lists emit as
// empty arrays.
func floats(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
