package model

import (
	"os"
	"path/filepath"
	"testing"
)

func imageFixture(t *testing.T) *Resource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marker.png")
	if err := os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := NewImage(path, "marker")
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestNewCoarseAligner(t *testing.T) {
	n, err := NewCoarseAligner("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if n.Name != "Coarse aligner" {
		t.Errorf("default name = %q", n.Name)
	}
	if n.Kind != KindCoarseAligner {
		t.Errorf("kind = %s", n.Kind)
	}
	if _, err := NewCoarseAligner("ca", 0); err == nil {
		t.Error("zero threshold accepted")
	}
	if _, err := NewCoarseAligner("ca", -1); err == nil {
		t.Error("negative threshold accepted")
	}
}

func TestAddCoarseAnchorWrongKind(t *testing.T) {
	g := NewGroup("g")
	if err := g.AddCoarseAnchor("a", Vec3{}); err == nil {
		t.Error("anchor added to a group")
	}
}

func TestNewInterfaceAlignerDefaults(t *testing.T) {
	n, err := NewInterfaceAligner("", InterfaceAlignerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	d := n.Data.(*InterfaceAlignerData)
	if d.SignalType != "auto" || d.DetectorType != "auto" {
		t.Errorf("signal routing = %q / %q", d.SignalType, d.DetectorType)
	}
	if d.ActionUponFailure != "abort" {
		t.Errorf("action = %q", d.ActionUponFailure)
	}
	if !d.CenterStage {
		t.Error("center stage should default true")
	}
	if d.LaserPower != 0.5 || d.ScanZSampleDistance != 0.1 || d.ScanZSampleCount != 51 {
		t.Error("scan defaults not applied")
	}
	if d.Pattern != "Origin" {
		t.Errorf("pattern = %q", d.Pattern)
	}
	if d.GridPointCount != (Int2{5, 5}) || d.GridSize != (Vec2{200, 200}) {
		t.Error("grid defaults not applied")
	}
}

func TestNewInterfaceAlignerValidation(t *testing.T) {
	if _, err := NewInterfaceAligner("ia", InterfaceAlignerOptions{SignalType: "sonar"}); err == nil {
		t.Error("invalid signal type accepted")
	}
	if _, err := NewInterfaceAligner("ia", InterfaceAlignerOptions{DetectorType: "radar"}); err == nil {
		t.Error("invalid detector type accepted")
	}
	if _, err := NewInterfaceAligner("ia", InterfaceAlignerOptions{ActionUponFailure: "retry"}); err == nil {
		t.Error("invalid failure action accepted")
	}
}

func TestInterfaceAlignerPatternTransitions(t *testing.T) {
	n, err := NewInterfaceAligner("ia", InterfaceAlignerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := n.SetGrid(Int2{3, 3}, Vec2{100, 100}); err != nil {
		t.Fatal(err)
	}
	d := n.Data.(*InterfaceAlignerData)
	if d.Pattern != "Grid" || d.GridPointCount != (Int2{3, 3}) {
		t.Error("grid not applied")
	}

	if err := n.AddInterfaceAnchor("a0", Vec2{1, 1}, Vec2{}); err != nil {
		t.Fatal(err)
	}
	if d.Pattern != "Custom" {
		t.Errorf("pattern = %q after anchor", d.Pattern)
	}
	// A zero scan area selects the default extent.
	if d.Anchors[0].ScanAreaSize != (Vec2{10, 10}) {
		t.Errorf("anchor scan area = %v", d.Anchors[0].ScanAreaSize)
	}
}

func TestNewMarkerAlignerDefaults(t *testing.T) {
	img := imageFixture(t)
	n, err := NewMarkerAligner(img, "", Vec2{5, 5}, MarkerAlignerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	d := n.Data.(*MarkerAlignerData)
	if d.Marker.Image != img.ID || d.Marker.Size != (Vec2{5, 5}) {
		t.Error("marker reference not recorded")
	}
	if d.LaserPower != 0.5 || d.DetectionMargin != 5 || d.CorrelationThreshold != 60 {
		t.Error("detection defaults not applied")
	}
	if d.ScanAreaSize != (Vec2{10, 10}) || d.ScanAreaResFactors != (Vec2{2, 2}) {
		t.Error("scan area defaults not applied")
	}
	if !d.Orthonormalize {
		t.Error("orthonormalize should default true")
	}
	if d.ZScanSampleCount != 1 || d.ZScanSampleDistance != 0.5 || d.ZScanOptimizationMode != "correlation" {
		t.Error("z scan defaults not applied")
	}
}

func TestNewMarkerAlignerValidation(t *testing.T) {
	img := imageFixture(t)
	if _, err := NewMarkerAligner(nil, "ma", Vec2{5, 5}, MarkerAlignerOptions{}); err == nil {
		t.Error("nil image accepted")
	}
	if _, err := NewMarkerAligner(img, "ma", Vec2{0, 5}, MarkerAlignerOptions{}); err == nil {
		t.Error("zero marker width accepted")
	}
	if _, err := NewMarkerAligner(img, "ma", Vec2{5, 5}, MarkerAlignerOptions{CorrelationThreshold: 150}); err == nil {
		t.Error("out-of-range correlation threshold accepted")
	}

	stl := filepath.Join(t.TempDir(), "not-an-image.stl")
	if err := os.WriteFile(stl, make([]byte, 84), 0o644); err != nil {
		t.Fatal(err)
	}
	mesh, err := NewMesh(stl, "m", MeshOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewMarkerAligner(mesh, "ma", Vec2{5, 5}, MarkerAlignerOptions{}); err == nil {
		t.Error("mesh resource accepted as marker image")
	}
}

func TestNewEdgeAlignerDefaults(t *testing.T) {
	n, err := NewEdgeAligner("", EdgeAlignerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	d := n.Data.(*EdgeAlignerData)
	if d.LaserPower != 0.5 || d.OutlierThreshold != 10 {
		t.Error("defaults not applied")
	}
	if d.ScanAreaResFactors != (Vec2{1, 1}) {
		t.Errorf("res factors = %v", d.ScanAreaResFactors)
	}

	if _, err := NewEdgeAligner("ea", EdgeAlignerOptions{OutlierThreshold: 150}); err == nil {
		t.Error("out-of-range outlier threshold accepted")
	}
}

func TestAddMeasurement(t *testing.T) {
	n, err := NewEdgeAligner("ea", EdgeAlignerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := n.AddMeasurement("e0", 1.5, Vec2{50, 10}); err != nil {
		t.Fatal(err)
	}
	// A zero height is a line scan and stays legal.
	if err := n.AddMeasurement("e1", 0, Vec2{50, 0}); err != nil {
		t.Errorf("line scan rejected: %v", err)
	}
	if err := n.AddMeasurement("e2", 0, Vec2{0, 10}); err == nil {
		t.Error("zero width accepted")
	}
	d := n.Data.(*EdgeAlignerData)
	if len(d.Anchors) != 2 {
		t.Errorf("measurement count = %d", len(d.Anchors))
	}
}

func TestNewFiberAlignerDefaults(t *testing.T) {
	n, err := NewFiberAligner("", FiberAlignerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	d := n.Data.(*FiberAlignerData)
	if d.FiberRadius != 63.5 {
		t.Errorf("fiber radius = %v", d.FiberRadius)
	}
	if d.IlluminationName != "process_led_1" {
		t.Errorf("illumination = %q", d.IlluminationName)
	}
	if d.CoreSignalRange != (Vec2{0.1, 0.9}) {
		t.Errorf("core signal range = %v", d.CoreSignalRange)
	}
	if d.ZScanRange != (Vec2{10, 100}) {
		t.Errorf("z scan range = %v", d.ZScanRange)
	}

	if err := n.MeasureTilt(Vec2{20, 200}, 150, 2); err != nil {
		t.Fatal(err)
	}
	if d.ZScanRange != (Vec2{20, 200}) || d.ZScanRangeSampleCount != 150 || d.ZScanRangeScanCount != 2 {
		t.Error("tilt measurement settings not applied")
	}
}

func TestMiscNodes(t *testing.T) {
	if _, err := NewDoseCompensation("dc", Vec3{}, 0, Vec3{200, 100, 100}, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDoseCompensation("dc", Vec3{}, 0, Vec3{0, 100, 100}, 2); err == nil {
		t.Error("zero domain width accepted")
	}
	if _, err := NewDoseCompensation("dc", Vec3{}, 0, Vec3{200, 100, 100}, 0.5); err == nil {
		t.Error("gain limit below 1 accepted")
	}

	capture := NewCapture("")
	d := capture.Data.(*CaptureData)
	if d.CaptureType != "Camera" {
		t.Errorf("capture type = %q", d.CaptureType)
	}
	if err := capture.ConfocalCapture(0.4, Vec2{50, 50}, Vec2{1, 1}); err != nil {
		t.Fatal(err)
	}
	if d.CaptureType != "Confocal" || d.LaserPower != 0.4 {
		t.Error("confocal settings not applied")
	}

	if _, err := NewWait("w", 0); err == nil {
		t.Error("zero wait time accepted")
	}
	w, err := NewWait("", 2)
	if err != nil {
		t.Fatal(err)
	}
	if w.Data.(*WaitData).WaitTime != 2 {
		t.Error("wait time not recorded")
	}

	sm := NewStageMove("", Vec3{0, 0, 100})
	if sm.Data.(*StageMoveData).TargetPosition != (Vec3{0, 0, 100}) {
		t.Error("stage target not recorded")
	}
}

func TestNewArrayValidation(t *testing.T) {
	n, err := NewArray("", Int2{5, 5}, Vec2{100, 100}, "Lexical", "Rectangular")
	if err != nil {
		t.Fatal(err)
	}
	if n.Kind != KindArray {
		t.Errorf("kind = %s", n.Kind)
	}
	if _, err := NewArray("a", Int2{0, 5}, Vec2{100, 100}, "Lexical", "Rectangular"); err == nil {
		t.Error("zero count accepted")
	}
	if _, err := NewArray("a", Int2{5, 5}, Vec2{100, 100}, "Random", "Rectangular"); err == nil {
		t.Error("invalid order accepted")
	}
	if _, err := NewArray("a", Int2{5, 5}, Vec2{100, 100}, "Meander", "Hexagonal"); err == nil {
		t.Error("invalid shape accepted")
	}
}
