package engine

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mtarnawa/nanoweave/pkg/model"
)

// stlFixture writes a minimal binary STL file and returns its path.
func stlFixture(t *testing.T, triangles int) string {
	t.Helper()
	data := make([]byte, 84+triangles*50)
	binary.LittleEndian.PutUint32(data[80:84], uint32(triangles))
	path := filepath.Join(t.TempDir(), "fixture.stl")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEvaluateEmptyScript(t *testing.T) {
	eng := NewEngine()

	p, evalErrs, err := eng.Evaluate("")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if p != nil {
		t.Error("expected nil project")
	}
	if len(evalErrs) != 1 || !strings.Contains(evalErrs[0].Message, "empty script") {
		t.Errorf("eval errors = %v", evalErrs)
	}
}

func TestEvaluateWhitespaceOnly(t *testing.T) {
	_, evalErrs, err := NewEngine().Evaluate("   \n\t  \n  ")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) != 1 {
		t.Errorf("eval errors = %v", evalErrs)
	}
}

func TestEvaluateNoProject(t *testing.T) {
	p, evalErrs, err := NewEngine().Evaluate(`(scene :name "orphan")`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if p != nil {
		t.Error("expected nil project")
	}
	if len(evalErrs) != 1 || !strings.Contains(evalErrs[0].Message, "did not define a project") {
		t.Errorf("eval errors = %v", evalErrs)
	}
}

func TestEvaluateProjectOnly(t *testing.T) {
	p, evalErrs, err := NewEngine().Evaluate(
		`(project :objective "25x" :resin "IP-n162" :substrate "FuSi" :author "tester")`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if p == nil {
		t.Fatal("expected project")
	}
	info := p.Info()
	if info.Objective != "25x" || info.Resist != "IP-n162" || info.Substrate != "FuSi" {
		t.Errorf("project info = %+v", info)
	}
	if info.Author != "tester" {
		t.Errorf("author = %q", info.Author)
	}
	if len(p.Nodes()) != 1 {
		t.Errorf("node count = %d, want 1", len(p.Nodes()))
	}
}

func TestEvaluateFullScript(t *testing.T) {
	meshPath := stlFixture(t, 2)
	script := fmt.Sprintf(`
; A complete print job: one aligner, one scene, one structure.
(def root (project :objective "25x" :resin "IP-n162" :substrate "FuSi"))
(def p (preset "p1" :writing-speed 250000.0 :writing-power 50.0))
(def m (mesh %q :name "box"))
(def al (coarse-aligner :residual-threshold 8.0))
(add-coarse-anchor al "anchor 0" (vec3 0 0 0))
(add-coarse-anchor al "anchor 1" (vec3 100 0 0))
(def sc (scene :name "Scene" :position (vec3 10 20 0)))
(def st (structure p m :name "s" :size (vec3 50 50 50)))
(add-child root al)
(add-child al sc)
(add-child sc st)
`, meshPath)

	p, evalErrs, err := NewEngine().Evaluate(script)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}

	preset := p.PresetByName("p1")
	if preset == nil {
		t.Fatal("preset p1 not registered")
	}
	if preset.WritingSpeed != 250000.0 {
		t.Errorf("writing speed = %v", preset.WritingSpeed)
	}
	mesh := p.ResourceByName("box")
	if mesh == nil {
		t.Fatal("mesh not registered")
	}
	if mesh.TriangleCount != 2 {
		t.Errorf("triangle count = %d", mesh.TriangleCount)
	}

	nodes := p.Nodes()
	if len(nodes) != 4 {
		t.Fatalf("node count = %d, want 4", len(nodes))
	}
	kinds := []model.Kind{
		model.KindProject, model.KindCoarseAligner, model.KindScene, model.KindStructure,
	}
	for i, want := range kinds {
		if nodes[i].Kind != want {
			t.Errorf("node %d kind = %s, want %s", i, nodes[i].Kind, want)
		}
	}

	aligner := nodes[1].Data.(*model.CoarseAlignerData)
	if aligner.ResidualThreshold != 8.0 {
		t.Errorf("residual threshold = %v", aligner.ResidualThreshold)
	}
	if len(aligner.Anchors) != 2 {
		t.Errorf("anchor count = %d", len(aligner.Anchors))
	}

	if nodes[2].Position != (model.Vec3{X: 10, Y: 20, Z: 0}) {
		t.Errorf("scene position = %v", nodes[2].Position)
	}

	structure := nodes[3].Data.(*model.StructureData)
	if structure.Preset != preset.ID {
		t.Error("structure does not reference the preset")
	}
	if structure.Mesh != mesh.ID {
		t.Error("structure does not reference the mesh")
	}
	if structure.Size != (model.Vec3{X: 50, Y: 50, Z: 50}) {
		t.Errorf("structure size = %v", structure.Size)
	}
}

func TestEvaluateAppendNode(t *testing.T) {
	script := `
(project :objective "*" :resin "*" :substrate "*")
(append-node (scene :name "Scene"))
(append-node (group :name "Group"))
`
	p, evalErrs, err := NewEngine().Evaluate(script)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	nodes := p.Nodes()
	if len(nodes) != 3 {
		t.Fatalf("node count = %d", len(nodes))
	}
	// Each append hangs off the deepest last child.
	if nodes[2].Parent() != nodes[1] {
		t.Error("group not appended under the scene")
	}
}

func TestEvaluateProjectTwice(t *testing.T) {
	script := `
(project :objective "*" :resin "*" :substrate "*")
(project :objective "*" :resin "*" :substrate "*")
`
	_, evalErrs, err := NewEngine().Evaluate(script)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval error for duplicate project")
	}
	if !strings.Contains(evalErrs[0].Message, "already defined") {
		t.Errorf("error message = %q", evalErrs[0].Message)
	}
}

func TestEvaluatePresetBeforeProject(t *testing.T) {
	_, evalErrs, err := NewEngine().Evaluate(`(preset "p1")`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval error")
	}
	if !strings.Contains(evalErrs[0].Message, "no project defined") {
		t.Errorf("error message = %q", evalErrs[0].Message)
	}
}

func TestEvaluateInvalidHierarchy(t *testing.T) {
	script := `
(def root (project :objective "*" :resin "*" :substrate "*"))
(def outer (scene :name "outer"))
(add-child root outer)
(add-child outer (scene :name "inner"))
`
	_, evalErrs, err := NewEngine().Evaluate(script)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval error for nested scenes")
	}
}

func TestEvaluateMissingMeshFile(t *testing.T) {
	script := `
(project :objective "*" :resin "*" :substrate "*")
(mesh "/nonexistent/box.stl" :name "box")
`
	p, evalErrs, err := NewEngine().Evaluate(script)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if p != nil {
		t.Error("expected nil project after eval failure")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval error for missing mesh file")
	}
}

func TestEvaluateParseError(t *testing.T) {
	_, evalErrs, err := NewEngine().Evaluate(`(project :objective "25x"`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval error for unbalanced parens")
	}
}

func TestEvaluateConcurrent(t *testing.T) {
	// Each evaluation builds in a fresh sandbox; concurrent evaluations
	// must not mix project state.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, evalErrs, err := NewEngine().Evaluate(
				`(project :objective "25x" :resin "IP-n162" :substrate "FuSi")`)
			if err != nil || len(evalErrs) > 0 || p == nil {
				t.Errorf("evaluate: %v %v", evalErrs, err)
			}
		}()
	}
	wg.Wait()
}

func TestWaitWithTimeoutDiscardsStaleResult(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2) // a newer evaluation already started

	ch := make(chan evalResult, 1)
	ch <- evalResult{project: nil}

	_, _, err := waitWithTimeout(ch, 1, &mu, &gen)
	if err == nil || !strings.Contains(err.Error(), "superseded") {
		t.Errorf("err = %v, want superseded", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	errs := parseZygomysError(fmt.Errorf("Error on line 3: undefined symbol"))
	if len(errs) != 1 || errs[0].Line != 3 {
		t.Errorf("errs = %v", errs)
	}
	errs = parseZygomysError(fmt.Errorf("something without a location"))
	if len(errs) != 1 || errs[0].Line != 0 {
		t.Errorf("errs = %v", errs)
	}
	if !strings.Contains(errs[0].Error(), "something without a location") {
		t.Errorf("Error() = %q", errs[0].Error())
	}
}
