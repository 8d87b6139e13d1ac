package model

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// binarySTL builds a minimal valid binary STL payload with n triangles.
func binarySTL(n int) []byte {
	data := make([]byte, 84+n*50)
	binary.LittleEndian.PutUint32(data[80:84], uint32(n))
	return data
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHashedPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "asset.stl", []byte("hello"))

	got, err := hashedPath(path)
	if err != nil {
		t.Fatal(err)
	}
	// md5("hello") = 5d41402abc4b2a76b9719d911017c592
	want := "resources/5d41402abc4b2a76b9719d911017c592/asset.stl"
	if got != want {
		t.Errorf("hashedPath = %q, want %q", got, want)
	}
}

func TestHashedPathDistinguishesSameName(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir), "same.stl", []byte("one"))
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	b := writeFile(t, sub, "same.stl", []byte("two"))

	pa, err := hashedPath(a)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := hashedPath(b)
	if err != nil {
		t.Fatal(err)
	}
	if pa == pb {
		t.Error("different content mapped to the same archive path")
	}
}

func TestNewMeshDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "box.stl", binarySTL(12))

	r, err := NewMesh(path, "box", MeshOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if r.Type != ResourceMesh {
		t.Error("wrong resource type")
	}
	if r.Scale != (Vec3{1, 1, 1}) {
		t.Errorf("scale = %v", r.Scale)
	}
	if !r.EnhanceMesh {
		t.Error("enhance_mesh should default true")
	}
	if r.TargetRatio != 100 {
		t.Errorf("target_ratio = %v", r.TargetRatio)
	}
	if r.TriangleCount != 12 {
		t.Errorf("triangle count = %d, want 12", r.TriangleCount)
	}
	if r.FetchFrom != path {
		t.Error("source path not recorded")
	}
}

func TestNewMeshOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "box.stl", binarySTL(1))

	enhance := false
	scale := Vec3{2, 2, 2}
	r, err := NewMesh(path, "box", MeshOptions{
		Scale:       &scale,
		EnhanceMesh: &enhance,
		TargetRatio: 50,
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.Scale != scale || r.EnhanceMesh || r.TargetRatio != 50 {
		t.Error("options not applied")
	}

	if _, err := NewMesh(path, "box", MeshOptions{TargetRatio: 150}); err == nil {
		t.Error("out-of-range target ratio accepted")
	}
}

func TestNewMeshMissingFile(t *testing.T) {
	if _, err := NewMesh(filepath.Join(t.TempDir(), "absent.stl"), "m", MeshOptions{}); err == nil {
		t.Error("missing file accepted")
	}
}

func TestNewImage(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "marker.png", []byte{0x89, 'P', 'N', 'G'})

	r, err := NewImage(path, "marker")
	if err != nil {
		t.Fatal(err)
	}
	if r.Type != ResourceImage {
		t.Error("wrong resource type")
	}
	if r.Type.String() != "image_file" {
		t.Errorf("type tag = %q", r.Type.String())
	}
}

func TestSTLTriangleCountASCII(t *testing.T) {
	dir := t.TempDir()
	ascii := `solid box
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 1 0
  endloop
endfacet
facet normal 0 0 -1
  outer loop
    vertex 0 0 0
    vertex 0 1 0
    vertex 1 0 0
  endloop
endfacet
endsolid box
`
	path := writeFile(t, dir, "ascii.stl", []byte(ascii))
	if got := stlTriangleCount(path); got != 2 {
		t.Errorf("ASCII triangle count = %d, want 2", got)
	}
}

func TestSTLTriangleCountRejectsTruncated(t *testing.T) {
	dir := t.TempDir()
	data := binarySTL(2)
	// Claim more triangles than the payload holds.
	binary.LittleEndian.PutUint32(data[80:84], 1000)
	path := writeFile(t, dir, "bad.stl", data)
	if got := stlTriangleCount(path); got != 0 {
		t.Errorf("truncated STL count = %d, want 0", got)
	}
}
