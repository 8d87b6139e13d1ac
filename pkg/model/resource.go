package model

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mtarnawa/nanoweave/pkg/ident"
)

// ResourceType distinguishes the two kinds of external binary assets.
type ResourceType int

const (
	ResourceMesh ResourceType = iota
	ResourceImage
)

// String returns the type tag the consuming application expects.
func (t ResourceType) String() string {
	switch t {
	case ResourceMesh:
		return "mesh_file"
	case ResourceImage:
		return "image_file"
	default:
		return "unknown"
	}
}

// Resource references an external binary asset by identifier. Path is the
// archive-internal location (a content-hash-named subdirectory under
// resources/, guaranteeing uniqueness across same-named files); FetchFrom
// is the on-disk location the packager stages the file from.
type Resource struct {
	ID        ident.ID
	Type      ResourceType
	Name      string
	Path      string
	FetchFrom string

	// Mesh placement settings; meaningful only for Type == ResourceMesh.
	Translation  Vec3
	Rotation     Vec3
	Scale        Vec3
	AutoCenter   bool
	EnhanceMesh  bool
	SimplifyMesh bool
	TargetRatio  float64

	// TriangleCount is carried through into the mesh properties
	// sub-table. Zero when the count could not be determined.
	TriangleCount int
}

// MeshOptions collects the optional placement settings of a mesh
// resource. The zero value of each field selects the default.
type MeshOptions struct {
	Translation  Vec3
	Rotation     Vec3
	Scale        *Vec3 // default [1, 1, 1]
	AutoCenter   bool
	EnhanceMesh  *bool // default true
	SimplifyMesh bool
	TargetRatio  float64 // default 100
}

// NewMesh creates a mesh resource from the file at path. The file must
// exist so its content hash can be computed; whether it still exists at
// export time is checked again by the packager.
func NewMesh(path, name string, opts MeshOptions) (*Resource, error) {
	if name == "" {
		name = "mesh"
	}
	if opts.TargetRatio == 0 {
		opts.TargetRatio = 100
	}
	if opts.TargetRatio < 0 || opts.TargetRatio > 100 {
		return nil, fmt.Errorf("mesh %q: target ratio must be within [0, 100], got %v", name, opts.TargetRatio)
	}
	hashed, err := hashedPath(path)
	if err != nil {
		return nil, fmt.Errorf("mesh %q: %w", name, err)
	}
	r := &Resource{
		ID:           ident.New(),
		Type:         ResourceMesh,
		Name:         name,
		Path:         hashed,
		FetchFrom:    path,
		Translation:  opts.Translation,
		Rotation:     opts.Rotation,
		Scale:        Vec3{1, 1, 1},
		AutoCenter:   opts.AutoCenter,
		EnhanceMesh:  true,
		SimplifyMesh: opts.SimplifyMesh,
		TargetRatio:  opts.TargetRatio,
	}
	if opts.Scale != nil {
		r.Scale = *opts.Scale
	}
	if opts.EnhanceMesh != nil {
		r.EnhanceMesh = *opts.EnhanceMesh
	}
	r.TriangleCount = stlTriangleCount(path)
	return r, nil
}

// NewImage creates an image resource from the file at path.
func NewImage(path, name string) (*Resource, error) {
	if name == "" {
		name = "image"
	}
	hashed, err := hashedPath(path)
	if err != nil {
		return nil, fmt.Errorf("image %q: %w", name, err)
	}
	return &Resource{
		ID:        ident.New(),
		Type:      ResourceImage,
		Name:      name,
		Path:      hashed,
		FetchFrom: path,
	}, nil
}

// hashedPath computes the archive-internal path for the file:
// resources/<md5-of-content>/<basename>.
func hashedPath(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("resource file: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return fmt.Sprintf("resources/%x/%s", h.Sum(nil), filepath.Base(path)), nil
}

// stlTriangleCount reads the triangle count from an STL file, handling
// both the binary and ASCII encodings. It returns 0 when the file is not
// readable as STL; the count is informational and never blocks
// construction.
func stlTriangleCount(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	if len(data) >= 84 && !looksASCIISTL(data) {
		n := binary.LittleEndian.Uint32(data[80:84])
		// Sanity check: a binary STL is 84 bytes plus 50 per triangle.
		if int64(len(data)) >= 84+int64(n)*50 {
			return int(n)
		}
		return 0
	}
	return bytes.Count(data, []byte("facet normal"))
}

// looksASCIISTL reports whether the data starts like an ASCII STL file.
func looksASCIISTL(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.HasPrefix(bytes.TrimSpace(head), []byte("solid")) &&
		bytes.Contains(head, []byte("facet"))
}
