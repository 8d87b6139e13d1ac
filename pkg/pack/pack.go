// Package pack assembles the vendor archive: the emitted documents plus
// every referenced resource file, zipped without compression into a
// .nano artifact.
package pack

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mtarnawa/nanoweave/pkg/emit"
	"github.com/mtarnawa/nanoweave/pkg/ident"
	"github.com/mtarnawa/nanoweave/pkg/model"
)

// MissingResourceError reports a registered resource whose backing file
// disappeared between registration and export.
type MissingResourceError struct {
	ID   ident.ID
	Name string
	Path string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("resource %q (%s): file not found at %s", e.Name, e.ID.Short(), e.Path)
}

// Export serializes the project and writes <name>.nano into dir. The
// artifact appears only on full success; any failure leaves dir
// untouched. Returns the path of the written archive.
func Export(p *model.Project, name, dir string) (string, error) {
	if name == "" {
		name = "Project"
	}
	if dir == "" {
		dir = "."
	}

	docs, err := emit.Build(p)
	if err != nil {
		return "", err
	}

	staging, err := os.MkdirTemp("", "nanoweave-export-*")
	if err != nil {
		return "", fmt.Errorf("export: staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	entries, err := stage(staging, docs, p.Resources())
	if err != nil {
		return "", err
	}

	target := filepath.Join(dir, name+".nano")
	if err := writeArchive(staging, target, entries); err != nil {
		return "", err
	}
	return target, nil
}

// stage lays the archive contents out under root and returns the entry
// names in archive order: the four documents first, then the resource
// files sorted by archive path.
func stage(root string, docs *emit.Documents, resources []*model.Resource) ([]string, error) {
	documents := []struct {
		name string
		data []byte
	}{
		{"presets.toml", docs.Presets},
		{"resources.toml", docs.Resources},
		{"nodes.toml", docs.Nodes},
		{"project_info.json", docs.ProjectInfo},
	}
	entries := make([]string, 0, len(documents)+len(resources))
	for _, d := range documents {
		if err := os.WriteFile(filepath.Join(root, d.name), d.data, 0o644); err != nil {
			return nil, fmt.Errorf("export: staging %s: %w", d.name, err)
		}
		entries = append(entries, d.name)
	}

	paths := make([]string, 0, len(resources))
	for _, r := range resources {
		if err := stageResource(root, r); err != nil {
			return nil, err
		}
		paths = append(paths, r.Path)
	}
	sort.Strings(paths)
	return append(entries, paths...), nil
}

// stageResource copies one resource file from its on-disk location to
// its archive-internal path under root.
func stageResource(root string, r *model.Resource) error {
	src, err := os.Open(r.FetchFrom)
	if err != nil {
		if os.IsNotExist(err) {
			return &MissingResourceError{ID: r.ID, Name: r.Name, Path: r.FetchFrom}
		}
		return fmt.Errorf("export: resource %q: %w", r.Name, err)
	}
	defer src.Close()

	dest := filepath.Join(root, filepath.FromSlash(r.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("export: resource %q: %w", r.Name, err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("export: resource %q: %w", r.Name, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("export: resource %q: %w", r.Name, err)
	}
	return out.Close()
}

// writeArchive zips the staged tree into target. Entries are stored
// uncompressed; the consuming application reads the documents without a
// decompression pass. The archive is built in a temp file and renamed
// into place so a failure never leaves a partial artifact.
func writeArchive(staging, target string, entries []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".nanoweave-*.partial")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	zw := zip.NewWriter(tmp)
	for _, entry := range entries {
		if err := addStored(zw, filepath.Join(staging, filepath.FromSlash(entry)), entry); err != nil {
			zw.Close()
			tmp.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("export: finalizing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: finalizing archive: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// addStored writes one file into the archive under its entry name with
// the STORE method. Entry names always use forward slashes.
func addStored(zw *zip.Writer, path, entry string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("export: archive entry %s: %w", entry, err)
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   strings.ReplaceAll(entry, "\\", "/"),
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("export: archive entry %s: %w", entry, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("export: archive entry %s: %w", entry, err)
	}
	return nil
}
