package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewPresetDefaults(t *testing.T) {
	p := NewPreset("p1")
	if p.Name != "p1" {
		t.Errorf("name = %q", p.Name)
	}
	if p.ID == "" {
		t.Error("no id assigned")
	}
	if p.WritingSpeed != 250000.0 {
		t.Errorf("writing_speed = %v", p.WritingSpeed)
	}
	if p.WritingPower != 50.0 {
		t.Errorf("writing_power = %v", p.WritingPower)
	}
	if p.SlicingSpacing != 0.8 || p.HatchingSpacing != 0.3 {
		t.Errorf("spacing = %v / %v", p.SlicingSpacing, p.HatchingSpacing)
	}
	if !p.HatchingBackNForth {
		t.Error("hatching_back_n_forth should default true")
	}
	if p.GrayscaleMultilayerEnabled {
		t.Error("grayscale should default off")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("default preset invalid: %v", err)
	}

	anon := NewPreset("")
	if anon.Name != "25x_IP-n162" {
		t.Errorf("fallback name = %q", anon.Name)
	}
}

func TestPresetValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Preset)
	}{
		{"bad objective", func(p *Preset) { p.ValidObjectives = []string{"10x"} }},
		{"bad resin", func(p *Preset) { p.ValidResins = []string{"IP-Unknown"} }},
		{"bad substrate", func(p *Preset) { p.ValidSubstrates = []string{"Glass"} }},
		{"zero speed", func(p *Preset) { p.WritingSpeed = 0 }},
		{"negative power", func(p *Preset) { p.WritingPower = -1 }},
		{"zero slicing", func(p *Preset) { p.SlicingSpacing = 0 }},
	}
	for _, tc := range cases {
		p := NewPreset("p")
		tc.mutate(p)
		if err := p.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}

	wild := NewPreset("w")
	wild.ValidObjectives = []string{"*"}
	wild.ValidResins = []string{"*"}
	if err := wild.Validate(); err != nil {
		t.Errorf("wildcard rejected: %v", err)
	}
}

func TestSetGrayscaleMultilayer(t *testing.T) {
	p := NewPreset("g")
	if err := p.SetGrayscaleMultilayer(10, 0, 2); err != nil {
		t.Fatal(err)
	}
	if !p.GrayscaleMultilayerEnabled {
		t.Error("grayscale not enabled")
	}
	if p.GrayscaleLayerProfileNrLayers != 10 || p.GrayscaleExponent != 2 {
		t.Error("grayscale profile not applied")
	}
	if err := p.SetGrayscaleMultilayer(10, 0, 0); err == nil {
		t.Error("zero exponent accepted")
	}
}

func TestPresetDuplicate(t *testing.T) {
	p := NewPreset("orig")
	p.Extra = map[string]any{"vendor_key": "v"}
	d := p.Duplicate()

	if d.ID == p.ID {
		t.Error("duplicate shares the source id")
	}
	if d.Name != p.Name || d.WritingSpeed != p.WritingSpeed {
		t.Error("duplicate does not carry the source fields")
	}
	d.ValidResins[0] = "IP-S"
	if p.ValidResins[0] != "IP-n162" {
		t.Error("duplicate shares list storage with the source")
	}
	d.Extra["vendor_key"] = "changed"
	if p.Extra["vendor_key"] != "v" {
		t.Error("duplicate shares Extra storage with the source")
	}
}

func TestPresetExportLoadRoundTrip(t *testing.T) {
	p := NewPreset("round_trip")
	p.WritingSpeed = 123456.0
	p.HatchingAngle = 15
	p.Extra = map[string]any{"custom_field": "kept"}

	dir := t.TempDir()
	path := filepath.Join(dir, "round_trip")
	if err := p.Export(path); err != nil {
		t.Fatal(err)
	}
	// Export appends the extension when missing.
	if _, err := os.Stat(path + ".toml"); err != nil {
		t.Fatalf("exported file: %v", err)
	}

	loaded, err := LoadPreset(path + ".toml")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "round_trip" {
		t.Errorf("name = %q", loaded.Name)
	}
	if loaded.ID == p.ID {
		t.Error("loaded preset kept the persisted id")
	}
	if loaded.WritingSpeed != 123456.0 || loaded.HatchingAngle != 15 {
		t.Error("numeric fields not restored")
	}
	if loaded.Extra["custom_field"] != "kept" {
		t.Error("unknown field not routed to Extra")
	}
}

func TestLoadPresetNameFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "from_file.toml")
	doc := "writing_speed = 50000.0\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPreset(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "from_file" {
		t.Errorf("name = %q, want %q", p.Name, "from_file")
	}
	if p.WritingSpeed != 50000.0 {
		t.Errorf("writing_speed = %v", p.WritingSpeed)
	}
}

func TestLoadPresetsList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.toml")
	doc := `
[[presets]]
name = "first"
writing_speed = 100000.0

[[presets]]
name = "second"
writing_power = 60.0
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := LoadPresets(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 presets, got %d", len(list))
	}
	if list[0].Name != "first" || list[0].WritingSpeed != 100000.0 {
		t.Error("first entry not decoded")
	}
	if list[1].Name != "second" || list[1].WritingPower != 60.0 {
		t.Error("second entry not decoded")
	}
	if list[0].ID == list[1].ID {
		t.Error("entries share an id")
	}
}

func TestLoadPresetDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.toml", "a.toml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("writing_speed = 1.0\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := LoadPresetDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 presets, got %d", len(list))
	}
	if list[0].Name != "a" || list[1].Name != "b" {
		t.Errorf("order = %q, %q", list[0].Name, list[1].Name)
	}
}
