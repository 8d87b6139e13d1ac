package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/mtarnawa/nanoweave/pkg/ident"
)

// Preset is a named bag of writing and hatching parameters reusable
// across structures. The known vendor fields are typed; anything else a
// preset document carries rides along in Extra and is emitted verbatim.
type Preset struct {
	ID   ident.ID
	Name string

	ValidObjectives []string
	ValidResins     []string
	ValidSubstrates []string

	WritingSpeed            float64
	WritingPower            float64
	SlicingSpacing          float64
	HatchingSpacing         float64
	HatchingAngle           float64
	HatchingAngleIncrement  float64
	HatchingOffset          float64
	HatchingOffsetIncrement float64
	HatchingBackNForth      bool
	MeshZOffset             float64

	GrayscaleMultilayerEnabled    bool
	GrayscaleLayerProfileNrLayers float64
	GrayscaleWritingPowerMinimum  float64
	GrayscaleExponent             float64

	Extra map[string]any
}

// NewPreset creates a preset with the vendor defaults under the given
// name.
func NewPreset(name string) *Preset {
	if name == "" {
		name = "25x_IP-n162"
	}
	return &Preset{
		ID:              ident.New(),
		Name:            name,
		ValidObjectives: []string{"25x"},
		ValidResins:     []string{"IP-n162"},
		ValidSubstrates: []string{"*"},

		WritingSpeed:    250000.0,
		WritingPower:    50.0,
		SlicingSpacing:  0.8,
		HatchingSpacing: 0.3,

		HatchingBackNForth: true,

		GrayscaleLayerProfileNrLayers: 6,
		GrayscaleExponent:             1.0,
	}
}

// Validate checks the compatibility lists against the closed vendor sets.
// The wildcard "*" is always accepted.
func (p *Preset) Validate() error {
	if err := subsetOf("valid_objectives", p.ValidObjectives, "25x", "63x", "*"); err != nil {
		return err
	}
	if err := subsetOf("valid_resins", p.ValidResins,
		"IP-PDMS", "IPX-S", "IP-L", "IP-n162", "IP-Dip2", "IP-Dip", "IP-S", "IP-Visio", "*"); err != nil {
		return err
	}
	if err := subsetOf("valid_substrates", p.ValidSubstrates, "*", "FuSi", "Si"); err != nil {
		return err
	}
	if p.WritingSpeed <= 0 {
		return fmt.Errorf("preset %q: writing_speed must be positive", p.Name)
	}
	if p.WritingPower < 0 {
		return fmt.Errorf("preset %q: writing_power must not be negative", p.Name)
	}
	if p.SlicingSpacing <= 0 || p.HatchingSpacing <= 0 {
		return fmt.Errorf("preset %q: slicing and hatching spacing must be positive", p.Name)
	}
	return nil
}

func subsetOf(field string, values []string, allowed ...string) error {
	for _, v := range values {
		ok := false
		for _, a := range allowed {
			if v == a {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("invalid %s entry %q", field, v)
		}
	}
	return nil
}

// SetGrayscaleMultilayer enables grayscale multilayer exposure with the
// given profile.
func (p *Preset) SetGrayscaleMultilayer(nrLayers, writingPowerMinimum, exponent float64) error {
	if nrLayers < 0 {
		return fmt.Errorf("preset %q: grayscale layer count must not be negative", p.Name)
	}
	if writingPowerMinimum < 0 {
		return fmt.Errorf("preset %q: grayscale writing power minimum must not be negative", p.Name)
	}
	if exponent <= 0 {
		return fmt.Errorf("preset %q: grayscale exponent must be positive", p.Name)
	}
	p.GrayscaleMultilayerEnabled = true
	p.GrayscaleLayerProfileNrLayers = nrLayers
	p.GrayscaleWritingPowerMinimum = writingPowerMinimum
	p.GrayscaleExponent = exponent
	return nil
}

// Duplicate returns a copy of the preset under a fresh identifier.
func (p *Preset) Duplicate() *Preset {
	c := *p
	c.ID = ident.New()
	c.ValidObjectives = append([]string(nil), p.ValidObjectives...)
	c.ValidResins = append([]string(nil), p.ValidResins...)
	c.ValidSubstrates = append([]string(nil), p.ValidSubstrates...)
	if p.Extra != nil {
		c.Extra = copyValueMap(p.Extra)
	}
	return &c
}

// LoadPreset loads a single preset from a persisted preset document.
// A missing name field falls back to the file name. The loaded preset
// always receives a fresh identifier.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load preset: %w", err)
	}
	var fields map[string]any
	if err := toml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("load preset %s: %w", path, err)
	}
	p := presetFromFields(fields)
	if p.Name == "" || p.Name == "25x_IP-n162" {
		if _, ok := fields["name"]; !ok {
			base := filepath.Base(path)
			p.Name = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("load preset %s: %w", path, err)
	}
	return p, nil
}

// LoadPresets loads every preset from a document that carries a
// [[presets]] list. A document without such a list is treated as a
// single-preset document.
func LoadPresets(path string) ([]*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	var doc struct {
		Presets []map[string]any `toml:"presets"`
	}
	if err := toml.Unmarshal(data, &doc); err == nil && len(doc.Presets) > 0 {
		out := make([]*Preset, 0, len(doc.Presets))
		for i, fields := range doc.Presets {
			p := presetFromFields(fields)
			if err := p.Validate(); err != nil {
				return nil, fmt.Errorf("load presets %s: entry %d: %w", path, i, err)
			}
			out = append(out, p)
		}
		return out, nil
	}
	p, err := LoadPreset(path)
	if err != nil {
		return nil, err
	}
	return []*Preset{p}, nil
}

// LoadPresetDir loads every *.toml preset document in a directory, in
// lexical file-name order.
func LoadPresetDir(dir string) ([]*Preset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load preset dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".toml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []*Preset
	for _, name := range names {
		p, err := LoadPreset(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// presetFromFields builds a preset from a parsed document, routing known
// keys to their typed fields and everything else to Extra.
func presetFromFields(fields map[string]any) *Preset {
	p := NewPreset("")
	for key, val := range fields {
		switch key {
		case "id":
			// Persisted ids are ignored; loaded presets are new entities.
		case "name":
			if s, ok := val.(string); ok {
				p.Name = s
			}
		case "valid_objectives":
			p.ValidObjectives = toStringList(val)
		case "valid_resins":
			p.ValidResins = toStringList(val)
		case "valid_substrates":
			p.ValidSubstrates = toStringList(val)
		case "writing_speed":
			p.WritingSpeed = toNumber(val, p.WritingSpeed)
		case "writing_power":
			p.WritingPower = toNumber(val, p.WritingPower)
		case "slicing_spacing":
			p.SlicingSpacing = toNumber(val, p.SlicingSpacing)
		case "hatching_spacing":
			p.HatchingSpacing = toNumber(val, p.HatchingSpacing)
		case "hatching_angle":
			p.HatchingAngle = toNumber(val, p.HatchingAngle)
		case "hatching_angle_increment":
			p.HatchingAngleIncrement = toNumber(val, p.HatchingAngleIncrement)
		case "hatching_offset":
			p.HatchingOffset = toNumber(val, p.HatchingOffset)
		case "hatching_offset_increment":
			p.HatchingOffsetIncrement = toNumber(val, p.HatchingOffsetIncrement)
		case "hatching_back_n_forth":
			if b, ok := val.(bool); ok {
				p.HatchingBackNForth = b
			}
		case "mesh_z_offset":
			p.MeshZOffset = toNumber(val, p.MeshZOffset)
		case "grayscale_multilayer_enabled":
			if b, ok := val.(bool); ok {
				p.GrayscaleMultilayerEnabled = b
			}
		case "grayscale_layer_profile_nr_layers":
			p.GrayscaleLayerProfileNrLayers = toNumber(val, p.GrayscaleLayerProfileNrLayers)
		case "grayscale_writing_power_minimum":
			p.GrayscaleWritingPowerMinimum = toNumber(val, p.GrayscaleWritingPowerMinimum)
		case "grayscale_exponent":
			p.GrayscaleExponent = toNumber(val, p.GrayscaleExponent)
		default:
			if p.Extra == nil {
				p.Extra = make(map[string]any)
			}
			p.Extra[key] = val
		}
	}
	return p
}

// Export writes the preset as a standalone document loadable by both the
// vendor application and LoadPreset.
func (p *Preset) Export(path string) error {
	if !strings.HasSuffix(path, ".toml") {
		path += ".toml"
	}
	data, err := toml.Marshal(p.Fields())
	if err != nil {
		return fmt.Errorf("export preset %q: %w", p.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export preset %q: %w", p.Name, err)
	}
	return nil
}

// Fields returns the preset as the flat field map used by the emitted
// documents, Extra merged in.
func (p *Preset) Fields() map[string]any {
	m := map[string]any{
		"id":                                string(p.ID),
		"name":                              p.Name,
		"valid_objectives":                  p.ValidObjectives,
		"valid_resins":                      p.ValidResins,
		"valid_substrates":                  p.ValidSubstrates,
		"writing_speed":                     p.WritingSpeed,
		"writing_power":                     p.WritingPower,
		"slicing_spacing":                   p.SlicingSpacing,
		"hatching_spacing":                  p.HatchingSpacing,
		"hatching_angle":                    p.HatchingAngle,
		"hatching_angle_increment":          p.HatchingAngleIncrement,
		"hatching_offset":                   p.HatchingOffset,
		"hatching_offset_increment":         p.HatchingOffsetIncrement,
		"hatching_back_n_forth":             p.HatchingBackNForth,
		"mesh_z_offset":                     p.MeshZOffset,
		"grayscale_multilayer_enabled":      p.GrayscaleMultilayerEnabled,
		"grayscale_layer_profile_nr_layers": p.GrayscaleLayerProfileNrLayers,
		"grayscale_writing_power_minimum":   p.GrayscaleWritingPowerMinimum,
		"grayscale_exponent":                p.GrayscaleExponent,
	}
	for k, v := range p.Extra {
		m[k] = v
	}
	return m
}

// toStringList coerces a decoded TOML value into a string list; a bare
// string becomes a single-element list.
func toStringList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string(nil), t...)
	}
	return nil
}

// toNumber coerces a decoded TOML value into a float64, keeping def when
// the value is not numeric.
func toNumber(v any, def float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	}
	return def
}
