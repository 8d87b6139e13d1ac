package model

import (
	"fmt"
	"os"
	"os/user"
	"time"
)

// Project is the root aggregate: the node hierarchy plus the preset and
// resource registries referenced by it. Presets and resources keep their
// registration order; that order is the order they appear in the emitted
// documents.
type Project struct {
	root      *Node
	presets   []*Preset
	resources []*Resource

	author    string
	createdAt time.Time
}

// NewProject creates a project for the given hardware configuration.
// Each selection must be a member of its closed vendor set or the
// wildcard "*".
func NewProject(objective, resin, substrate string) (*Project, error) {
	if err := memberOf("objective", objective, "25x", "63x", "*"); err != nil {
		return nil, err
	}
	if err := memberOf("resin", resin,
		"IP-PDMS", "IPX-S", "IP-L", "IP-n162", "IP-Dip2", "IP-Dip", "IP-S", "IP-Visio", "*"); err != nil {
		return nil, err
	}
	if err := memberOf("substrate", substrate, "*", "FuSi", "Si"); err != nil {
		return nil, err
	}
	root := newNode(KindProject, "Project", &ProjectData{
		Objective: objective,
		Resin:     resin,
		Substrate: substrate,
	})
	return &Project{
		root:      root,
		author:    currentUser(),
		createdAt: time.Now(),
	}, nil
}

func memberOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q", field, value)
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}

// Root returns the project root node.
func (p *Project) Root() *Node {
	return p.root
}

// SetAuthor overrides the author recorded in the project info document.
func (p *Project) SetAuthor(name string) {
	p.author = name
}

// Info returns the metadata document describing the project.
func (p *Project) Info() ProjectInfo {
	d := p.root.Data.(*ProjectData)
	return ProjectInfo{
		Author:       p.author,
		Objective:    d.Objective,
		Resist:       d.Resin,
		Substrate:    d.Substrate,
		CreationDate: p.createdAt.Format("2006-01-02T15:04:05"),
	}
}

// AddChild attaches a node under the project root.
func (p *Project) AddChild(child *Node) error {
	return p.root.AddChild(child)
}

// AppendNode attaches a node at the deepest last-child position of the
// hierarchy.
func (p *Project) AppendNode(node *Node) error {
	return p.root.AppendNode(node)
}

// Nodes returns the project root followed by all descendants in
// pre-order. This is the node order of the emitted documents.
func (p *Project) Nodes() []*Node {
	return append([]*Node{p.root}, p.root.Descendants()...)
}

// AddPreset registers a preset with the project. Registering the same
// preset twice is an error; two distinct presets under one name are not,
// matching the consuming application.
func (p *Project) AddPreset(preset *Preset) error {
	if preset == nil {
		return fmt.Errorf("add preset: nil preset")
	}
	if err := preset.Validate(); err != nil {
		return fmt.Errorf("add preset: %w", err)
	}
	for _, existing := range p.presets {
		if existing.ID == preset.ID {
			return fmt.Errorf("add preset: %q already registered", preset.Name)
		}
	}
	p.presets = append(p.presets, preset)
	return nil
}

// AddResource registers a resource with the project.
func (p *Project) AddResource(res *Resource) error {
	if res == nil {
		return fmt.Errorf("add resource: nil resource")
	}
	for _, existing := range p.resources {
		if existing.ID == res.ID {
			return fmt.Errorf("add resource: %q already registered", res.Name)
		}
	}
	p.resources = append(p.resources, res)
	return nil
}

// LoadPresets loads a preset document from disk and registers every
// preset it contains.
func (p *Project) LoadPresets(path string) ([]*Preset, error) {
	presets, err := LoadPresets(path)
	if err != nil {
		return nil, err
	}
	for _, preset := range presets {
		if err := p.AddPreset(preset); err != nil {
			return nil, err
		}
	}
	return presets, nil
}

// Presets returns the registered presets in registration order. The
// returned slice is a snapshot.
func (p *Project) Presets() []*Preset {
	out := make([]*Preset, len(p.presets))
	copy(out, p.presets)
	return out
}

// Resources returns the registered resources in registration order. The
// returned slice is a snapshot.
func (p *Project) Resources() []*Resource {
	out := make([]*Resource, len(p.resources))
	copy(out, p.resources)
	return out
}

// PresetByName returns the first registered preset with the given name,
// or nil.
func (p *Project) PresetByName(name string) *Preset {
	for _, preset := range p.presets {
		if preset.Name == name {
			return preset
		}
	}
	return nil
}

// ResourceByName returns the first registered resource with the given
// name, or nil.
func (p *Project) ResourceByName(name string) *Resource {
	for _, res := range p.resources {
		if res.Name == name {
			return res
		}
	}
	return nil
}
