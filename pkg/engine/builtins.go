package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/mtarnawa/nanoweave/pkg/model"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms script source before passing it to zygomys.
// It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: coarse-aligner -> coarse_aligner
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when the hyphen sits between identifier characters.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNode wraps a *model.Node so node references flow between builtins.
type sexpNode struct {
	node *model.Node
}

func (s *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(node %q %s)", s.node.Name, s.node.Kind)
}
func (s *sexpNode) Type() *zygo.RegisteredType { return nil }

// sexpPreset wraps a *model.Preset.
type sexpPreset struct {
	preset *model.Preset
}

func (s *sexpPreset) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(preset %q)", s.preset.Name)
}
func (s *sexpPreset) Type() *zygo.RegisteredType { return nil }

// sexpResource wraps a *model.Resource.
type sexpResource struct {
	res *model.Resource
}

func (s *sexpResource) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(resource %q %s)", s.res.Name, s.res.Type)
}
func (s *sexpResource) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a model.Vec3.
type sexpVec3 struct {
	vec model.Vec3
}

func (s *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", s.vec.X, s.vec.Y, s.vec.Z)
}
func (s *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// string extracts a named keyword argument as a string, keeping def when
// the keyword is absent.
func (a kwArgs) string(name, def string) (string, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	s, err := toKeywordString(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

func (a kwArgs) float(name string, def float64) (float64, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func (a kwArgs) integer(name string, def int) (int, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return int(f), nil
}

func (a kwArgs) boolean(name string, def bool) (bool, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}

func (a kwArgs) vec3(name string, def model.Vec3) (model.Vec3, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return model.Vec3{}, fmt.Errorf("%s: %w", name, err)
	}
	return vec, nil
}

func (a kwArgs) vec2(name string, def model.Vec2) (model.Vec2, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	vec, err := toVec2(v)
	if err != nil {
		return model.Vec2{}, fmt.Errorf("%s: %w", name, err)
	}
	return vec, nil
}

func (a kwArgs) int2(name string, def model.Int2) (model.Int2, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	vec, err := toInt2(v)
	if err != nil {
		return model.Int2{}, fmt.Errorf("%s: %w", name, err)
	}
	return vec, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_abort) and plain strings ("abort").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toBool extracts a bool from a Sexp.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected bool, got %T (%s)", s, s.SexpString(nil))
}

// toNode extracts the wrapped node from a sexpNode.
func toNode(s zygo.Sexp) (*model.Node, error) {
	if ref, ok := s.(*sexpNode); ok {
		return ref.node, nil
	}
	return nil, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// toPreset extracts the wrapped preset from a sexpPreset.
func toPreset(s zygo.Sexp) (*model.Preset, error) {
	if ref, ok := s.(*sexpPreset); ok {
		return ref.preset, nil
	}
	return nil, fmt.Errorf("expected preset, got %T (%s)", s, s.SexpString(nil))
}

// toResource extracts the wrapped resource from a sexpResource.
func toResource(s zygo.Sexp) (*model.Resource, error) {
	if ref, ok := s.(*sexpResource); ok {
		return ref.res, nil
	}
	return nil, fmt.Errorf("expected resource, got %T (%s)", s, s.SexpString(nil))
}

// toFloatSlice converts a Lisp list or array of numbers to a Go slice.
func toFloatSlice(s zygo.Sexp) ([]float64, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, err := toFloat64(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// toVec3 extracts a Vec3 from a sexpVec3 or a 3-element list of numbers.
func toVec3(s zygo.Sexp) (model.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	vals, err := toFloatSlice(s)
	if err != nil {
		return model.Vec3{}, fmt.Errorf("expected vec3 or 3-element list: %w", err)
	}
	if len(vals) != 3 {
		return model.Vec3{}, fmt.Errorf("expected 3 elements, got %d", len(vals))
	}
	return model.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// toVec2 extracts a Vec2 from a 2-element list of numbers.
func toVec2(s zygo.Sexp) (model.Vec2, error) {
	vals, err := toFloatSlice(s)
	if err != nil {
		return model.Vec2{}, fmt.Errorf("expected 2-element list: %w", err)
	}
	if len(vals) != 2 {
		return model.Vec2{}, fmt.Errorf("expected 2 elements, got %d", len(vals))
	}
	return model.Vec2{X: vals[0], Y: vals[1]}, nil
}

// toInt2 extracts an Int2 from a 2-element list of numbers.
func toInt2(s zygo.Sexp) (model.Int2, error) {
	v, err := toVec2(s)
	if err != nil {
		return model.Int2{}, err
	}
	return model.Int2{X: int(v.X), Y: int(v.Y)}, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// buildState accumulates the project under construction during one
// evaluation. Presets and resources register with the project as they are
// created, so the project builtin must run first.
type buildState struct {
	project *model.Project
}

func (st *buildState) requireProject(builtin string) error {
	if st.project == nil {
		return fmt.Errorf("%s: no project defined yet; call (project ...) first", builtin)
	}
	return nil
}

// applyPlacement applies the :position and :rotation keywords common to
// all node constructors.
func applyPlacement(n *model.Node, pa kwArgs) error {
	pos, err := pa.vec3("position", n.Position)
	if err != nil {
		return err
	}
	rot, err := pa.vec3("rotation", n.Rotation)
	if err != nil {
		return err
	}
	n.Position = pos
	n.Rotation = rot
	return nil
}

// registerBuiltins installs the project DSL into a zygomys environment.
// Builtins operate on the provided buildState, populating the project
// during evaluation. Source must be preprocessed with preprocessSource
// before loading so :keyword tokens become recognizable string literals.
//
// Hyphenated DSL names are registered in underscore form; the
// preprocessor rewrites the hyphenated spelling in user source.
func registerBuiltins(env *zygo.Zlisp, st *buildState) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}
		return &sexpVec3{vec: model.Vec3{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (project :objective "25x" :resin "IP-n162" :substrate "FuSi")
	// -----------------------------------------------------------------------
	env.AddFunction("project", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if st.project != nil {
			return zygo.SexpNull, fmt.Errorf("project: already defined; a script describes exactly one project")
		}
		pa := parseArgs(args)
		objective, err := pa.string("objective", "*")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("project: %w", err)
		}
		resin, err := pa.string("resin", "*")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("project: %w", err)
		}
		substrate, err := pa.string("substrate", "*")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("project: %w", err)
		}
		p, err := model.NewProject(objective, resin, substrate)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("project: %w", err)
		}
		if author, err := pa.string("author", ""); err == nil && author != "" {
			p.SetAuthor(author)
		}
		st.project = p
		return &sexpNode{node: p.Root()}, nil
	})

	// -----------------------------------------------------------------------
	// (preset "p1" :writing-speed 250000.0 :writing-power 50.0 ...)
	// -----------------------------------------------------------------------
	env.AddFunction("preset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := st.requireProject("preset"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		presetName := ""
		if len(pa.positional) > 0 {
			n, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("preset: name: %w", err)
			}
			presetName = n
		}
		p := model.NewPreset(presetName)
		type floatField struct {
			key string
			dst *float64
		}
		for _, f := range []floatField{
			{"writing_speed", &p.WritingSpeed},
			{"writing_power", &p.WritingPower},
			{"slicing_spacing", &p.SlicingSpacing},
			{"hatching_spacing", &p.HatchingSpacing},
			{"hatching_angle", &p.HatchingAngle},
			{"hatching_angle_increment", &p.HatchingAngleIncrement},
			{"hatching_offset", &p.HatchingOffset},
			{"hatching_offset_increment", &p.HatchingOffsetIncrement},
			{"mesh_z_offset", &p.MeshZOffset},
		} {
			v, err := pa.float(f.key, *f.dst)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("preset: %w", err)
			}
			*f.dst = v
		}
		backNForth, err := pa.boolean("hatching_back_n_forth", p.HatchingBackNForth)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("preset: %w", err)
		}
		p.HatchingBackNForth = backNForth
		if err := st.project.AddPreset(p); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPreset{preset: p}, nil
	})

	// -----------------------------------------------------------------------
	// (load-preset "25x_IP-n162.toml")
	// -----------------------------------------------------------------------
	env.AddFunction("load_preset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := st.requireProject("load-preset"); err != nil {
			return zygo.SexpNull, err
		}
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("load-preset requires a file path")
		}
		path, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("load-preset: %w", err)
		}
		p, err := model.LoadPreset(path)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := st.project.AddPreset(p); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPreset{preset: p}, nil
	})

	// -----------------------------------------------------------------------
	// (mesh "cube.stl" :name "cube" :scale (vec3 1 1 1) :auto-center true)
	// -----------------------------------------------------------------------
	env.AddFunction("mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := st.requireProject("mesh"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("mesh requires a file path")
		}
		path, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: path: %w", err)
		}
		meshName, err := pa.string("name", "mesh")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: %w", err)
		}
		opts := model.MeshOptions{}
		if opts.Translation, err = pa.vec3("translation", model.Vec3{}); err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: %w", err)
		}
		if opts.Rotation, err = pa.vec3("rotation", model.Vec3{}); err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: %w", err)
		}
		if v, ok := pa.kw["scale"]; ok {
			scale, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mesh: scale: %w", err)
			}
			opts.Scale = &scale
		}
		if opts.AutoCenter, err = pa.boolean("auto_center", false); err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: %w", err)
		}
		if v, ok := pa.kw["enhance_mesh"]; ok {
			enhance, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mesh: enhance-mesh: %w", err)
			}
			opts.EnhanceMesh = &enhance
		}
		if opts.SimplifyMesh, err = pa.boolean("simplify_mesh", false); err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: %w", err)
		}
		if opts.TargetRatio, err = pa.float("target_ratio", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: %w", err)
		}
		r, err := model.NewMesh(path, meshName, opts)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := st.project.AddResource(r); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpResource{res: r}, nil
	})

	// -----------------------------------------------------------------------
	// (image "marker.png" :name "marker")
	// -----------------------------------------------------------------------
	env.AddFunction("image", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := st.requireProject("image"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("image requires a file path")
		}
		path, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("image: path: %w", err)
		}
		imgName, err := pa.string("name", "image")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("image: %w", err)
		}
		r, err := model.NewImage(path, imgName)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := st.project.AddResource(r); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpResource{res: r}, nil
	})

	// -----------------------------------------------------------------------
	// (scene :name "Scene" :writing-direction-upward true)
	// -----------------------------------------------------------------------
	env.AddFunction("scene", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		sceneName, err := pa.string("name", "Scene")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %w", err)
		}
		upward, err := pa.boolean("writing_direction_upward", true)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %w", err)
		}
		n := model.NewScene(sceneName, upward)
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("scene: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	// -----------------------------------------------------------------------
	// (group :name "Group")
	// -----------------------------------------------------------------------
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		groupName, err := pa.string("name", "Group")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: %w", err)
		}
		n := model.NewGroup(groupName)
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("group: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	// -----------------------------------------------------------------------
	// (array :name "Array" :count (list 5 5) :spacing (list 100 100)
	//        :order "Lexical" :shape "Rectangular")
	// -----------------------------------------------------------------------
	env.AddFunction("array", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		arrName, err := pa.string("name", "Array")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("array: %w", err)
		}
		count, err := pa.int2("count", model.Int2{X: 5, Y: 5})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("array: %w", err)
		}
		spacing, err := pa.vec2("spacing", model.Vec2{X: 100, Y: 100})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("array: %w", err)
		}
		order, err := pa.string("order", "Lexical")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("array: %w", err)
		}
		shape, err := pa.string("shape", "Rectangular")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("array: %w", err)
		}
		n, err := model.NewArray(arrName, count, spacing, order, shape)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("array: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	// -----------------------------------------------------------------------
	// (structure preset mesh :name "s" :size (vec3 100 100 100)
	//            :slicing-origin "scene_bottom" :priority 0)
	// -----------------------------------------------------------------------
	env.AddFunction("structure", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var preset *model.Preset
		var meshRes *model.Resource
		if len(pa.positional) > 0 {
			p, err := toPreset(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("structure: preset: %w", err)
			}
			preset = p
		}
		if len(pa.positional) > 1 {
			r, err := toResource(pa.positional[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("structure: mesh: %w", err)
			}
			meshRes = r
		}
		structName, err := pa.string("name", "Structure")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("structure: %w", err)
		}
		slicing, err := slicingFromArgs(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("structure: %w", err)
		}
		n, err := model.NewStructure(structName, preset, meshRes, slicing)
		if err != nil {
			return zygo.SexpNull, err
		}
		if size, err := pa.vec3("size", model.Vec3{X: 100, Y: 100, Z: 100}); err != nil {
			return zygo.SexpNull, fmt.Errorf("structure: %w", err)
		} else {
			n.Data.(*model.StructureData).Size = size
		}
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("structure: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	// -----------------------------------------------------------------------
	// (text preset :text "hello" :font-size 10 :height 5)
	// -----------------------------------------------------------------------
	env.AddFunction("text", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var preset *model.Preset
		if len(pa.positional) > 0 {
			p, err := toPreset(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("text: preset: %w", err)
			}
			preset = p
		}
		textName, err := pa.string("name", "Text")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("text: %w", err)
		}
		content, err := pa.string("text", "Text")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("text: %w", err)
		}
		fontSize, err := pa.float("font_size", 10)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("text: %w", err)
		}
		height, err := pa.float("height", 5)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("text: %w", err)
		}
		slicing, err := slicingFromArgs(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("text: %w", err)
		}
		n, err := model.NewText(textName, preset, content, fontSize, height, slicing)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("text: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	// -----------------------------------------------------------------------
	// (lens preset :radius 100 :height 50 :curvature 0.01)
	// -----------------------------------------------------------------------
	env.AddFunction("lens", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var preset *model.Preset
		if len(pa.positional) > 0 {
			p, err := toPreset(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("lens: preset: %w", err)
			}
			preset = p
		}
		lensName, err := pa.string("name", "Lens")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		opts := model.LensOptions{}
		if opts.Radius, err = pa.float("radius", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		if opts.Height, err = pa.float("height", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		if opts.CropBase, err = pa.boolean("crop_base", false); err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		if opts.Asymmetric, err = pa.boolean("asymmetric", false); err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		if opts.Curvature, err = pa.float("curvature", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		if opts.ConicConstant, err = pa.float("conic_constant", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		if opts.CurvatureY, err = pa.float("curvature_y", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		if opts.ConicConstantY, err = pa.float("conic_constant_y", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		if opts.NrRadialSegments, err = pa.integer("nr_radial_segments", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		if opts.NrPhiSegments, err = pa.integer("nr_phi_segments", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		slicing, err := slicingFromArgs(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		n, err := model.NewLens(lensName, preset, opts, slicing)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("lens: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	// -----------------------------------------------------------------------
	// (coarse-aligner :name "Coarse aligner" :residual-threshold 10.0)
	// (add-coarse-anchor aligner "anchor 0" (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("coarse_aligner", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		alName, err := pa.string("name", "Coarse aligner")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("coarse-aligner: %w", err)
		}
		threshold, err := pa.float("residual_threshold", 10.0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("coarse-aligner: %w", err)
		}
		n, err := model.NewCoarseAligner(alName, threshold)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("coarse-aligner: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	env.AddFunction("add_coarse_anchor", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 3 {
			return zygo.SexpNull, fmt.Errorf("add-coarse-anchor requires aligner, label and position")
		}
		n, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-coarse-anchor: %w", err)
		}
		label, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-coarse-anchor: label: %w", err)
		}
		pos, err := toVec3(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-coarse-anchor: position: %w", err)
		}
		if err := n.AddCoarseAnchor(label, pos); err != nil {
			return zygo.SexpNull, err
		}
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (interface-aligner :name "Interface aligner" :signal-type "auto")
	// (set-grid aligner (list 5 5) (list 200 200))
	// (add-interface-anchor aligner "a0" (list 0 0) :scan-area-size (list 10 10))
	// -----------------------------------------------------------------------
	env.AddFunction("interface_aligner", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		alName, err := pa.string("name", "Interface aligner")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("interface-aligner: %w", err)
		}
		opts := model.InterfaceAlignerOptions{}
		if opts.SignalType, err = pa.string("signal_type", ""); err != nil {
			return zygo.SexpNull, fmt.Errorf("interface-aligner: %w", err)
		}
		if opts.DetectorType, err = pa.string("detector_type", ""); err != nil {
			return zygo.SexpNull, fmt.Errorf("interface-aligner: %w", err)
		}
		if opts.ActionUponFailure, err = pa.string("action_upon_failure", ""); err != nil {
			return zygo.SexpNull, fmt.Errorf("interface-aligner: %w", err)
		}
		if opts.MeasureTilt, err = pa.boolean("measure_tilt", false); err != nil {
			return zygo.SexpNull, fmt.Errorf("interface-aligner: %w", err)
		}
		if opts.AreaMeasurement, err = pa.boolean("area_measurement", false); err != nil {
			return zygo.SexpNull, fmt.Errorf("interface-aligner: %w", err)
		}
		if v, ok := pa.kw["center_stage"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("interface-aligner: center-stage: %w", err)
			}
			opts.CenterStage = &b
		}
		if opts.LaserPower, err = pa.float("laser_power", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("interface-aligner: %w", err)
		}
		if v, ok := pa.kw["scan_area_res_factors"]; ok {
			vec, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("interface-aligner: scan-area-res-factors: %w", err)
			}
			opts.ScanAreaResFactors = &vec
		}
		if opts.ScanZSampleDistance, err = pa.float("scan_z_sample_distance", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("interface-aligner: %w", err)
		}
		if opts.ScanZSampleCount, err = pa.integer("scan_z_sample_count", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("interface-aligner: %w", err)
		}
		n, err := model.NewInterfaceAligner(alName, opts)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("interface-aligner: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	env.AddFunction("set_grid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 3 {
			return zygo.SexpNull, fmt.Errorf("set-grid requires aligner, count and size")
		}
		n, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("set-grid: %w", err)
		}
		count, err := toInt2(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("set-grid: count: %w", err)
		}
		size, err := toVec2(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("set-grid: size: %w", err)
		}
		if err := n.SetGrid(count, size); err != nil {
			return zygo.SexpNull, err
		}
		return args[0], nil
	})

	env.AddFunction("add_interface_anchor", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 3 {
			return zygo.SexpNull, fmt.Errorf("add-interface-anchor requires aligner, label and position")
		}
		n, err := toNode(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-interface-anchor: %w", err)
		}
		label, err := toString(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-interface-anchor: label: %w", err)
		}
		pos, err := toVec2(pa.positional[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-interface-anchor: position: %w", err)
		}
		scanArea, err := pa.vec2("scan_area_size", model.Vec2{X: 10, Y: 10})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-interface-anchor: %w", err)
		}
		if err := n.AddInterfaceAnchor(label, pos, scanArea); err != nil {
			return zygo.SexpNull, err
		}
		return pa.positional[0], nil
	})

	// -----------------------------------------------------------------------
	// (marker-aligner image :marker-size (list 10 10) :name "Marker aligner")
	// (add-marker aligner "m0" 0.0 (list 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("marker_aligner", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("marker-aligner requires an image resource")
		}
		img, err := toResource(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("marker-aligner: image: %w", err)
		}
		alName, err := pa.string("name", "Marker aligner")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("marker-aligner: %w", err)
		}
		markerSize, err := pa.vec2("marker_size", model.Vec2{X: 10, Y: 10})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("marker-aligner: %w", err)
		}
		opts := model.MarkerAlignerOptions{}
		if opts.ActionUponFailure, err = pa.string("action_upon_failure", ""); err != nil {
			return zygo.SexpNull, fmt.Errorf("marker-aligner: %w", err)
		}
		if opts.LaserPower, err = pa.float("laser_power", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("marker-aligner: %w", err)
		}
		if v, ok := pa.kw["scan_area_size"]; ok {
			vec, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("marker-aligner: scan-area-size: %w", err)
			}
			opts.ScanAreaSize = &vec
		}
		if opts.DetectionMargin, err = pa.float("detection_margin", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("marker-aligner: %w", err)
		}
		if opts.CorrelationThreshold, err = pa.float("correlation_threshold", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("marker-aligner: %w", err)
		}
		if opts.ResidualThreshold, err = pa.float("residual_threshold", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("marker-aligner: %w", err)
		}
		if opts.MaxOutliers, err = pa.integer("max_outliers", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("marker-aligner: %w", err)
		}
		if opts.MeasureZ, err = pa.boolean("measure_z", false); err != nil {
			return zygo.SexpNull, fmt.Errorf("marker-aligner: %w", err)
		}
		n, err := model.NewMarkerAligner(img, alName, markerSize, opts)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("marker-aligner: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	env.AddFunction("add_marker", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 4 {
			return zygo.SexpNull, fmt.Errorf("add-marker requires aligner, label, rotation and position")
		}
		n, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-marker: %w", err)
		}
		label, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-marker: label: %w", err)
		}
		rotation, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-marker: rotation: %w", err)
		}
		pos, err := toVec2(args[3])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-marker: position: %w", err)
		}
		if err := n.AddMarker(label, rotation, pos); err != nil {
			return zygo.SexpNull, err
		}
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (edge-aligner :edge-location (list 0 0) :edge-orientation 0.0)
	// (add-measurement aligner "e0" 0.0 (list 50 10))
	// -----------------------------------------------------------------------
	env.AddFunction("edge_aligner", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		alName, err := pa.string("name", "Edge aligner")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edge-aligner: %w", err)
		}
		opts := model.EdgeAlignerOptions{}
		if opts.EdgeLocation, err = pa.vec2("edge_location", model.Vec2{}); err != nil {
			return zygo.SexpNull, fmt.Errorf("edge-aligner: %w", err)
		}
		if opts.EdgeOrientation, err = pa.float("edge_orientation", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("edge-aligner: %w", err)
		}
		if opts.ActionUponFailure, err = pa.string("action_upon_failure", ""); err != nil {
			return zygo.SexpNull, fmt.Errorf("edge-aligner: %w", err)
		}
		if opts.LaserPower, err = pa.float("laser_power", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("edge-aligner: %w", err)
		}
		if opts.OutlierThreshold, err = pa.float("outlier_threshold", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("edge-aligner: %w", err)
		}
		n, err := model.NewEdgeAligner(alName, opts)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("edge-aligner: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	env.AddFunction("add_measurement", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 4 {
			return zygo.SexpNull, fmt.Errorf("add-measurement requires aligner, label, offset and scan area size")
		}
		n, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-measurement: %w", err)
		}
		label, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-measurement: label: %w", err)
		}
		offset, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-measurement: offset: %w", err)
		}
		scanArea, err := toVec2(args[3])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-measurement: scan-area-size: %w", err)
		}
		if err := n.AddMeasurement(label, offset, scanArea); err != nil {
			return zygo.SexpNull, err
		}
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (fiber-aligner :name "Fiber aligner" :fiber-radius 63.5)
	// (measure-tilt aligner (list 10 100) 100 1)
	// -----------------------------------------------------------------------
	env.AddFunction("fiber_aligner", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		alName, err := pa.string("name", "Fiber aligner")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fiber-aligner: %w", err)
		}
		opts := model.FiberAlignerOptions{}
		if opts.FiberRadius, err = pa.float("fiber_radius", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("fiber-aligner: %w", err)
		}
		if opts.ActionUponFailure, err = pa.string("action_upon_failure", ""); err != nil {
			return zygo.SexpNull, fmt.Errorf("fiber-aligner: %w", err)
		}
		if opts.IlluminationName, err = pa.string("illumination_name", ""); err != nil {
			return zygo.SexpNull, fmt.Errorf("fiber-aligner: %w", err)
		}
		if opts.CoreSignalLowerThreshold, err = pa.float("core_signal_lower_threshold", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("fiber-aligner: %w", err)
		}
		if v, ok := pa.kw["core_signal_range"]; ok {
			vec, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("fiber-aligner: core-signal-range: %w", err)
			}
			opts.CoreSignalRange = &vec
		}
		if opts.DetectionMargin, err = pa.float("detection_margin", 0); err != nil {
			return zygo.SexpNull, fmt.Errorf("fiber-aligner: %w", err)
		}
		n, err := model.NewFiberAligner(alName, opts)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("fiber-aligner: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	env.AddFunction("measure_tilt", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 4 {
			return zygo.SexpNull, fmt.Errorf("measure-tilt requires aligner, z-scan range, sample count and scan count")
		}
		n, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("measure-tilt: %w", err)
		}
		zRange, err := toVec2(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("measure-tilt: z-scan-range: %w", err)
		}
		sampleCount, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("measure-tilt: sample count: %w", err)
		}
		scanCount, err := toFloat64(args[3])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("measure-tilt: scan count: %w", err)
		}
		if err := n.MeasureTilt(zRange, int(sampleCount), int(scanCount)); err != nil {
			return zygo.SexpNull, err
		}
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (dose-compensation :edge-location (vec3 0 0 0) :edge-orientation 0
	//                    :domain-size (vec3 200 100 100) :gain-limit 2.0)
	// -----------------------------------------------------------------------
	env.AddFunction("dose_compensation", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		dcName, err := pa.string("name", "Dose compensation 1")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("dose-compensation: %w", err)
		}
		edgeLocation, err := pa.vec3("edge_location", model.Vec3{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("dose-compensation: %w", err)
		}
		edgeOrientation, err := pa.float("edge_orientation", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("dose-compensation: %w", err)
		}
		domainSize, err := pa.vec3("domain_size", model.Vec3{X: 200, Y: 100, Z: 100})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("dose-compensation: %w", err)
		}
		gainLimit, err := pa.float("gain_limit", 2.0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("dose-compensation: %w", err)
		}
		n, err := model.NewDoseCompensation(dcName, edgeLocation, edgeOrientation, domainSize, gainLimit)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("dose-compensation: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	// -----------------------------------------------------------------------
	// (capture :name "Capture")
	// (confocal capture :laser-power 0.5 :scan-area-size (list 100 100))
	// -----------------------------------------------------------------------
	env.AddFunction("capture", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		capName, err := pa.string("name", "Capture")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("capture: %w", err)
		}
		n := model.NewCapture(capName)
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("capture: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	env.AddFunction("confocal", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("confocal requires a capture node")
		}
		n, err := toNode(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("confocal: %w", err)
		}
		laserPower, err := pa.float("laser_power", 0.5)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("confocal: %w", err)
		}
		scanAreaSize, err := pa.vec2("scan_area_size", model.Vec2{X: 100, Y: 100})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("confocal: %w", err)
		}
		refFactors, err := pa.vec2("scan_area_ref_factors", model.Vec2{X: 1, Y: 1})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("confocal: %w", err)
		}
		if err := n.ConfocalCapture(laserPower, scanAreaSize, refFactors); err != nil {
			return zygo.SexpNull, err
		}
		return pa.positional[0], nil
	})

	// -----------------------------------------------------------------------
	// (stage-move :stage-position (vec3 0 0 100))
	// -----------------------------------------------------------------------
	env.AddFunction("stage_move", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		smName, err := pa.string("name", "Stage move")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stage-move: %w", err)
		}
		target, err := pa.vec3("stage_position", model.Vec3{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stage-move: %w", err)
		}
		n := model.NewStageMove(smName, target)
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("stage-move: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	// -----------------------------------------------------------------------
	// (wait :time 2.0)
	// -----------------------------------------------------------------------
	env.AddFunction("wait", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		wName, err := pa.string("name", "Wait")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wait: %w", err)
		}
		waitTime, err := pa.float("time", 1.0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wait: %w", err)
		}
		n, err := model.NewWait(wName, waitTime)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := applyPlacement(n, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("wait: %w", err)
		}
		return &sexpNode{node: n}, nil
	})

	// -----------------------------------------------------------------------
	// (add-child parent child ...) attaches children in argument order.
	// -----------------------------------------------------------------------
	env.AddFunction("add_child", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("add-child requires a parent and at least one child")
		}
		parent, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-child: parent: %w", err)
		}
		for i := 1; i < len(args); i++ {
			child, err := toNode(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("add-child: child %d: %w", i, err)
			}
			if err := parent.AddChild(child); err != nil {
				return zygo.SexpNull, err
			}
		}
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (append-node node) hangs the node off the deepest last child of the
	// project.
	// -----------------------------------------------------------------------
	env.AddFunction("append_node", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := st.requireProject("append-node"); err != nil {
			return zygo.SexpNull, err
		}
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("append-node requires a node")
		}
		n, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("append-node: %w", err)
		}
		if err := st.project.AppendNode(n); err != nil {
			return zygo.SexpNull, err
		}
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (position-at node (vec3 x y z) (vec3 psi theta phi))
	// -----------------------------------------------------------------------
	env.AddFunction("position_at", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("position-at requires a node and a position")
		}
		n, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("position-at: %w", err)
		}
		pos, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("position-at: position: %w", err)
		}
		rot := n.Rotation
		if len(args) > 2 {
			rot, err = toVec3(args[2])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("position-at: rotation: %w", err)
			}
		}
		n.PositionAt(pos, rot)
		return args[0], nil
	})
}

// slicingFromArgs reads the exposure keywords shared by the structure
// variants.
func slicingFromArgs(pa kwArgs) (model.SlicingSettings, error) {
	var s model.SlicingSettings
	var err error
	if s.SlicingOriginReference, err = pa.string("slicing_origin", ""); err != nil {
		return s, err
	}
	if s.SlicingOffset, err = pa.float("slicing_offset", 0); err != nil {
		return s, err
	}
	if s.Priority, err = pa.integer("priority", 0); err != nil {
		return s, err
	}
	if s.ExposeIndividually, err = pa.boolean("expose_individually", false); err != nil {
		return s, err
	}
	return s, nil
}
