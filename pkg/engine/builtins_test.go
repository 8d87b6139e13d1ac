package engine

import (
	"testing"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/mtarnawa/nanoweave/pkg/model"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(project :objective "25x")`,
			expect: `(project "__kw_objective" "25x")`,
		},
		{
			name:   "multiple keywords",
			input:  `(preset "p1" :writing-speed 250000.0 :writing-power 50.0)`,
			expect: `(preset "p1" "__kw_writing-speed" 250000.0 "__kw_writing-power" 50.0)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(coarse-aligner)`,
			expect: `(coarse_aligner)`,
		},
		{
			name:   "subtraction preserved",
			input:  `(- 5 3)`,
			expect: `(- 5 3)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(+ 1 -2)`,
			expect: `(+ 1 -2)`,
		},
		{
			name:   "kebab in string preserved",
			input:  `(preset "my-preset")`,
			expect: `(preset "my-preset")`,
		},
		{
			name:   "backtick string preserved",
			input:  "(preset `raw :kw kebab-case`)",
			expect: "(preset `raw :kw kebab-case`)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preprocessSource(tt.input); got != tt.expect {
				t.Errorf("got %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestPreprocessComments(t *testing.T) {
	got := preprocessSource("; a comment with :kw and kebab-case\n(group)")
	want := "// a comment with :kw and kebab-case\n(group)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// Doubled semicolons collapse into a single comment marker.
	got = preprocessSource(";; section header\n")
	want = "// section header\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// Argument parsing tests
// ---------------------------------------------------------------------------

func TestParseArgs(t *testing.T) {
	args := []zygo.Sexp{
		&zygo.SexpStr{S: "first"},
		&zygo.SexpStr{S: kwPrefix + "name"},
		&zygo.SexpStr{S: "value"},
		&zygo.SexpInt{Val: 7},
	}
	pa := parseArgs(args)
	if len(pa.positional) != 2 {
		t.Fatalf("positional count = %d, want 2", len(pa.positional))
	}
	v, err := pa.string("name", "")
	if err != nil || v != "value" {
		t.Errorf("kw name = %q, %v", v, err)
	}
	if got, _ := pa.string("absent", "fallback"); got != "fallback" {
		t.Errorf("absent kw = %q", got)
	}
}

func TestKwArgsTypedAccess(t *testing.T) {
	pa := parseArgs([]zygo.Sexp{
		&zygo.SexpStr{S: kwPrefix + "speed"},
		&zygo.SexpFloat{Val: 250000.0},
		&zygo.SexpStr{S: kwPrefix + "count"},
		&zygo.SexpInt{Val: 5},
		&zygo.SexpStr{S: kwPrefix + "flag"},
		&zygo.SexpBool{Val: true},
	})

	if f, err := pa.float("speed", 0); err != nil || f != 250000.0 {
		t.Errorf("float = %v, %v", f, err)
	}
	// Integers coerce to floats where a float is expected.
	if n, err := pa.integer("count", 0); err != nil || n != 5 {
		t.Errorf("integer = %v, %v", n, err)
	}
	if b, err := pa.boolean("flag", false); err != nil || !b {
		t.Errorf("boolean = %v, %v", b, err)
	}
	if _, err := pa.float("flag", 0); err == nil {
		t.Error("bool accepted as float")
	}
}

func TestKeywordStringUnwrapsPrefix(t *testing.T) {
	s, err := toKeywordString(&zygo.SexpStr{S: kwPrefix + "abort"})
	if err != nil || s != "abort" {
		t.Errorf("got %q, %v", s, err)
	}
	s, err = toKeywordString(&zygo.SexpStr{S: "plain"})
	if err != nil || s != "plain" {
		t.Errorf("got %q, %v", s, err)
	}
}

func TestToVec3(t *testing.T) {
	v, err := toVec3(&sexpVec3{vec: model.Vec3{X: 1, Y: 2, Z: 3}})
	if err != nil || v != (model.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("sexpVec3: %v, %v", v, err)
	}
	v, err = toVec3(&zygo.SexpArray{Val: []zygo.Sexp{
		&zygo.SexpInt{Val: 4},
		&zygo.SexpFloat{Val: 5.5},
		&zygo.SexpInt{Val: 6},
	}})
	if err != nil || v != (model.Vec3{X: 4, Y: 5.5, Z: 6}) {
		t.Errorf("array: %v, %v", v, err)
	}
	if _, err := toVec3(&zygo.SexpStr{S: "nope"}); err == nil {
		t.Error("string accepted as vec3")
	}
	if _, err := toVec3(&zygo.SexpArray{Val: []zygo.Sexp{&zygo.SexpInt{Val: 1}}}); err == nil {
		t.Error("1-element list accepted as vec3")
	}
}

func TestToVec2AndInt2(t *testing.T) {
	arr := &zygo.SexpArray{Val: []zygo.Sexp{
		&zygo.SexpInt{Val: 5},
		&zygo.SexpInt{Val: 7},
	}}
	v, err := toVec2(arr)
	if err != nil || v != (model.Vec2{X: 5, Y: 7}) {
		t.Errorf("vec2 = %v, %v", v, err)
	}
	n, err := toInt2(arr)
	if err != nil || n != (model.Int2{X: 5, Y: 7}) {
		t.Errorf("int2 = %v, %v", n, err)
	}
}
