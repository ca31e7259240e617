package directive

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/nerrad567/sceneagent/internal/script"
)

func parseOne(t *testing.T, line string) Clause {
	t.Helper()
	clauses := Parse(line)
	if len(clauses) != 1 {
		t.Fatalf("Parse(%q) = %d clauses, want 1", line, len(clauses))
	}
	return clauses[0]
}

func TestParse_Move(t *testing.T) {
	tests := []struct {
		line string
		want *Move
	}{
		{"move selected up 10cm", &Move{Target: "selected", Axis: script.Z, Meters: 0.1, Space: script.Global}},
		{"move active +z 0.2 local", &Move{Target: "active", Axis: script.Z, Meters: 0.2, Space: script.Local}},
		{"move Cube down 5 mm", &Move{Target: "Cube", Axis: script.Z, Meters: -0.005, Space: script.Global}},
		{"nudge cube left 1", &Move{Target: "cube", Axis: script.X, Meters: -1, Space: script.Global}},
		{"RAISE cube z 2", &Move{Target: "cube", Axis: script.Z, Meters: 2, Space: script.Global}},
		{"move cube back 3 global", &Move{Target: "cube", Axis: script.Y, Meters: -3, Space: script.Global}},
		{"move cube.0* forward 0.1 except cube.003", &Move{Target: "cube.0*", Axis: script.Y, Meters: 0.1, Space: script.Global, Except: []string{"cube.003"}}},
		{"move big box right 1", &Move{Target: "big box", Axis: script.X, Meters: 1, Space: script.Global}},
		{"move up up 1", &Move{Target: "up", Axis: script.Z, Meters: 1, Space: script.Global}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cl := parseOne(t, tt.line)
			if cl.Err != nil {
				t.Fatalf("Parse() error = %v", cl.Err)
			}
			got, ok := cl.Directive.(*Move)
			if !ok {
				t.Fatalf("Directive = %T, want *Move", cl.Directive)
			}
			if math.Abs(got.Meters-tt.want.Meters) > 1e-12 {
				t.Errorf("Meters = %v, want %v", got.Meters, tt.want.Meters)
			}
			got.Meters = tt.want.Meters
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Move = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParse_Rotate(t *testing.T) {
	tests := []struct {
		line string
		want Rotate
	}{
		{"rotate cube 45deg z local", Rotate{Target: "cube", Axis: script.Z, Radians: math.Pi / 4, Space: script.Local}},
		{"rotate cube 90", Rotate{Target: "cube", Axis: script.Z, Radians: math.Pi / 2, Space: script.Local}},
		{"spin cube 1rad x global", Rotate{Target: "cube", Axis: script.X, Radians: 1, Space: script.Global}},
		{"turn Cube 15 degrees y", Rotate{Target: "Cube", Axis: script.Y, Radians: math.Pi / 12, Space: script.Local}},
		{"rotate lamp 2 45", Rotate{Target: "lamp 2", Axis: script.Z, Radians: math.Pi / 4, Space: script.Local}},
		{"rotate lamp 2 3 90deg x", Rotate{Target: "lamp 2 3", Axis: script.X, Radians: math.Pi / 2, Space: script.Local}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cl := parseOne(t, tt.line)
			got, ok := cl.Directive.(*Rotate)
			if !ok {
				t.Fatalf("Directive = %T (%v), want *Rotate", cl.Directive, cl.Err)
			}
			if math.Abs(got.Radians-tt.want.Radians) > 1e-9 {
				t.Errorf("Radians = %v, want %v", got.Radians, tt.want.Radians)
			}
			if got.Target != tt.want.Target || got.Axis != tt.want.Axis || got.Space != tt.want.Space {
				t.Errorf("Rotate = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestParse_Scale(t *testing.T) {
	tests := []struct {
		line string
		want Scale
	}{
		{"scale selected 1.2x", Scale{Target: "selected", Factor: 1.2}},
		{"scale Cube* 120%", Scale{Target: "Cube*", Factor: 1.2}},
		{"scale cube 2 x", Scale{Target: "cube", Factor: 2}},
		{"scale lamp 2 2x", Scale{Target: "lamp 2", Factor: 2}},
		{"scale lamp 2 150%", Scale{Target: "lamp 2", Factor: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cl := parseOne(t, tt.line)
			got, ok := cl.Directive.(*Scale)
			if !ok {
				t.Fatalf("Directive = %T (%v), want *Scale", cl.Directive, cl.Err)
			}
			if got.Target != tt.want.Target || math.Abs(got.Factor-tt.want.Factor) > 1e-12 {
				t.Errorf("Scale = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"move cube up abc", ErrBadDistance},
		{"move cube up 3km", ErrBadDistance},
		{"move cube sideways 1", ErrMissingDirection},
		{"move", ErrMissingTarget},
		{"rotate cube fast", ErrBadAngle},
		{"rotate cube 10grad", ErrBadAngle},
		{"scale cube 2", ErrBadFactor},
		{"scale", ErrMissingTarget},
		{"paint the cube red", ErrUnknownDirective},
		{"move cube up 1 quickly", ErrUnexpectedToken},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cl := parseOne(t, tt.line)
			if !errors.Is(cl.Err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", cl.Err, tt.want)
			}
			var pe *ParseError
			if !errors.As(cl.Err, &pe) || pe.Clause != tt.line {
				t.Errorf("error %v should be a *ParseError for the clause", cl.Err)
			}
		})
	}
}

func TestParse_MoveIsNotRetriedAsRotate(t *testing.T) {
	// A move clause that fails stays a move failure.
	cl := parseOne(t, "move cube 45deg")
	if !errors.Is(cl.Err, ErrMissingDirection) {
		t.Errorf("error = %v, want ErrMissingDirection", cl.Err)
	}
}

func TestParse_Passthrough(t *testing.T) {
	lines := []string{
		"bpy.ops.mesh.primitive_cube_add()",
		"import math",
		"obj = None",
		"  for o in objs: pass",
		"x = bpy.data.objects['Cube']",
	}
	for _, line := range lines {
		cl := parseOne(t, line)
		pt, ok := cl.Directive.(*Passthrough)
		if !ok || pt.Code != line {
			t.Errorf("Parse(%q) = %+v, want verbatim passthrough", line, cl)
		}
	}
}

func TestParse_SplitsOnFirstAnd(t *testing.T) {
	clauses := Parse("move cube up 0.1 and rotate cube 15deg x")
	if len(clauses) != 2 {
		t.Fatalf("got %d clauses, want 2", len(clauses))
	}
	if _, ok := clauses[0].Directive.(*Move); !ok {
		t.Errorf("clause 1 = %T", clauses[0].Directive)
	}
	if _, ok := clauses[1].Directive.(*Rotate); !ok {
		t.Errorf("clause 2 = %T", clauses[1].Directive)
	}

	// Only the first "and" splits; the third action stays in clause two.
	clauses = Parse("move cube up 1 and scale cube 2x and rotate cube 10")
	if len(clauses) != 2 {
		t.Fatalf("got %d clauses, want 2", len(clauses))
	}
	if !errors.Is(clauses[1].Err, ErrUnexpectedToken) {
		t.Errorf("clause 2 error = %v, want ErrUnexpectedToken", clauses[1].Err)
	}
}

func TestParse_ClauseLevelPassthrough(t *testing.T) {
	clauses := Parse("move cube up 1 and import math")
	if len(clauses) != 2 {
		t.Fatalf("got %d clauses", len(clauses))
	}
	pt, ok := clauses[1].Directive.(*Passthrough)
	if !ok || pt.Code != "import math" {
		t.Errorf("clause 2 = %+v, want passthrough of the clause", clauses[1])
	}
}

func TestParse_NumericTargetKeepsShortestError(t *testing.T) {
	// No split of "lamp 2 45 wobble" parses; the first split's error wins.
	cl := parseOne(t, "rotate lamp 2 45 wobble")
	var pe *ParseError
	if !errors.As(cl.Err, &pe) || !errors.Is(cl.Err, ErrUnexpectedToken) || pe.Token != "45" {
		t.Errorf("error = %v, want unexpected token \"45\"", cl.Err)
	}
}

func TestParse_NoClauses(t *testing.T) {
	for _, line := range []string{"and", "  AND  "} {
		cl := parseOne(t, line)
		if cl.Directive != nil || !errors.Is(cl.Err, ErrUnknownDirective) {
			t.Errorf("Parse(%q) = %+v, want an unknown-directive clause", line, cl)
		}
	}
}

func TestParse_Blank(t *testing.T) {
	if got := Parse("   \r\n"); got != nil {
		t.Errorf("Parse(blank) = %v, want nil", got)
	}
}
