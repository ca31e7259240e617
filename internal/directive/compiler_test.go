package directive

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/nerrad567/sceneagent/internal/script"
	"github.com/nerrad567/sceneagent/internal/snapshot"
)

// ─── Mock Dependencies ─────────────────────────────────────────────

type recordingLogger struct {
	warns []string
	infos []string
}

func (l *recordingLogger) Debug(string, ...any)      {}
func (l *recordingLogger) Info(msg string, _ ...any) { l.infos = append(l.infos, msg) }
func (l *recordingLogger) Warn(msg string, _ ...any) { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(string, ...any)      {}

func testScene(names ...string) snapshot.Scene {
	var s snapshot.Scene
	for _, n := range names {
		s.Objects = append(s.Objects, snapshot.Object{Name: n, Type: "MESH"})
	}
	return s
}

// ─── Tests ─────────────────────────────────────────────────────────

func TestCompileLine_MoveSelectedUp(t *testing.T) {
	c := NewCompiler(nil)
	res := c.CompileLine("move selected up 10cm", testScene("Cube", "Sphere"), snapshot.Selection{Selected: []string{"Cube"}})

	if len(res.Skipped) != 0 {
		t.Fatalf("Skipped = %+v", res.Skipped)
	}
	if len(res.Ops) != 1 {
		t.Fatalf("Ops = %+v, want exactly one", res.Ops)
	}
	op, ok := res.Ops[0].(script.MoveGlobal)
	if !ok {
		t.Fatalf("op = %T, want script.MoveGlobal", res.Ops[0])
	}
	if op.Target != "Cube" || op.Axis != script.Z || math.Abs(op.Meters-0.1) > 1e-12 {
		t.Errorf("op = %+v, want MoveGlobal(Cube, z, +0.1)", op)
	}
}

func TestCompileLine_GlobExcept(t *testing.T) {
	c := NewCompiler(nil)
	scene := testScene("cube.001", "cube.002", "sphere.001")
	res := c.CompileLine("move cube.0* right 1 local except cube.002", scene, snapshot.Selection{})

	want := []script.Operation{script.MoveLocal{Target: "cube.001", Axis: script.X, Meters: 1}}
	if !reflect.DeepEqual(res.Ops, want) {
		t.Errorf("Ops = %+v, want %+v", res.Ops, want)
	}
}

func TestCompileLine_ExactMatchPrecedence(t *testing.T) {
	c := NewCompiler(nil)
	res := c.CompileLine("scale cube 2x", testScene("cube", "cube.001"), snapshot.Selection{})

	want := []script.Operation{script.Scale{Target: "cube", Factor: 2}}
	if !reflect.DeepEqual(res.Ops, want) {
		t.Errorf("Ops = %+v, want %+v", res.Ops, want)
	}
}

func TestCompileLine_TwoClauses(t *testing.T) {
	c := NewCompiler(nil)
	res := c.CompileLine("move cube up 0.1 and rotate cube 90 x", testScene("Cube"), snapshot.Selection{})

	if len(res.Ops) != 2 {
		t.Fatalf("Ops = %+v", res.Ops)
	}
	if _, ok := res.Ops[0].(script.MoveGlobal); !ok {
		t.Errorf("first op = %T", res.Ops[0])
	}
	rot, ok := res.Ops[1].(script.Rotate)
	if !ok || rot.Axis != script.X || math.Abs(rot.Radians-math.Pi/2) > 1e-9 {
		t.Errorf("second op = %+v", res.Ops[1])
	}
}

func TestCompileLine_NoTargetsSkipsClauseOnly(t *testing.T) {
	logger := &recordingLogger{}
	c := NewCompiler(logger)
	res := c.CompileLine("rotate cuve 10 and scale cube 2x", testScene("Cube"), snapshot.Selection{})
	if len(res.Ops) != 1 {
		t.Fatalf("Ops = %+v, want the scale only", res.Ops)
	}
	if len(res.Skipped) != 1 || !errors.Is(res.Skipped[0].Reason, ErrNoTargets) {
		t.Fatalf("Skipped = %+v", res.Skipped)
	}
	if len(logger.infos) == 0 {
		t.Error("expected a suggestion to be logged for a near miss")
	}
}

func TestCompileLine_UnrecognisedIsSkipped(t *testing.T) {
	logger := &recordingLogger{}
	c := NewCompiler(logger)
	res := c.CompileLine("make it pop", testScene("Cube"), snapshot.Selection{})

	if !res.Empty() {
		t.Errorf("Ops = %+v, want none", res.Ops)
	}
	if len(res.Skipped) != 1 || !errors.Is(res.Skipped[0].Reason, ErrUnknownDirective) {
		t.Errorf("Skipped = %+v", res.Skipped)
	}
	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want one", logger.warns)
	}
}

func TestCompileLine_NameWithNumber(t *testing.T) {
	c := NewCompiler(nil)
	scene := testScene("Lamp 2", "Lamp")

	tests := []struct {
		line string
		want []script.Operation
	}{
		{"rotate lamp 2 45", []script.Operation{script.Rotate{Target: "Lamp 2", Axis: script.Z, Radians: math.Pi / 4, Space: script.Local}}},
		{"scale lamp 2 2x", []script.Operation{script.Scale{Target: "Lamp 2", Factor: 2}}},
		{"scale lamp 2", []script.Operation{}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			res := c.CompileLine(tt.line, scene, snapshot.Selection{})
			if len(tt.want) == 0 {
				if !res.Empty() {
					t.Errorf("Ops = %+v, want none", res.Ops)
				}
				return
			}
			if !reflect.DeepEqual(res.Ops, tt.want) {
				t.Errorf("Ops = %+v, want %+v (skipped %+v)", res.Ops, tt.want, res.Skipped)
			}
		})
	}
}

func TestCompileLine_BareAndIsSkipped(t *testing.T) {
	logger := &recordingLogger{}
	res := NewCompiler(logger).CompileLine("and", testScene("Cube"), snapshot.Selection{})

	if !res.Empty() {
		t.Errorf("Ops = %+v, want none", res.Ops)
	}
	if len(res.Skipped) != 1 || !errors.Is(res.Skipped[0].Reason, ErrUnknownDirective) {
		t.Errorf("Skipped = %+v", res.Skipped)
	}
	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want one", logger.warns)
	}
}

func TestCompileBlock(t *testing.T) {
	c := NewCompiler(nil)
	block := []string{
		"bpy.ops.object.select_all(action='DESELECT')",
		"move active down 1",
		"move cube up bogus",
		"",
		"scale selected 50%",
	}
	sel := snapshot.Selection{Active: "Cube", Selected: []string{"Cube", "Sphere"}}
	res := c.CompileBlock(block, testScene("Cube", "Sphere"), sel)

	want := []script.Operation{
		script.Passthrough{Code: "bpy.ops.object.select_all(action='DESELECT')"},
		script.MoveGlobal{Target: "Cube", Axis: script.Z, Meters: -1},
		script.Scale{Target: "Cube", Factor: 0.5},
		script.Scale{Target: "Sphere", Factor: 0.5},
	}
	if !reflect.DeepEqual(res.Ops, want) {
		t.Errorf("Ops = %+v, want %+v", res.Ops, want)
	}
	if len(res.Skipped) != 1 || !errors.Is(res.Skipped[0].Reason, ErrBadDistance) {
		t.Errorf("Skipped = %+v", res.Skipped)
	}
	if res.Skipped[0].Line != "move cube up bogus" {
		t.Errorf("Skip.Line = %q", res.Skipped[0].Line)
	}
}

func TestCompileBlock_NothingCompiles(t *testing.T) {
	c := NewCompiler(nil)
	res := c.CompileBlock([]string{"hello", "move ghost up 1"}, testScene("Cube"), snapshot.Selection{})
	if !res.Empty() || len(res.Skipped) != 2 {
		t.Errorf("Result = %+v", res)
	}
}
