package script

import (
	"errors"
	"math"
	"strings"
	"testing"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// pythonSubset parses emitted code with the Starlark parser, which accepts
// the Python constructs the fragments use (except imports and the matrix
// operator used by MoveLocal).
var pythonSubset = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{
			name: "move global",
			op:   MoveGlobal{Target: "Cube", Axis: Z, Meters: 0.1},
			want: "obj = bpy.data.objects.get(\"Cube\")\n" +
				"if obj:\n" +
				"    loc = list(obj.location)\n" +
				"    loc[2] = loc[2] + 0.1\n" +
				"    obj.location = loc\n",
		},
		{
			name: "move local",
			op:   MoveLocal{Target: "Cube", Axis: X, Meters: -2},
			want: "from mathutils import Vector\n" +
				"obj = bpy.data.objects.get(\"Cube\")\n" +
				"if obj:\n" +
				"    dv = [0.0, 0.0, 0.0]\n" +
				"    dv[0] = -2.0\n" +
				"    world_dv = obj.matrix_world.to_3x3() @ Vector(dv)\n" +
				"    obj.location = obj.location + world_dv\n",
		},
		{
			name: "rotate",
			op:   Rotate{Target: "Cube", Axis: Y, Radians: 1.5, Space: Local},
			want: "obj = bpy.data.objects.get(\"Cube\")\n" +
				"if obj:\n" +
				"    r = list(obj.rotation_euler)\n" +
				"    r[1] = r[1] + 1.5\n" +
				"    obj.rotation_euler = r\n",
		},
		{
			name: "scale",
			op:   Scale{Target: "Cube", Factor: 1.2},
			want: "obj = bpy.data.objects.get(\"Cube\")\n" +
				"if obj:\n" +
				"    s = obj.scale\n" +
				"    obj.scale = (1.2 * s.x, 1.2 * s.y, 1.2 * s.z)\n",
		},
		{
			name: "grow",
			op:   Grow{Target: "Cube", Amount: 0.05},
			want: "obj = bpy.data.objects.get(\"Cube\")\n" +
				"if obj:\n" +
				"    s = obj.scale\n" +
				"    obj.scale = (s.x + 0.05, s.y + 0.05, s.z + 0.05)\n",
		},
		{
			name: "passthrough gets newline",
			op:   Passthrough{Code: "bpy.ops.object.select_all(action='DESELECT')"},
			want: "bpy.ops.object.select_all(action='DESELECT')\n",
		},
		{
			name: "frame sync",
			op:   FrameSync{},
			want: "scene = bpy.context.scene\nscene.frame_set(scene.frame_current)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Serialize(tt.op); got != tt.want {
				t.Errorf("Serialize() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestSerialize_QuotesHostileNames(t *testing.T) {
	got := Serialize(MoveGlobal{Target: `Cube")\nimport os #`, Axis: X, Meters: 1})
	first := strings.SplitN(got, "\n", 2)[0]
	want := `obj = bpy.data.objects.get("Cube\")\\nimport os #")`
	if first != want {
		t.Errorf("lookup line = %s, want %s", first, want)
	}
}

func TestSerialize_FragmentsParse(t *testing.T) {
	ops := []Operation{
		FrameSync{},
		MoveGlobal{Target: "Cube", Axis: Z, Meters: 0.1},
		MoveGlobal{Target: `Odd "name"`, Axis: Y, Meters: -1e-05},
		Rotate{Target: "Cube.001", Axis: X, Radians: 0.7853981633974483},
		Scale{Target: "Sphere", Factor: 0.5},
		Grow{Target: "Sphere", Amount: -0.05},
		Passthrough{Code: "obj = bpy.data.objects.get('Cube')"},
	}
	src := Join(ops)
	if _, err := pythonSubset.Parse("envelope.py", src, 0); err != nil {
		t.Fatalf("emitted code does not parse: %v\n%s", err, src)
	}
}

func TestJoin(t *testing.T) {
	got := Join([]Operation{Passthrough{Code: "a"}, Passthrough{Code: "b\n"}})
	if got != "a\nb\n" {
		t.Errorf("Join() = %q", got)
	}
	if Join(nil) != "" {
		t.Error("Join(nil) should be empty")
	}
}

func TestAxis(t *testing.T) {
	for _, s := range []string{"x", "y", "z"} {
		a, ok := ParseAxis(s)
		if !ok || a.String() != s {
			t.Errorf("ParseAxis(%q) = %v, %v", s, a, ok)
		}
	}
	if _, ok := ParseAxis("w"); ok {
		t.Error("ParseAxis(w) should fail")
	}
}

func TestTargetOf(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{Scale{Target: "Cube"}, "Cube"},
		{Grow{Target: "Cone"}, "Cone"},
		{Rotate{Target: "Lamp 2"}, "Lamp 2"},
		{Passthrough{Code: "import math"}, ""},
		{FrameSync{}, ""},
	}
	for _, tt := range tests {
		if got := TargetOf(tt.op); got != tt.want {
			t.Errorf("TargetOf(%T) = %q, want %q", tt.op, got, tt.want)
		}
	}
}

// ─── Execution ─────────────────────────────────────────────────────

// sceneObject stands in for an engine object: readable attributes plus
// assignment through SetField.
type sceneObject struct {
	fields starlark.StringDict
}

func (o *sceneObject) String() string        { return "<object>" }
func (o *sceneObject) Type() string          { return "Object" }
func (o *sceneObject) Freeze()               {}
func (o *sceneObject) Truth() starlark.Bool  { return starlark.True }
func (o *sceneObject) Hash() (uint32, error) { return 0, errors.New("unhashable: Object") }
func (o *sceneObject) AttrNames() []string   { return o.fields.Keys() }

func (o *sceneObject) Attr(name string) (starlark.Value, error) {
	return o.fields[name], nil
}

func (o *sceneObject) SetField(name string, v starlark.Value) error {
	o.fields[name] = v
	return nil
}

func vec3(x, y, z float64) starlark.Value {
	return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"x": starlark.Float(x),
		"y": starlark.Float(y),
		"z": starlark.Float(z),
	})
}

// runOn executes a fragment against a single object and returns its
// resulting scale.
func runOn(t *testing.T, op Operation, obj *sceneObject) [3]float64 {
	t.Helper()
	get := starlark.NewBuiltin("get", func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
		return obj, nil
	})
	bpy := starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"data": starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
			"objects": starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{"get": get}),
		}),
	})

	thread := &starlark.Thread{Name: "fragment"}
	if _, err := starlark.ExecFileOptions(pythonSubset, thread, "fragment.py", Serialize(op), starlark.StringDict{"bpy": bpy}); err != nil {
		t.Fatalf("executing %s: %v", op.Kind(), err)
	}

	tup, ok := obj.fields["scale"].(starlark.Tuple)
	if !ok || tup.Len() != 3 {
		t.Fatalf("scale = %v, want a 3-tuple", obj.fields["scale"])
	}
	var out [3]float64
	for i := range out {
		f, ok := starlark.AsFloat(tup[i])
		if !ok {
			t.Fatalf("scale[%d] = %v is not a number", i, tup[i])
		}
		out[i] = f
	}
	return out
}

func TestSerialize_ScaleSemantics(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want [3]float64
	}{
		{"grow adds", Grow{Target: "Cube", Amount: 0.05}, [3]float64{2.05, 1.05, 0.55}},
		{"scale multiplies", Scale{Target: "Cube", Factor: 2}, [3]float64{4, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := &sceneObject{fields: starlark.StringDict{"scale": vec3(2, 1, 0.5)}}
			got := runOn(t, tt.op, obj)
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("scale = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
