package script

import (
	"strconv"
	"strings"
)

const frameSyncCode = "scene = bpy.context.scene\nscene.frame_set(scene.frame_current)\n"

// Serialize renders one operation as a code fragment ending in a newline.
func Serialize(op Operation) string {
	var b strings.Builder
	switch o := op.(type) {
	case MoveGlobal:
		c := strconv.Itoa(int(o.Axis))
		lookup(&b, o.Target)
		b.WriteString("    loc = list(obj.location)\n")
		b.WriteString("    loc[" + c + "] = loc[" + c + "] + " + num(o.Meters) + "\n")
		b.WriteString("    obj.location = loc\n")
	case MoveLocal:
		b.WriteString("from mathutils import Vector\n")
		lookup(&b, o.Target)
		b.WriteString("    dv = [0.0, 0.0, 0.0]\n")
		b.WriteString("    dv[" + strconv.Itoa(int(o.Axis)) + "] = " + num(o.Meters) + "\n")
		b.WriteString("    world_dv = obj.matrix_world.to_3x3() @ Vector(dv)\n")
		b.WriteString("    obj.location = obj.location + world_dv\n")
	case Rotate:
		c := strconv.Itoa(int(o.Axis))
		lookup(&b, o.Target)
		b.WriteString("    r = list(obj.rotation_euler)\n")
		b.WriteString("    r[" + c + "] = r[" + c + "] + " + num(o.Radians) + "\n")
		b.WriteString("    obj.rotation_euler = r\n")
	case Scale:
		f := num(o.Factor)
		lookup(&b, o.Target)
		b.WriteString("    s = obj.scale\n")
		b.WriteString("    obj.scale = (" + f + " * s.x, " + f + " * s.y, " + f + " * s.z)\n")
	case Grow:
		a := num(o.Amount)
		lookup(&b, o.Target)
		b.WriteString("    s = obj.scale\n")
		b.WriteString("    obj.scale = (s.x + " + a + ", s.y + " + a + ", s.z + " + a + ")\n")
	case Passthrough:
		b.WriteString(o.Code)
		if !strings.HasSuffix(o.Code, "\n") {
			b.WriteByte('\n')
		}
	case FrameSync:
		b.WriteString(frameSyncCode)
	}
	return b.String()
}

// Join serialises ops in order into one script.
func Join(ops []Operation) string {
	var b strings.Builder
	for _, op := range ops {
		b.WriteString(Serialize(op))
	}
	return b.String()
}

func lookup(b *strings.Builder, name string) {
	b.WriteString("obj = bpy.data.objects.get(" + strconv.Quote(name) + ")\n")
	b.WriteString("if obj:\n")
}

func num(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
