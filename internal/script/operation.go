package script

import "fmt"

// Axis is one of the three transform axes.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// String returns "x", "y" or "z".
func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis maps "x", "y" or "z" to an Axis.
func ParseAxis(s string) (Axis, bool) {
	switch s {
	case "x":
		return X, true
	case "y":
		return Y, true
	case "z":
		return Z, true
	default:
		return 0, false
	}
}

// Space selects the reference frame of a transform.
type Space int

const (
	Global Space = iota
	Local
)

// String returns "global" or "local".
func (s Space) String() string {
	if s == Local {
		return "local"
	}
	return "global"
}

// Operation is one primitive action. The concrete types are MoveGlobal,
// MoveLocal, Rotate, Scale, Grow, Passthrough and FrameSync.
type Operation interface {
	// Kind names the operation for logs and events.
	Kind() string
}

// MoveGlobal adds Meters to one world-location component.
type MoveGlobal struct {
	Target string
	Axis   Axis
	Meters float64
}

// MoveLocal moves along one of the object's own axes.
type MoveLocal struct {
	Target string
	Axis   Axis
	Meters float64
}

// Rotate adds Radians to one Euler-angle component. Local and global
// rotations are both applied to the object's Euler channel.
type Rotate struct {
	Target  string
	Axis    Axis
	Radians float64
	Space   Space
}

// Scale multiplies all three scale components by Factor.
type Scale struct {
	Target string
	Factor float64
}

// Grow adds Amount to all three scale components.
type Grow struct {
	Target string
	Amount float64
}

// Passthrough is engine-native code forwarded verbatim.
type Passthrough struct {
	Code string
}

// FrameSync re-evaluates the current frame so animation drivers see the
// change. It is prepended to envelopes when the animator is on.
type FrameSync struct{}

func (MoveGlobal) Kind() string  { return "move_global" }
func (MoveLocal) Kind() string   { return "move_local" }
func (Rotate) Kind() string      { return "rotate" }
func (Scale) Kind() string       { return "scale" }
func (Grow) Kind() string        { return "grow" }
func (Passthrough) Kind() string { return "passthrough" }
func (FrameSync) Kind() string   { return "frame_sync" }

// TargetOf returns the object an operation acts on, or "" if it has none.
func TargetOf(op Operation) string {
	switch o := op.(type) {
	case MoveGlobal:
		return o.Target
	case MoveLocal:
		return o.Target
	case Rotate:
		return o.Target
	case Scale:
		return o.Target
	case Grow:
		return o.Target
	default:
		return ""
	}
}
