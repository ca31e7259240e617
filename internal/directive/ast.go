package directive

import "github.com/nerrad567/sceneagent/internal/script"

// Directive is one parsed clause: *Move, *Rotate, *Scale or *Passthrough.
type Directive interface {
	directive()
}

// Move translates targets along one axis. Meters carries the direction's sign.
type Move struct {
	Target string
	Axis   script.Axis
	Meters float64
	Space  script.Space
	Except []string
}

// Rotate turns targets about one axis.
type Rotate struct {
	Target  string
	Axis    script.Axis
	Radians float64
	Space   script.Space
}

// Scale multiplies the targets' scale.
type Scale struct {
	Target string
	Factor float64
}

// Passthrough is engine-native code.
type Passthrough struct {
	Code string
}

func (*Move) directive()        {}
func (*Rotate) directive()      {}
func (*Scale) directive()       {}
func (*Passthrough) directive() {}

// Clause pairs a parsed directive with its source text. Exactly one of
// Directive and Err is set.
type Clause struct {
	Text      string
	Directive Directive
	Err       error
}
