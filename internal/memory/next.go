package memory

import (
	"math"

	"github.com/nerrad567/sceneagent/internal/script"
	"github.com/nerrad567/sceneagent/internal/snapshot"
)

// Behavior modes understood by NextStep.
const (
	ModeMoveZ    = "MOVE_Z"
	ModeRotateX  = "ROTATE_X"
	ModeScaleUni = "SCALE_UNI"
	ModeNudgeX   = "NUDGE_X"
)

// fallbackFocus is tried after the pinned and active objects.
const fallbackFocus = "Cube"

// addCubeCode is emitted when the scene holds nothing to edit.
const addCubeCode = "bpy.ops.mesh.primitive_cube_add(location=(0, 0, 0))"

// NextStep generates the next incremental edit for the focus object.
//
// The focus is the pinned object when pinning is enabled, else the active
// object, else an object named "Cube", else the first mesh. Lights and
// cameras are always nudged along X. Meshes follow the behavior mode;
// unknown modes move along Z. Uniform scaling adds the step to each scale
// component rather than multiplying. With no focus a cube is added.
func NextStep(scene snapshot.Scene, sel snapshot.Selection) script.Operation {
	focus, ok := focusObject(scene, sel)
	if !ok {
		return script.Passthrough{Code: addCubeCode}
	}
	steps := sel.Steps

	if focus.Type == "LIGHT" || focus.Type == "CAMERA" {
		return script.MoveGlobal{Target: focus.Name, Axis: script.X, Meters: round3(steps.Nudge)}
	}

	switch sel.Behavior.Mode {
	case ModeRotateX:
		return script.Rotate{Target: focus.Name, Axis: script.X, Radians: steps.Rotate, Space: script.Global}
	case ModeScaleUni:
		return script.Grow{Target: focus.Name, Amount: steps.Scale}
	case ModeNudgeX:
		return script.MoveGlobal{Target: focus.Name, Axis: script.X, Meters: round3(steps.Nudge)}
	default:
		return script.MoveGlobal{Target: focus.Name, Axis: script.Z, Meters: round3(steps.Move)}
	}
}

func focusObject(scene snapshot.Scene, sel snapshot.Selection) (snapshot.Object, bool) {
	var candidates []string
	if sel.Pinned.Enabled && sel.Pinned.Name != "" {
		candidates = append(candidates, sel.Pinned.Name)
	}
	if sel.Active != "" {
		candidates = append(candidates, sel.Active)
	}
	candidates = append(candidates, fallbackFocus)

	for _, name := range candidates {
		for _, o := range scene.Objects {
			if o.Name == name {
				return o, true
			}
		}
	}
	for _, o := range scene.Objects {
		if o.Type == "MESH" {
			return o, true
		}
	}
	return snapshot.Object{}, false
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
