package snapshot

// Object describes one scene object as exported by the engine.
type Object struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Location  [3]float64 `json:"location"`
	Modifiers []string   `json:"modifiers,omitempty"`
	Materials []string   `json:"materials,omitempty"`
}

// Collection summarises one scene collection.
type Collection struct {
	Name        string `json:"name"`
	ObjectCount int    `json:"object_count"`
}

// Light describes one light object.
type Light struct {
	Name      string `json:"name"`
	LightType string `json:"light_type"`
}

// Scene is the scene snapshot. Objects keep document order.
type Scene struct {
	Objects     []Object     `json:"objects"`
	Materials   []string     `json:"materials"`
	Collections []Collection `json:"collections"`
	Cameras     []string     `json:"cameras"`
	Lights      []Light      `json:"lights"`
	Addons      []string     `json:"addons"`
}

// Names returns the object names in document order.
func (s Scene) Names() []string {
	names := make([]string, 0, len(s.Objects))
	for _, o := range s.Objects {
		names = append(names, o.Name)
	}
	return names
}

// Pinned is the engine's focus pin.
type Pinned struct {
	Enabled bool   `json:"enabled"`
	Name    string `json:"name,omitempty"`
}

// Selection is the selection snapshot. Active is empty when nothing is active.
type Selection struct {
	Active   string   `json:"active,omitempty"`
	Selected []string `json:"selected"`
	Pinned   Pinned   `json:"pinned"`
	Behavior Behavior `json:"behavior"`
	Steps    Steps    `json:"steps"`
}

// Behavior holds the live tunables read every tick.
type Behavior struct {
	Fast         bool   `json:"fast"`
	DelayMS      int    `json:"delay_ms"`
	BurstSize    int    `json:"burst_size"`
	ConfirmEvery int    `json:"confirm_every"`
	Animator     bool   `json:"animator"`
	AnimStep     int    `json:"anim_step"`
	Mode         string `json:"mode,omitempty"`
}

// Steps holds the increments used when generating the next edit from the
// behavior mode. They share the behavior section of the selection document.
type Steps struct {
	Move   float64 `json:"step_move"`
	Rotate float64 `json:"step_rotate"`
	Scale  float64 `json:"step_scale"`
	Nudge  float64 `json:"step_nudge"`
}

// DefaultSteps returns the increments used when none are configured.
func DefaultSteps() Steps {
	return Steps{Move: 1.0, Rotate: 0.1, Scale: 0.05, Nudge: 0.2}
}

// Default tunables when the selection document omits them.
const (
	DefaultFast         = true
	DefaultDelayMS      = 500
	DefaultBurstSize    = 5
	DefaultConfirmEvery = 1
	DefaultAnimStep     = 1
)

// DefaultBehavior returns the tunables used when nothing is configured.
func DefaultBehavior() Behavior {
	return Behavior{
		Fast:         DefaultFast,
		DelayMS:      DefaultDelayMS,
		BurstSize:    DefaultBurstSize,
		ConfirmEvery: DefaultConfirmEvery,
		AnimStep:     DefaultAnimStep,
	}
}
