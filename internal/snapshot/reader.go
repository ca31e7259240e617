package snapshot

import (
	"encoding/json"
	"math"
	"os"
	"strconv"
	"strings"
)

// Logger is the logging interface used by Reader.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Reader loads the snapshot documents from disk. Every call reads the file
// afresh; there is no cache.
type Reader struct {
	scenePath     string
	selectionPath string
	logger        Logger
}

// NewReader creates a Reader for the given document paths.
func NewReader(scenePath, selectionPath string) *Reader {
	return &Reader{
		scenePath:     scenePath,
		selectionPath: selectionPath,
		logger:        noopLogger{},
	}
}

// SetLogger sets the logger used for schema diagnostics.
func (r *Reader) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Scene reads the scene document.
func (r *Reader) Scene() Scene {
	doc := r.load(r.scenePath, "scene")
	return sceneFrom(doc)
}

// Selection reads the selection document.
func (r *Reader) Selection() Selection {
	doc := r.load(r.selectionPath, "selection")
	return selectionFrom(doc)
}

func (r *Reader) load(path, kind string) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	doc, err := decode(data)
	if err != nil {
		r.logger.Debug("snapshot unreadable", "kind", kind, "path", path, "error", err)
		return nil
	}
	schema := sceneSchema
	if kind == "selection" {
		schema = selectionSchema
	}
	if err := schema.Validate(doc); err != nil {
		r.logger.Debug("snapshot does not match schema", "kind", kind, "error", err)
	}
	return doc
}

func decode(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseScene decodes a scene document leniently.
func ParseScene(data []byte) Scene {
	doc, _ := decode(data)
	return sceneFrom(doc)
}

// ParseSelection decodes a selection document leniently.
func ParseSelection(data []byte) Selection {
	doc, _ := decode(data)
	return selectionFrom(doc)
}

// ReadBehavior extracts the clamped tunables from a selection document.
// A missing or malformed document yields DefaultBehavior.
func ReadBehavior(data []byte) Behavior {
	doc, _ := decode(data)
	b, _ := doc["behavior"].(map[string]any)
	return behaviorFrom(b)
}

func sceneFrom(doc map[string]any) Scene {
	var s Scene
	for _, item := range asSlice(doc["objects"]) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, ok := m["name"].(string)
		if !ok || name == "" {
			continue
		}
		obj := Object{
			Name:      name,
			Type:      asString(m["type"]),
			Modifiers: asStrings(m["modifiers"]),
			Materials: asStrings(m["materials"]),
		}
		for i, c := range asSlice(m["location"]) {
			if i >= 3 {
				break
			}
			if f, ok := asFloat(c); ok {
				obj.Location[i] = f
			}
		}
		s.Objects = append(s.Objects, obj)
	}

	s.Materials = asStrings(doc["materials"])
	s.Cameras = asStrings(doc["cameras"])
	s.Addons = asStrings(doc["addons"])

	for _, item := range asSlice(doc["collections"]) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := Collection{Name: asString(m["name"])}
		if n, ok := asInt(m["object_count"]); ok {
			c.ObjectCount = n
		}
		if c.Name != "" {
			s.Collections = append(s.Collections, c)
		}
	}

	for _, item := range asSlice(doc["lights"]) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		l := Light{Name: asString(m["name"]), LightType: asString(m["light_type"])}
		if l.Name != "" {
			s.Lights = append(s.Lights, l)
		}
	}
	return s
}

func selectionFrom(doc map[string]any) Selection {
	sel := Selection{
		Active:   asString(doc["active"]),
		Selected: asStrings(doc["selected"]),
	}
	if p, ok := doc["pinned"].(map[string]any); ok {
		sel.Pinned.Enabled, _ = asBool(p["enabled"])
		sel.Pinned.Name = asString(p["name"])
	}
	b, _ := doc["behavior"].(map[string]any)
	sel.Behavior = behaviorFrom(b)
	sel.Steps = stepsFrom(b)
	return sel
}

func stepsFrom(m map[string]any) Steps {
	s := DefaultSteps()
	if v, ok := asFloat(m["step_move"]); ok {
		s.Move = v
	}
	if v, ok := asFloat(m["step_rotate"]); ok {
		s.Rotate = v
	}
	if v, ok := asFloat(m["step_scale"]); ok {
		s.Scale = v
	}
	if v, ok := asFloat(m["step_nudge"]); ok {
		s.Nudge = v
	}
	return s
}

func behaviorFrom(m map[string]any) Behavior {
	b := DefaultBehavior()
	if m == nil {
		return b
	}
	if v, ok := asBool(m["fast"]); ok {
		b.Fast = v
	}
	if v, ok := asInt(m["delay_ms"]); ok {
		b.DelayMS = v
	}
	if v, ok := asInt(m["burst_size"]); ok {
		b.BurstSize = v
	}
	if v, ok := asInt(m["confirm_every"]); ok {
		b.ConfirmEvery = v
	}
	if v, ok := asInt(m["anim_step"]); ok {
		b.AnimStep = v
	}
	animator, _ := asBool(m["animator"])
	animatorMode, _ := asBool(m["animator_mode"])
	b.Animator = animator || animatorMode
	b.Mode = asString(m["mode"])
	return b.Clamp()
}

// Clamp forces every tunable into its valid range.
func (b Behavior) Clamp() Behavior {
	if b.DelayMS < 0 {
		b.DelayMS = 0
	}
	if b.BurstSize < 1 {
		b.BurstSize = 1
	}
	if b.ConfirmEvery < 1 {
		b.ConfirmEvery = 1
	}
	if b.AnimStep < 1 {
		b.AnimStep = 1
	}
	return b
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStrings(v any) []string {
	items := asSlice(v)
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// asInt accepts JSON numbers and numeric strings; fractions truncate and
// magnitudes saturate at the int32 range. NaN is rejected.
func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32, true
	case f < math.MinInt32:
		return math.MinInt32, true
	}
	return int(f), true
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes", "on":
			return true, true
		case "false", "0", "no", "off":
			return false, true
		}
	case float64:
		return x != 0, true
	}
	return false, false
}
