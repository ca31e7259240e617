package memory

import (
	"strconv"
	"strings"

	"github.com/nerrad567/sceneagent/internal/snapshot"
)

// ChangeKind classifies one difference between two scene snapshots.
type ChangeKind string

const (
	ChangeMoved       ChangeKind = "moved"
	ChangeTypeChanged ChangeKind = "type_changed"
	ChangeAdded       ChangeKind = "added"
	ChangeDeleted     ChangeKind = "deleted"
)

// NoChanges is printed when two snapshots hold the same objects.
const NoChanges = "No changes detected"

// Change is one difference.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Name string     `json:"name"`
	From string     `json:"from,omitempty"`
	To   string     `json:"to,omitempty"`
}

// String renders the change as one report line.
func (c Change) String() string {
	switch c.Kind {
	case ChangeMoved:
		return c.Name + " moved from " + c.From + " to " + c.To
	case ChangeTypeChanged:
		return c.Name + " type changed from " + c.From + " to " + c.To
	case ChangeAdded:
		return "New object: " + c.Name + " (" + c.To + ")"
	case ChangeDeleted:
		return "Deleted object: " + c.Name + " (" + c.From + ")"
	default:
		return c.Name
	}
}

// Diff compares the scene objects of the last two tasks.
//
// Returns:
//   - []Change: Moves, type changes and additions in current object order,
//     then deletions in previous object order
//   - error: ErrNotEnoughTasks with fewer than two tasks
func Diff(tasks []Task) ([]Change, error) {
	if len(tasks) < 2 {
		return nil, ErrNotEnoughTasks
	}
	return DiffScenes(tasks[len(tasks)-2].Scene, tasks[len(tasks)-1].Scene), nil
}

// DiffScenes compares two snapshots by object name.
func DiffScenes(prev, curr snapshot.Scene) []Change {
	before := make(map[string]snapshot.Object, len(prev.Objects))
	for _, o := range prev.Objects {
		if _, dup := before[o.Name]; !dup {
			before[o.Name] = o
		}
	}
	after := make(map[string]bool, len(curr.Objects))

	var changes []Change
	for _, c := range curr.Objects {
		after[c.Name] = true
		p, ok := before[c.Name]
		if !ok {
			changes = append(changes, Change{Kind: ChangeAdded, Name: c.Name, To: c.Type})
			continue
		}
		if p.Location != c.Location {
			changes = append(changes, Change{Kind: ChangeMoved, Name: c.Name, From: FormatLocation(p.Location), To: FormatLocation(c.Location)})
		}
		if p.Type != c.Type {
			changes = append(changes, Change{Kind: ChangeTypeChanged, Name: c.Name, From: p.Type, To: c.Type})
		}
	}
	for _, p := range prev.Objects {
		if !after[p.Name] {
			changes = append(changes, Change{Kind: ChangeDeleted, Name: p.Name, From: p.Type})
		}
	}
	return changes
}

// Report renders changes one per line, or NoChanges when there are none.
func Report(changes []Change) []string {
	if len(changes) == 0 {
		return []string{NoChanges}
	}
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.String()
	}
	return out
}

// FormatLocation renders a location as "[x, y, z]" with at least one
// decimal place per component.
func FormatLocation(loc [3]float64) string {
	parts := make([]string, 3)
	for i, v := range loc {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
