package memory

import (
	"strconv"

	"github.com/nerrad567/sceneagent/internal/snapshot"
)

// HistoryDepth is how many recent tasks a Summary lists.
const HistoryDepth = 5

// Summary is a printable digest of a scene and its recent history.
type Summary struct {
	Objects     []string       `json:"objects"`
	Materials   []string       `json:"materials"`
	Cameras     []string       `json:"cameras"`
	Lights      []string       `json:"lights"`
	Collections []string       `json:"collections"`
	Addons      []string       `json:"addons"`
	LastCommand string         `json:"last_command,omitempty"`
	History     []HistoryEntry `json:"history"`
}

// HistoryEntry is one recent task with its object list.
type HistoryEntry struct {
	Timestamp string   `json:"timestamp"`
	Command   string   `json:"command"`
	Objects   []string `json:"objects"`
}

// Summarize builds a Summary from the current scene and the task history.
func Summarize(scene snapshot.Scene, tasks []Task) Summary {
	s := Summary{
		Objects:   describeObjects(scene.Objects),
		Materials: nonNil(scene.Materials),
		Cameras:   nonNil(scene.Cameras),
		Addons:    nonNil(scene.Addons),
	}
	s.Lights = make([]string, 0, len(scene.Lights))
	for _, l := range scene.Lights {
		s.Lights = append(s.Lights, l.Name+" ("+l.LightType+")")
	}
	s.Collections = make([]string, 0, len(scene.Collections))
	for _, c := range scene.Collections {
		s.Collections = append(s.Collections, c.Name+" ("+strconv.Itoa(c.ObjectCount)+" objects)")
	}
	if cmd, err := LastCommand(tasks); err == nil {
		s.LastCommand = cmd
	}

	s.History = make([]HistoryEntry, 0, HistoryDepth)
	for _, t := range Recent(tasks, HistoryDepth) {
		e := HistoryEntry{Timestamp: t.Timestamp, Command: t.Command, Objects: describeObjects(t.Scene.Objects)}
		if e.Timestamp == "" {
			e.Timestamp = "No timestamp"
		}
		if e.Command == "" {
			e.Command = "No command"
		}
		s.History = append(s.History, e)
	}
	return s
}

// DescribeObject renders "Name (TYPE) at [x, y, z]".
func DescribeObject(o snapshot.Object) string {
	return o.Name + " (" + o.Type + ") at " + FormatLocation(o.Location)
}

func describeObjects(objs []snapshot.Object) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, DescribeObject(o))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
