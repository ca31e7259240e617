package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/nerrad567/sceneagent/internal/snapshot"
)

// Task is one history entry.
type Task struct {
	Command   string         `json:"command"`
	Timestamp string         `json:"timestamp"`
	Scene     snapshot.Scene `json:"scene"`
}

// rawTask defers scene decoding to the lenient snapshot parser.
type rawTask struct {
	Command   string          `json:"command"`
	Timestamp any             `json:"timestamp"`
	Scene     json.RawMessage `json:"scene"`
}

// Load reads the task memory document at path. A missing file is an empty
// history.
func Load(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading task memory: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON array or JSON Lines history. Blank lines in JSON
// Lines input are ignored.
func Parse(data []byte) ([]Task, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var raws []rawTask
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("decoding task array: %w", err)
		}
	} else {
		for i, line := range bytes.Split(data, []byte("\n")) {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			var r rawTask
			if err := json.Unmarshal(line, &r); err != nil {
				return nil, fmt.Errorf("decoding task line %d: %w", i+1, err)
			}
			raws = append(raws, r)
		}
	}

	tasks := make([]Task, 0, len(raws))
	for _, r := range raws {
		t := Task{Command: r.Command, Scene: snapshot.ParseScene(r.Scene)}
		switch ts := r.Timestamp.(type) {
		case nil:
		case string:
			t.Timestamp = ts
		case float64:
			t.Timestamp = strconv.FormatFloat(ts, 'f', -1, 64)
		default:
			t.Timestamp = fmt.Sprint(ts)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// LastCommand returns the most recent command text, trimmed.
func LastCommand(tasks []Task) (string, error) {
	if len(tasks) == 0 {
		return "", ErrNoTasks
	}
	return strings.TrimSpace(tasks[len(tasks)-1].Command), nil
}

// Recent returns the last n tasks, oldest first.
func Recent(tasks []Task, n int) []Task {
	if n <= 0 || n >= len(tasks) {
		return tasks
	}
	return tasks[len(tasks)-n:]
}
