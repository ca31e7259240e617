package bridge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nerrad567/sceneagent/internal/infrastructure/config"
)

// triggerContent is what the engine expects in the trigger file.
const triggerContent = "run"

// Paths holds the absolute locations of every shared document.
type Paths struct {
	Input      string
	Trigger    string
	Output     string
	Scene      string
	Selection  string
	Queue      string
	Control    string
	TaskMemory string
}

// PathsFrom resolves the configured file names under the bridge directory.
func PathsFrom(cfg config.BridgeConfig) Paths {
	join := func(name string) string {
		if name == "" {
			return ""
		}
		return filepath.Join(cfg.Dir, name)
	}
	return Paths{
		Input:      join(cfg.Files.Input),
		Trigger:    join(cfg.Files.Trigger),
		Output:     join(cfg.Files.Output),
		Scene:      join(cfg.Files.Scene),
		Selection:  join(cfg.Files.Selection),
		Queue:      join(cfg.Files.Queue),
		Control:    join(cfg.Files.Control),
		TaskMemory: join(cfg.Files.TaskMemory),
	}
}

// Bridge reads and writes the shared folder.
//
// Thread Safety:
//   - Bridge holds no mutable state; concurrent use is as safe as the
//     underlying filesystem (last writer wins).
type Bridge struct {
	paths  Paths
	marker string
}

// New creates a Bridge for the configured folder.
//
// Parameters:
//   - cfg: Bridge configuration (folder, file names, success marker)
//
// Returns:
//   - *Bridge: Transport ready for use; the folder is created lazily on first write
func New(cfg config.BridgeConfig) *Bridge {
	return &Bridge{
		paths:  PathsFrom(cfg),
		marker: cfg.SuccessMarker,
	}
}

// Paths returns the resolved document locations.
func (b *Bridge) Paths() Paths {
	return b.paths
}

// Send writes the command text to the input document and then raises the
// trigger. The input is complete on disk before the trigger appears.
func (b *Bridge) Send(code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrEmptyCommand
	}
	if err := WriteFileAtomic(b.paths.Input, []byte(code)); err != nil {
		return fmt.Errorf("writing command: %w", err)
	}
	if err := WriteFileAtomic(b.paths.Trigger, []byte(triggerContent)); err != nil {
		return fmt.Errorf("raising trigger: %w", err)
	}
	return nil
}

// Pending reports whether a trigger is still waiting for the engine.
func (b *Bridge) Pending() bool {
	_, err := os.Stat(b.paths.Trigger)
	return err == nil
}

// PendingCommand returns the command text the engine has not yet picked
// up, or "" when no trigger is raised.
func (b *Bridge) PendingCommand() string {
	if !b.Pending() {
		return ""
	}
	return ReadText(b.paths.Input)
}

// SceneVersion returns the scene snapshot's modification time, or the zero
// time when the snapshot does not exist.
func (b *Bridge) SceneVersion() time.Time {
	return ModTime(b.paths.Scene)
}

// Confirmed reports whether the engine has processed a command since the
// given scene version: either the scene snapshot advanced past it, or the
// execution log holds the success marker.
func (b *Bridge) Confirmed(since time.Time) bool {
	if b.SceneVersion().After(since) {
		return true
	}
	return b.marker != "" && strings.Contains(ReadText(b.paths.Output), b.marker)
}

// ExecLog returns the current execution log text, or "" if absent.
func (b *Bridge) ExecLog() string {
	return ReadText(b.paths.Output)
}

// ReadSignal returns the raw control document text. A missing document is
// an empty signal.
func (b *Bridge) ReadSignal() (string, error) {
	data, err := os.ReadFile(b.paths.Control)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading control document: %w", err)
	}
	return string(data), nil
}

// ClearSignal truncates the control document so a signal fires once.
func (b *Bridge) ClearSignal() error {
	if err := os.WriteFile(b.paths.Control, nil, 0o644); err != nil {
		return fmt.Errorf("clearing control document: %w", err)
	}
	return nil
}

// WriteSignal replaces the control document with one token. Only the four
// control tokens are accepted, case-insensitively.
func (b *Bridge) WriteSignal(token string) error {
	t := strings.ToUpper(strings.TrimSpace(token))
	switch t {
	case "PAUSE", "RESUME", "STEP", "STOP":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSignal, token)
	}
	if err := WriteFileAtomic(b.paths.Control, []byte(t)); err != nil {
		return fmt.Errorf("writing control document: %w", err)
	}
	return nil
}

// ReadText returns a file's contents, or "" when it cannot be read.
func ReadText(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// ModTime returns a file's modification time, or the zero time when it
// cannot be stat'ed.
func ModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// WriteFileAtomic writes data to path via a sibling temp file and rename.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
