package queue

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/nerrad567/sceneagent/internal/bridge"
)

// Block is one queued unit of work: the raw directive lines of a paragraph.
type Block []string

// Head returns a short one-line description of the block for logs.
func (b Block) Head() string {
	if len(b) == 0 {
		return ""
	}
	head := b[0]
	if r := []rune(head); len(r) > 100 {
		head = string(r[:100])
	}
	if len(b) > 1 {
		head += " ..."
	}
	return head
}

// Queue is a block queue persisted in one text document.
//
// Thread Safety:
//   - Methods serialise within this process. Writers in other processes
//     are not excluded (see package documentation).
type Queue struct {
	path string
	mu   sync.Mutex
}

// New returns a Queue backed by the document at path. The document need
// not exist.
func New(path string) *Queue {
	return &Queue{path: path}
}

// Path returns the backing document location.
func (q *Queue) Path() string {
	return q.path
}

// Pop removes and returns the first block.
//
// Returns:
//   - Block: The popped lines
//   - bool: false when the queue holds no block; the store is then empty text
//   - error: If the document exists but cannot be read or rewritten
func (q *Queue) Pop() (Block, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	lines, exists, err := q.read()
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	i := 0
	for i < len(lines) && isBlank(lines[i]) {
		i++
	}
	if i == len(lines) {
		if err := q.write(nil); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	var block Block
	for i < len(lines) {
		ln := lines[i]
		i++
		if isBlank(ln) {
			break
		}
		block = append(block, ln)
	}

	if err := q.write(lines[i:]); err != nil {
		return nil, false, err
	}
	return block, true, nil
}

// Append adds a block followed by one blank separator line.
// Carriage returns are dropped and trailing blank lines are trimmed.
// Blank lines inside the input would split it into several blocks; they
// are kept as-is so callers can enqueue several blocks at once.
func (q *Queue) Append(lines []string) error {
	var normalized []string
	for _, ln := range lines {
		for _, part := range strings.Split(strings.ReplaceAll(ln, "\r\n", "\n"), "\n") {
			normalized = append(normalized, strings.TrimRight(part, "\r"))
		}
	}
	for len(normalized) > 0 && isBlank(normalized[len(normalized)-1]) {
		normalized = normalized[:len(normalized)-1]
	}
	for len(normalized) > 0 && isBlank(normalized[0]) {
		normalized = normalized[1:]
	}
	if len(normalized) == 0 {
		return ErrEmptyBlock
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	prefix, err := q.separatorNeeded()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(q.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening queue: %w", err)
	}
	defer f.Close()

	text := prefix + strings.Join(normalized, "\n") + "\n\n"
	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("appending to queue: %w", err)
	}
	return nil
}

// Len counts the blocks currently queued.
func (q *Queue) Len() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	lines, _, err := q.read()
	if err != nil {
		return 0, err
	}
	n := 0
	inBlock := false
	for _, ln := range lines {
		switch {
		case isBlank(ln):
			inBlock = false
		case !inBlock:
			inBlock = true
			n++
		}
	}
	return n, nil
}

// Clear truncates the queue to empty text.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.write(nil)
}

// separatorNeeded returns what must precede an appended block so that it
// starts a new paragraph, for documents hand-edited without a trailing
// blank line.
func (q *Queue) separatorNeeded() (string, error) {
	data, err := os.ReadFile(q.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading queue: %w", err)
	}
	text := strings.TrimRight(strings.ReplaceAll(string(data), "\r\n", "\n"), " \t")
	switch {
	case strings.TrimSpace(text) == "":
		return "", nil
	case strings.HasSuffix(text, "\n\n"):
		return "", nil
	case strings.HasSuffix(text, "\n"):
		lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
		if isBlank(lines[len(lines)-1]) {
			return "", nil
		}
		return "\n", nil
	default:
		return "\n\n", nil
	}
}

// read returns the document split into lines without terminators.
func (q *Queue) read() ([]string, bool, error) {
	data, err := os.ReadFile(q.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading queue: %w", err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if text == "" {
		return nil, true, nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n"), true, nil
}

// write replaces the document with the given lines, each newline-terminated.
func (q *Queue) write(lines []string) error {
	var sb strings.Builder
	for _, ln := range lines {
		sb.WriteString(ln)
		sb.WriteByte('\n')
	}
	if err := bridge.WriteFileAtomic(q.path, []byte(sb.String())); err != nil {
		return fmt.Errorf("rewriting queue: %w", err)
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
