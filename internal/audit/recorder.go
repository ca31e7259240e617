package audit

import (
	"context"
	"strings"
)

// recorderBuffer is the number of entries held while the writer catches up.
const recorderBuffer = 256

// Logger is the subset of the application logger the recorder uses.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder queues entries and writes them serially from Run.
//
// Thread Safety: Record may be called from any goroutine. A nil *Recorder
// accepts and discards every entry.
type Recorder struct {
	repo   Repository
	logger Logger
	ch     chan *Entry
}

// NewRecorder creates a recorder writing to repo. logger may be nil.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{
		repo:   repo,
		logger: logger,
		ch:     make(chan *Entry, recorderBuffer),
	}
}

// Record queues an entry without blocking. The entry is dropped when the
// buffer is full.
func (r *Recorder) Record(action, source string, details map[string]any) {
	if r == nil {
		return
	}
	e := &Entry{Action: action, Source: source, Details: details}
	select {
	case r.ch <- e:
	default:
		r.logger.Warn("audit buffer full, dropping entry", "action", action, "source", source)
	}
}

// Run writes queued entries until ctx is cancelled, then drains what is left.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case e := <-r.ch:
			r.write(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-r.ch:
					r.write(e)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(e *Entry) {
	// The caller's context is gone during the shutdown drain.
	if err := r.repo.Create(context.Background(), e); err != nil {
		r.logger.Error("audit write failed", "action", e.Action, "source", e.Source, "error", err)
	}
}

// SignalWriter writes one control token to the control document.
type SignalWriter interface {
	WriteSignal(token string) error
}

// Signals wraps w so every accepted token is recorded as a control action
// from source. Rejected tokens are not recorded.
func (r *Recorder) Signals(w SignalWriter, source string) SignalWriter {
	return recordingWriter{next: w, rec: r, source: source}
}

type recordingWriter struct {
	next   SignalWriter
	rec    *Recorder
	source string
}

func (w recordingWriter) WriteSignal(token string) error {
	if err := w.next.WriteSignal(token); err != nil {
		return err
	}
	w.rec.Record(ActionControl, w.source, map[string]any{
		"signal": strings.ToUpper(strings.TrimSpace(token)),
	})
	return nil
}
