package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/sceneagent/internal/bridge"
	"github.com/nerrad567/sceneagent/internal/control"
	"github.com/nerrad567/sceneagent/internal/directive"
	"github.com/nerrad567/sceneagent/internal/ledger"
	"github.com/nerrad567/sceneagent/internal/queue"
	"github.com/nerrad567/sceneagent/internal/script"
	"github.com/nerrad567/sceneagent/internal/snapshot"
)

// Orchestrator owns the run state and drives the dispatch loop.
//
// Thread Safety:
//   - Run and Tick must be called from a single goroutine.
//   - Status and State are safe for concurrent use.
type Orchestrator struct {
	transport Transport
	queue     BlockSource
	snaps     Snapshots
	compiler  Compiler
	machine   *control.Machine
	opts      Options
	logger    Logger

	publisher EventPublisher
	hub       WSHub
	ledger    Ledger
	metrics   Metrics

	// Replaced in tests.
	sleep    func(ctx context.Context, d time.Duration) error
	await    func(ctx context.Context, timeout, poll time.Duration, cond func() bool) (bool, error)
	newRunID func() string
	now      func() time.Time

	mu     sync.RWMutex
	status Status
}

// New creates an Orchestrator.
//
// Parameters:
//   - transport: File channel to the engine (command, trigger, log, control)
//   - blocks: Persisted block queue
//   - snaps: Scene and selection snapshot reader
//   - compiler: Directive compiler
//   - opts: Pacing constants
//   - logger: Logger instance (nil discards)
//
// Returns:
//   - *Orchestrator: Ready to Run
//   - error: ErrMissingDependency if a required collaborator is nil
func New(transport Transport, blocks BlockSource, snaps Snapshots, compiler Compiler, opts Options, logger Logger) (*Orchestrator, error) {
	if transport == nil || blocks == nil || snaps == nil || compiler == nil {
		return nil, ErrMissingDependency
	}
	if logger == nil {
		logger = noopLogger{}
	}

	initial := control.Running
	if opts.StartPaused {
		initial = control.Paused
	}

	o := &Orchestrator{
		transport: transport,
		queue:     blocks,
		snaps:     snaps,
		compiler:  compiler,
		machine:   control.NewMachine(initial),
		opts:      opts,
		logger:    logger,
		sleep:     sleepCtx,
		await:     bridge.Await,
		newRunID:  NewRunID,
		now:       time.Now,
	}
	o.status = Status{State: initial.String(), StartedAt: o.now(), Behavior: snapshot.DefaultBehavior()}
	return o, nil
}

// SetPublisher attaches an MQTT event publisher.
func (o *Orchestrator) SetPublisher(p EventPublisher) { o.publisher = p }

// SetHub attaches a WebSocket hub.
func (o *Orchestrator) SetHub(h WSHub) { o.hub = h }

// SetLedger attaches the dispatch ledger.
func (o *Orchestrator) SetLedger(l Ledger) { o.ledger = l }

// SetMetrics attaches a time-series writer.
func (o *Orchestrator) SetMetrics(m Metrics) { o.metrics = m }

// State returns the current run state.
func (o *Orchestrator) State() control.State {
	return o.machine.State()
}

// Status returns a copy of the counters.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

// Run ticks until STOP or ctx cancellation.
//
// Returns:
//   - error: nil after STOP, ctx.Err() on cancellation
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("agent started", "state", o.machine.State().String())
	o.emit(EventState, StateEvent{State: o.machine.State().String(), At: o.now()}, true)

	for {
		err := o.Tick(ctx)
		switch {
		case errors.Is(err, ErrStopped):
			o.logger.Info("agent stopped")
			return nil
		case err != nil:
			return err
		}
	}
}

// Tick runs one scheduling pass.
//
// Returns:
//   - error: ErrStopped once STOP is consumed, ctx.Err() on cancellation,
//     nil otherwise. Transport, compile and confirmation failures are
//     logged and never returned.
func (o *Orchestrator) Tick(ctx context.Context) error { //nolint:gocognit,gocyclo // burst loop with confirmation cadence
	if err := ctx.Err(); err != nil {
		return err
	}
	started := o.now()
	o.pollControl()

	state := o.machine.State()
	switch state {
	case control.Stopped:
		return ErrStopped
	case control.Paused:
		o.setState(state)
		return o.sleep(ctx, o.opts.PausedIdle)
	}

	sel := o.snaps.Selection()
	beh := sel.Behavior.Clamp()
	burst := beh.BurstSize
	if state == control.Stepping {
		burst = 1
	}
	delay := ms(beh.DelayMS)
	version := o.transport.SceneVersion()

	var sent, discarded, counter int
	for sent < burst {
		block, ok, err := o.queue.Pop()
		if err != nil {
			o.logger.Warn("reading queue failed", "error", err)
			break
		}
		if !ok {
			break
		}

		scene := o.snaps.Scene()
		sel = o.snaps.Selection()
		res := o.compiler.CompileBlock(block, scene, sel)
		head := block.Head()
		for _, s := range res.Skipped {
			o.emit(EventSkip, SkipEvent{BlockHead: head, Clause: s.Clause, Reason: s.Reason.Error()}, false)
		}
		if res.Empty() {
			discarded++
			o.logger.Warn("discarding block that compiled to nothing", "block", head, "skipped", len(res.Skipped))
			o.emit(EventSkip, SkipEvent{BlockHead: head, Reason: "no operations", Discarded: true}, false)
			continue
		}

		ops := res.Ops
		animator := sel.Behavior.Animator
		if animator {
			ops = append([]script.Operation{script.FrameSync{}}, ops...)
		}
		env := Envelope{RunID: o.newRunID(), Code: script.Join(ops)}
		d := ledger.Dispatch{
			RunID:        env.RunID,
			DispatchedAt: o.now(),
			BlockHead:    head,
			Lines:        len(block),
			Operations:   len(res.Ops),
			Skipped:      len(res.Skipped),
			Animator:     animator,
		}

		if err := o.transport.Send(env.Text()); err != nil {
			o.logger.Error("sending envelope failed, block dropped", "run_id", env.RunID, "block", head, "error", err)
			d.Error = err.Error()
			o.record(ctx, d)
			o.bump(func(s *Status) { s.SendErrors++ })
			break
		}
		sent++
		counter++
		o.logger.Info("dispatched block", "run_id", env.RunID, "block", head, "operations", len(res.Ops))
		o.emit(EventDispatch, DispatchEvent{
			RunID:      env.RunID,
			BlockHead:  head,
			Lines:      len(block),
			Operations: len(res.Ops),
			Targets:    targetsOf(res.Ops),
			Animator:   animator,
			At:         d.DispatchedAt,
		}, false)
		o.bump(func(s *Status) {
			s.Sent++
			s.LastRunID = env.RunID
			s.LastDispatch = d.DispatchedAt
		})

		if counter%beh.ConfirmEvery == 0 || sent == burst {
			since := version
			waitStart := o.now()
			confirmed, err := o.await(ctx, o.opts.confirmTimeout(beh.Fast), o.opts.ConfirmPoll, func() bool {
				return o.transport.Confirmed(since)
			})
			if err != nil {
				o.record(ctx, d)
				return err
			}
			d.ConfirmWaited = true
			d.Confirmed = confirmed
			d.ConfirmTime = o.now().Sub(waitStart)
			if confirmed {
				o.bump(func(s *Status) { s.Confirmed++ })
			} else {
				o.logger.Warn("confirmation timed out", "run_id", env.RunID, "waited", d.ConfirmTime)
				o.bump(func(s *Status) { s.Timeouts++ })
			}
			o.emit(EventConfirm, ConfirmEvent{RunID: env.RunID, Confirmed: confirmed, WaitedMS: d.ConfirmTime.Milliseconds()}, false)
			// Advanced even on timeout; a late confirmation may be credited
			// to the next envelope.
			version = o.transport.SceneVersion()
		}
		o.record(ctx, d)

		if beh.Fast {
			if err := o.sleep(ctx, o.opts.FastYield); err != nil {
				return err
			}
		}
	}

	if sent == 0 {
		if err := o.sleep(ctx, o.opts.idle(beh.Fast, delay)); err != nil {
			return err
		}
	}

	if state == control.Stepping && o.machine.CompleteStep() {
		o.logger.Info("step complete, pausing")
		o.emit(EventState, StateEvent{State: control.Paused.String(), At: o.now()}, true)
	}

	o.finishTick(ctx, started, beh, sent, discarded)

	if !beh.Fast {
		return o.sleep(ctx, max(o.opts.SlowMinDelay, delay))
	}
	return nil
}

// targetsOf lists the distinct objects ops act on, in first-use order.
func targetsOf(ops []script.Operation) []string {
	var out []string
	seen := make(map[string]bool)
	for _, op := range ops {
		t := script.TargetOf(op)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// pollControl consumes the control document. Read failures count as no signal.
func (o *Orchestrator) pollControl() {
	sig, err := o.machine.Poll(o.transport)
	if err != nil {
		o.logger.Warn("control document unavailable", "error", err)
	}
	if sig == control.SignalNone {
		return
	}
	state := o.machine.State()
	o.logger.Info("control signal", "signal", string(sig), "state", state.String())
	o.emit(EventState, StateEvent{State: state.String(), Signal: string(sig), At: o.now()}, true)
	o.setState(state)
}

func (o *Orchestrator) finishTick(ctx context.Context, started time.Time, beh snapshot.Behavior, sent, discarded int) {
	depth, err := o.queue.Len()
	if err != nil {
		o.logger.Debug("queue length unavailable", "error", err)
	}
	state := o.machine.State()

	o.bump(func(s *Status) {
		s.Ticks++
		s.Discarded += uint64(discarded) //nolint:gosec // discarded is never negative
		s.QueueDepth = depth
		s.Behavior = beh
		s.State = state.String()
	})

	if sent == 0 && discarded == 0 {
		return
	}
	if o.metrics != nil {
		o.metrics.WriteTick(state.String(), sent, discarded, depth)
	}
	if o.ledger != nil {
		t := ledger.Tick{
			StartedAt:  started,
			State:      state.String(),
			Fast:       beh.Fast,
			BurstSize:  beh.BurstSize,
			Sent:       sent,
			Discarded:  discarded,
			QueueDepth: depth,
		}
		if err := o.ledger.RecordTick(ctx, t); err != nil {
			o.logger.Warn("recording tick failed", "error", err)
		}
	}
}

func (o *Orchestrator) record(ctx context.Context, d ledger.Dispatch) {
	if o.metrics != nil && d.Error == "" {
		o.metrics.WriteDispatch(d.RunID, d.Operations, d.Skipped, d.Confirmed, d.ConfirmTime)
	}
	if o.ledger == nil {
		return
	}
	// Record even when ctx was cancelled mid-wait.
	if err := o.ledger.RecordDispatch(context.WithoutCancel(ctx), d); err != nil {
		o.logger.Warn("recording dispatch failed", "run_id", d.RunID, "error", err)
	}
}

func (o *Orchestrator) emit(kind string, payload any, retained bool) {
	if o.hub != nil {
		o.hub.Broadcast(kind, payload)
	}
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishEvent(kind, payload, retained); err != nil {
		o.logger.Debug("publishing event failed", "kind", kind, "error", err)
	}
}

func (o *Orchestrator) setState(s control.State) {
	o.bump(func(st *Status) { st.State = s.String() })
}

func (o *Orchestrator) bump(fn func(*Status)) {
	o.mu.Lock()
	fn(&o.status)
	o.mu.Unlock()
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var (
	_ Transport   = (*bridge.Bridge)(nil)
	_ BlockSource = (*queue.Queue)(nil)
	_ Snapshots   = (*snapshot.Reader)(nil)
	_ Compiler    = (*directive.Compiler)(nil)
)
