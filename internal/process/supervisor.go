package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// State is the supervisor's view of the program.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateBackoff  State = "backoff"
	StateFailed   State = "failed"
)

// maxHealthFailures is the consecutive failure count that kills the program.
const maxHealthFailures = 3

// Logger defines the logging interface for the supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Supervisor runs one program and restarts it when it dies.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Start and Stop may be called repeatedly; a stopped supervisor can be
//     started again.
type Supervisor struct {
	cfg    Config
	logger Logger

	mu        sync.RWMutex
	cmd       *exec.Cmd
	state     State
	active    bool
	stopping  bool
	restarts  int
	lastErr   error
	startedAt time.Time
	stopCh    chan struct{}
	done      chan struct{}
}

// NewSupervisor applies defaults to cfg and returns an idle supervisor.
func NewSupervisor(cfg Config) *Supervisor {
	return &Supervisor{
		cfg:    cfg.withDefaults(),
		logger: noopLogger{},
		state:  StateStopped,
	}
}

// SetLogger sets the logger. Nil restores the no-op logger.
func (s *Supervisor) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.mu.Lock()
	s.logger = logger
	s.mu.Unlock()
}

func (s *Supervisor) log() Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

// Start launches the program and begins supervising it. Cancelling ctx
// terminates the program gracefully and ends supervision.
//
// Returns:
//   - error: ErrNoBinary, ErrAlreadyRunning, or the launch failure
func (s *Supervisor) Start(ctx context.Context) error {
	if s.cfg.Binary == "" {
		return ErrNoBinary
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.active = true
	s.stopping = false
	s.restarts = 0
	s.lastErr = nil
	s.state = StateStarting
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	cmd, err := s.launch(ctx)
	if err != nil {
		s.mu.Lock()
		s.active = false
		s.state = StateFailed
		s.lastErr = err
		s.mu.Unlock()
		close(done)
		return err
	}

	go s.supervise(ctx, cmd, done)
	return nil
}

func (s *Supervisor) launch(ctx context.Context) (*exec.Cmd, error) {
	log := s.log()
	log.Info("starting program", "name", s.cfg.Name, "binary", s.cfg.Binary, "args", s.cfg.Args)

	cmd := exec.CommandContext(ctx, s.cfg.Binary, s.cfg.Args...) //nolint:gosec // binary comes from operator config
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return signalGroup(cmd, syscall.SIGTERM)
	}
	cmd.WaitDelay = s.cfg.GracefulTimeout
	cmd.Dir = s.cfg.WorkDir
	if len(s.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), s.cfg.Env...)
	}
	cmd.Stdout = &lineLogger{log: log, name: s.cfg.Name, stream: "stdout"}
	cmd.Stderr = &lineLogger{log: log, name: s.cfg.Name, stream: "stderr"}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", s.cfg.Name, err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.state = StateRunning
	s.startedAt = time.Now()
	s.mu.Unlock()

	log.Info("program started", "name", s.cfg.Name, "pid", cmd.Process.Pid)
	if s.cfg.OnStart != nil {
		s.cfg.OnStart(cmd.Process.Pid)
	}
	return cmd, nil
}

func (s *Supervisor) supervise(ctx context.Context, cmd *exec.Cmd, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.active = false
		s.cmd = nil
		s.mu.Unlock()
		close(done)
	}()

	for {
		err := s.wait(ctx, cmd)

		s.mu.Lock()
		stopping := s.stopping
		ran := time.Since(s.startedAt)
		if stopping || ctx.Err() != nil {
			s.state = StateStopped
			s.mu.Unlock()
			s.log().Info("program stopped", "name", s.cfg.Name)
			if s.cfg.OnExit != nil {
				s.cfg.OnExit(nil)
			}
			return
		}
		if ran >= s.cfg.StableThreshold {
			s.restarts = 0
		}
		s.state = StateFailed
		s.lastErr = err
		s.mu.Unlock()

		s.log().Warn("program exited unexpectedly", "name", s.cfg.Name, "error", err, "ran", ran)
		if s.cfg.OnExit != nil {
			s.cfg.OnExit(err)
		}
		if !s.cfg.RestartOnFailure {
			return
		}

		next, ok := s.restart(ctx)
		if !ok {
			return
		}
		cmd = next
	}
}

// restart waits out the backoff and relaunches, retrying failed launches
// until the attempt budget runs out or supervision is cancelled.
func (s *Supervisor) restart(ctx context.Context) (*exec.Cmd, bool) {
	for {
		s.mu.Lock()
		s.restarts++
		attempt := s.restarts
		stopCh := s.stopCh
		s.mu.Unlock()

		if s.cfg.MaxRestartAttempts > 0 && attempt > s.cfg.MaxRestartAttempts {
			s.log().Error("giving up on program", "name", s.cfg.Name, "attempts", attempt-1)
			return nil, false
		}

		delay := s.cfg.backoff(attempt)
		s.setState(StateBackoff)
		s.log().Info("restarting program", "name", s.cfg.Name, "attempt", attempt, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.setState(StateStopped)
			return nil, false
		case <-stopCh:
			timer.Stop()
			s.setState(StateStopped)
			return nil, false
		case <-timer.C:
		}

		cmd, err := s.launch(ctx)
		if err == nil {
			return cmd, true
		}
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.log().Error("restart failed", "name", s.cfg.Name, "error", err)
	}
}

// wait blocks until the program exits. With a health check configured it
// kills the program after maxHealthFailures consecutive failures.
func (s *Supervisor) wait(ctx context.Context, cmd *exec.Cmd) error {
	exitCh := make(chan error, 1)
	go func() { exitCh <- cmd.Wait() }()

	if s.cfg.HealthCheck == nil {
		return <-exitCh
	}

	ticker := time.NewTicker(s.cfg.HealthCheckInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case err := <-exitCh:
			return err
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := s.cfg.HealthCheck(checkCtx)
			cancel()

			if err == nil {
				if failures > 0 {
					s.log().Info("health check recovered", "name", s.cfg.Name, "previous_failures", failures)
				}
				failures = 0
				continue
			}

			failures++
			s.log().Warn("health check failed", "name", s.cfg.Name, "error", err, "consecutive_failures", failures)
			if failures < maxHealthFailures {
				continue
			}

			_ = signalGroup(cmd, syscall.SIGKILL)
			exitErr := <-exitCh
			s.log().Error("killed unhealthy program", "name", s.cfg.Name, "exit", exitErr)
			return fmt.Errorf("%w: %d consecutive failures", ErrUnhealthy, failures)
		}
	}
}

// Stop terminates the program and ends supervision. SIGTERM goes to the
// whole process group; SIGKILL follows after GracefulTimeout.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if !s.active || s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	close(s.stopCh)
	cmd := s.cmd
	done := s.done
	s.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		<-done
		return nil
	}

	s.log().Info("stopping program", "name", s.cfg.Name, "pid", cmd.Process.Pid)
	if err := signalGroup(cmd, syscall.SIGTERM); err != nil {
		s.log().Warn("SIGTERM failed", "name", s.cfg.Name, "error", err)
	}

	select {
	case <-done:
		return nil
	case <-time.After(s.cfg.GracefulTimeout):
		s.log().Warn("graceful stop timed out, killing", "name", s.cfg.Name, "timeout", s.cfg.GracefulTimeout)
	}

	if err := signalGroup(cmd, syscall.SIGKILL); err != nil {
		return fmt.Errorf("killing %s: %w", s.cfg.Name, err)
	}
	<-done
	return nil
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	err := syscall.Kill(-cmd.Process.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State returns the current supervision state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Stats is a point-in-time view of the supervised program.
type Stats struct {
	Name      string        `json:"name"`
	State     State         `json:"state"`
	PID       int           `json:"pid,omitempty"`
	Uptime    time.Duration `json:"uptime,omitempty"`
	Restarts  int           `json:"restarts"`
	LastError string        `json:"last_error,omitempty"`
}

// Stats returns the current statistics.
func (s *Supervisor) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Name: s.cfg.Name, State: s.state, Restarts: s.restarts}
	if s.cmd != nil && s.cmd.Process != nil && s.state == StateRunning {
		st.PID = s.cmd.Process.Pid
		st.Uptime = time.Since(s.startedAt)
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// lineLogger turns a byte stream into one debug record per line.
type lineLogger struct {
	log    Logger
	name   string
	stream string
	buf    bytes.Buffer
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.buf.Write(p)
	for {
		line, err := l.buf.ReadBytes('\n')
		if err != nil {
			// Partial line: keep it for the next write.
			rest := append([]byte(nil), line...)
			l.buf.Reset()
			l.buf.Write(rest)
			return len(p), nil
		}
		if text := bytes.TrimRight(line, "\r\n"); len(text) > 0 {
			l.log.Debug("program output", "name", l.name, "stream", l.stream, "line", string(text))
		}
	}
}
