package process

import (
	"context"
	"time"

	"github.com/nerrad567/sceneagent/internal/infrastructure/config"
)

// Default supervision timings.
const (
	DefaultRestartDelay        = 5 * time.Second
	DefaultMaxRestartDelay     = 5 * time.Minute
	DefaultStableThreshold     = 2 * time.Minute
	DefaultGracefulTimeout     = 10 * time.Second
	DefaultHealthCheckInterval = 30 * time.Second
)

// Config describes one supervised program.
type Config struct {
	// Name identifies the program in logs.
	Name string

	Binary  string
	Args    []string
	WorkDir string

	// Env is appended to the inherited environment.
	Env []string

	RestartOnFailure bool

	// RestartDelay is the first backoff step; each further attempt doubles
	// it up to MaxRestartDelay.
	RestartDelay    time.Duration
	MaxRestartDelay time.Duration

	// MaxRestartAttempts limits consecutive restarts. 0 means unlimited.
	MaxRestartAttempts int

	// StableThreshold is how long a run must last before the restart
	// counter resets.
	StableThreshold time.Duration

	// GracefulTimeout bounds the wait between SIGTERM and SIGKILL.
	GracefulTimeout time.Duration

	// HealthCheck, when set, runs every HealthCheckInterval. Three
	// consecutive failures kill the program, which then follows the
	// normal restart path.
	HealthCheck         func(ctx context.Context) error
	HealthCheckInterval time.Duration

	OnStart func(pid int)
	OnExit  func(err error)
}

// FromEngine builds a supervisor Config from the engine section of the
// agent configuration.
func FromEngine(cfg config.EngineConfig) Config {
	c := Config{
		Name:               "engine",
		Binary:             cfg.Binary,
		Args:               append([]string(nil), cfg.Args...),
		WorkDir:            cfg.WorkDir,
		RestartOnFailure:   cfg.RestartOnFailure,
		MaxRestartAttempts: cfg.MaxRestartAttempts,
	}
	if cfg.RestartDelaySeconds > 0 {
		c.RestartDelay = time.Duration(cfg.RestartDelaySeconds) * time.Second
	}
	return c
}

func (c Config) withDefaults() Config {
	if c.RestartDelay <= 0 {
		c.RestartDelay = DefaultRestartDelay
	}
	if c.MaxRestartDelay <= 0 {
		c.MaxRestartDelay = DefaultMaxRestartDelay
	}
	if c.MaxRestartDelay < c.RestartDelay {
		c.MaxRestartDelay = c.RestartDelay
	}
	if c.StableThreshold <= 0 {
		c.StableThreshold = DefaultStableThreshold
	}
	if c.GracefulTimeout <= 0 {
		c.GracefulTimeout = DefaultGracefulTimeout
	}
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = DefaultHealthCheckInterval
	}
	return c
}

// backoff returns the delay before restart attempt n (1-based).
func (c Config) backoff(attempt int) time.Duration {
	d := c.RestartDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.MaxRestartDelay {
			return c.MaxRestartDelay
		}
	}
	return d
}
