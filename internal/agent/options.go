package agent

import (
	"time"

	"github.com/nerrad567/sceneagent/internal/infrastructure/config"
)

// Options holds the fixed pacing constants. The live tunables (fast, delay,
// burst size, confirm cadence) come from the selection document instead.
type Options struct {
	PausedIdle         time.Duration
	FastYield          time.Duration
	FastIdle           time.Duration
	SlowMinIdle        time.Duration
	SlowMinDelay       time.Duration
	ConfirmTimeoutFast time.Duration
	ConfirmTimeoutSlow time.Duration
	ConfirmPoll        time.Duration
	StartPaused        bool
}

// OptionsFrom derives Options from the loaded configuration.
func OptionsFrom(cfg *config.Config) Options {
	a := cfg.Agent
	return Options{
		PausedIdle:         ms(a.PausedIdleMS),
		FastYield:          ms(a.FastYieldMS),
		FastIdle:           ms(a.FastIdleMS),
		SlowMinIdle:        ms(a.SlowMinIdleMS),
		SlowMinDelay:       ms(a.SlowMinDelayMS),
		ConfirmTimeoutFast: ms(a.ConfirmTimeoutFastMS),
		ConfirmTimeoutSlow: ms(a.ConfirmTimeoutSlowMS),
		ConfirmPoll:        cfg.PollInterval(),
		StartPaused:        a.StartPaused,
	}
}

// DefaultOptions returns the pacing used when no configuration is given.
func DefaultOptions() Options {
	return OptionsFrom(config.Default())
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// idle returns the pause after a tick that sent nothing.
func (o Options) idle(fast bool, delay time.Duration) time.Duration {
	if fast {
		return o.FastIdle
	}
	return max(o.SlowMinIdle, delay)
}

// confirmTimeout returns the bounded confirmation wait for the mode.
func (o Options) confirmTimeout(fast bool) time.Duration {
	if fast {
		return o.ConfirmTimeoutFast
	}
	return o.ConfirmTimeoutSlow
}
