package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	"github.com/nerrad567/sceneagent/internal/infrastructure/config"
)

// Logger wraps slog.Logger with sceneagent defaults.
//
// It provides structured logging with default fields and level-based filtering.
// When a log file is configured, records are fanned out to both the console
// and the file.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// New creates a new Logger with the specified configuration.
//
// It configures:
//   - Output format (JSON for production, text for development)
//   - Log level filtering
//   - Default fields (service name, version)
//   - Output destination, plus an optional file sink
//
// A log file that cannot be opened is reported on the console logger and
// skipped; logging never prevents startup.
//
// Parameters:
//   - cfg: Logging configuration from config.yaml
//   - version: Application version for default field
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	return build(cfg, version, consoleWriter(cfg.Output))
}

func consoleWriter(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// build assembles the handler chain over console plus the optional file sink.
func build(cfg config.LoggingConfig, version string, console io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	handler := newHandler(console, cfg.Format, opts)

	var closer io.Closer
	var fileErr error
	if cfg.File.Path != "" {
		if f, err := openLogFile(cfg.File.Path); err != nil {
			fileErr = err
		} else {
			format := cfg.File.Format
			if format == "" {
				format = "json"
			}
			handler = slogmulti.Fanout(handler, newHandler(f, format, opts))
			closer = f
		}
	}

	l := &Logger{
		Logger: slog.New(handler.WithAttrs([]slog.Attr{
			slog.String("service", "sceneagent"),
			slog.String("version", version),
		})),
		closer: closer,
	}
	if fileErr != nil {
		l.Warn("log file disabled", "path", cfg.File.Path, "error", fileErr)
	}
	return l
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	switch strings.ToLower(format) {
	case "text":
		return slog.NewTextHandler(w, opts)
	default:
		return slog.NewJSONHandler(w, opts)
	}
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// With returns a new Logger with additional default attributes.
//
// The child shares the parent's file sink; only the parent should be closed.
//
// Example:
//
//	agentLogger := logger.With("component", "agent")
//	agentLogger.Info("tick") // Includes component=agent
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Close releases the log file, if one was opened.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Default creates a default logger for use before configuration is loaded.
//
// This logger outputs to stdout in text format at info level.
// It should only be used during early startup before config is available.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "text",
		Output: "stdout",
	}, "dev")
}
