package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for sceneagent.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Bridge    BridgeConfig    `yaml:"bridge"`
	Agent     AgentConfig     `yaml:"agent"`
	Engine    EngineConfig    `yaml:"engine"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BridgeConfig locates the shared folder the scene engine and the agent
// exchange files through.
type BridgeConfig struct {
	Dir   string      `yaml:"dir"`
	Files BridgeFiles `yaml:"files"`

	// SuccessMarker is the literal the engine appends to the execution log
	// after a command ran without error.
	SuccessMarker string `yaml:"success_marker"`

	// PollIntervalMS is how often the confirmation wait re-checks its condition.
	PollIntervalMS int `yaml:"poll_interval_ms"`
}

// BridgeFiles holds the file names, relative to BridgeConfig.Dir.
type BridgeFiles struct {
	Input      string `yaml:"input"`
	Trigger    string `yaml:"trigger"`
	Output     string `yaml:"output"`
	Scene      string `yaml:"scene"`
	Selection  string `yaml:"selection"`
	Queue      string `yaml:"queue"`
	Control    string `yaml:"control"`
	TaskMemory string `yaml:"task_memory"`
}

// AgentConfig holds the fixed pacing constants of the orchestration loop.
// Live tunables (fast mode, delay, burst size, confirm cadence) are not here:
// they are re-read from the selection document every tick.
type AgentConfig struct {
	PausedIdleMS         int  `yaml:"paused_idle_ms"`
	FastYieldMS          int  `yaml:"fast_yield_ms"`
	FastIdleMS           int  `yaml:"fast_idle_ms"`
	SlowMinIdleMS        int  `yaml:"slow_min_idle_ms"`
	SlowMinDelayMS       int  `yaml:"slow_min_delay_ms"`
	ConfirmTimeoutFastMS int  `yaml:"confirm_timeout_fast_ms"`
	ConfirmTimeoutSlowMS int  `yaml:"confirm_timeout_slow_ms"`
	StartPaused          bool `yaml:"start_paused"`
}

// EngineConfig controls whether the agent supervises the scene engine process.
type EngineConfig struct {
	// Managed indicates whether sceneagent should start and restart the engine.
	// If false, the engine is expected to be running already.
	Managed bool `yaml:"managed"`

	// Binary is the path to the engine executable.
	Binary string `yaml:"binary"`

	// Args are passed to the engine unchanged (e.g. a .blend file and a startup script).
	Args []string `yaml:"args"`

	// WorkDir is the engine's working directory. Empty inherits ours.
	WorkDir string `yaml:"work_dir"`

	RestartOnFailure    bool `yaml:"restart_on_failure"`
	RestartDelaySeconds int  `yaml:"restart_delay_seconds"`

	// MaxRestartAttempts limits restart attempts. 0 means unlimited.
	MaxRestartAttempts int `yaml:"max_restart_attempts"`
}

// DatabaseConfig contains SQLite settings for the dispatch ledger.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`

	// RemoteControl subscribes to <prefix>/control and forwards valid
	// tokens into the control document.
	RemoteControl bool `yaml:"remote_control"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP status API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket event stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig adds an optional second log sink.
type FileLoggingConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SCENEAGENT_SECTION_KEY
// For example: SCENEAGENT_BRIDGE_DIR, SCENEAGENT_API_PORT
//
// When allowMissing is true a missing file is not an error and the defaults
// are used; this lets the agent start with zero setup.
//
// Parameters:
//   - path: Path to the YAML configuration file
//   - allowMissing: Treat a non-existent file as empty
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case allowMissing && errors.Is(err, fs.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config populated with the standard bridge folder layout
// and conservative pacing values.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Dir: "./bridge",
			Files: BridgeFiles{
				Input:      "input.txt",
				Trigger:    "run_now.txt",
				Output:     "output.txt",
				Scene:      "scene_data.json",
				Selection:  "selected.json",
				Queue:      "queue.txt",
				Control:    "control.txt",
				TaskMemory: "task_memory.json",
			},
			SuccessMarker:  "✅ Success",
			PollIntervalMS: 50,
		},
		Agent: AgentConfig{
			PausedIdleMS:         100,
			FastYieldMS:          10,
			FastIdleMS:           30,
			SlowMinIdleMS:        100,
			SlowMinDelayMS:       50,
			ConfirmTimeoutFastMS: 1200,
			ConfirmTimeoutSlowMS: 6000,
		},
		Engine: EngineConfig{
			RestartOnFailure:    true,
			RestartDelaySeconds: 5,
			MaxRestartAttempts:  10,
		},
		Database: DatabaseConfig{
			Path:        "./data/sceneagent.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "sceneagent",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "sceneagent",
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8765,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SCENEAGENT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Bridge
	if v := os.Getenv("SCENEAGENT_BRIDGE_DIR"); v != "" {
		cfg.Bridge.Dir = v
	}

	// Engine
	if v := os.Getenv("SCENEAGENT_ENGINE_BINARY"); v != "" {
		cfg.Engine.Binary = v
	}

	// Database
	if v := os.Getenv("SCENEAGENT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("SCENEAGENT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SCENEAGENT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SCENEAGENT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("SCENEAGENT_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("SCENEAGENT_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("SCENEAGENT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("SCENEAGENT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Bridge.Dir == "" {
		errs = append(errs, "bridge.dir is required")
	}
	files := map[string]string{
		"input":     c.Bridge.Files.Input,
		"trigger":   c.Bridge.Files.Trigger,
		"output":    c.Bridge.Files.Output,
		"scene":     c.Bridge.Files.Scene,
		"selection": c.Bridge.Files.Selection,
		"queue":     c.Bridge.Files.Queue,
		"control":   c.Bridge.Files.Control,
	}
	for key, name := range files {
		if name == "" {
			errs = append(errs, "bridge.files."+key+" is required")
		}
	}
	if c.Bridge.SuccessMarker == "" {
		errs = append(errs, "bridge.success_marker is required")
	}
	if c.Bridge.PollIntervalMS <= 0 {
		errs = append(errs, "bridge.poll_interval_ms must be positive")
	}

	if c.Agent.ConfirmTimeoutFastMS <= 0 || c.Agent.ConfirmTimeoutSlowMS <= 0 {
		errs = append(errs, "agent confirm timeouts must be positive")
	}

	if c.Engine.Managed && c.Engine.Binary == "" {
		errs = append(errs, "engine.binary is required when engine.managed is true")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.TopicPrefix == "" {
			errs = append(errs, "mqtt.topic_prefix is required")
		}
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// BridgePath joins a bridge file name onto the bridge directory.
func (c *Config) BridgePath(name string) string {
	return filepath.Join(c.Bridge.Dir, name)
}

// PollInterval returns the confirmation poll interval as a Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Bridge.PollIntervalMS) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
