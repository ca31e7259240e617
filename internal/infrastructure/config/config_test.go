package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
bridge:
  dir: "/tmp/bridge"
  files:
    queue: "jobs.txt"
agent:
  confirm_timeout_fast_ms: 900
database:
  enabled: true
  path: "/tmp/test.db"
mqtt:
  enabled: true
  broker:
    host: "broker.local"
    port: 1883
  qos: 1
api:
  enabled: true
  port: 9000
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath, false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bridge.Dir != "/tmp/bridge" {
		t.Errorf("Bridge.Dir = %q, want %q", cfg.Bridge.Dir, "/tmp/bridge")
	}
	if cfg.Bridge.Files.Queue != "jobs.txt" {
		t.Errorf("Bridge.Files.Queue = %q, want %q", cfg.Bridge.Files.Queue, "jobs.txt")
	}
	// Untouched file names keep their defaults.
	if cfg.Bridge.Files.Control != "control.txt" {
		t.Errorf("Bridge.Files.Control = %q, want default", cfg.Bridge.Files.Control)
	}
	if cfg.Agent.ConfirmTimeoutFastMS != 900 {
		t.Errorf("ConfirmTimeoutFastMS = %d, want 900", cfg.Agent.ConfirmTimeoutFastMS)
	}
	if cfg.Agent.ConfirmTimeoutSlowMS != 6000 {
		t.Errorf("ConfirmTimeoutSlowMS = %d, want 6000", cfg.Agent.ConfirmTimeoutSlowMS)
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if got := cfg.BridgePath(cfg.Bridge.Files.Queue); got != filepath.Join("/tmp/bridge", "jobs.txt") {
		t.Errorf("BridgePath() = %q", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml", false)
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_MissingFileAllowed(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml", true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bridge.SuccessMarker != "✅ Success" {
		t.Errorf("SuccessMarker = %q, want default", cfg.Bridge.SuccessMarker)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath, true)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SCENEAGENT_BRIDGE_DIR", "/srv/bridge")
	t.Setenv("SCENEAGENT_API_PORT", "9100")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bridge.Dir != "/srv/bridge" {
		t.Errorf("Bridge.Dir = %q, want env override", cfg.Bridge.Dir)
	}
	if cfg.API.Port != 9100 {
		t.Errorf("API.Port = %d, want 9100", cfg.API.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing bridge dir",
			mutate:  func(c *Config) { c.Bridge.Dir = "" },
			wantErr: true,
		},
		{
			name:    "missing queue file name",
			mutate:  func(c *Config) { c.Bridge.Files.Queue = "" },
			wantErr: true,
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Bridge.PollIntervalMS = 0 },
			wantErr: true,
		},
		{
			name:    "managed engine without binary",
			mutate:  func(c *Config) { c.Engine.Managed = true },
			wantErr: true,
		},
		{
			name: "invalid QoS only matters when enabled",
			mutate: func(c *Config) {
				c.MQTT.QoS = 3
			},
			wantErr: false,
		},
		{
			name: "invalid QoS",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name: "invalid port high",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 70000
			},
			wantErr: true,
		},
		{
			name: "influx without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Bridge: BridgeConfig{PollIntervalMS: 50},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
	if got := cfg.PollInterval().Milliseconds(); got != 50 {
		t.Errorf("PollInterval() = %v, want 50ms", got)
	}
}
