package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-monitor
server:
  base_url: https://queue.example.com
  token: abc123
stream:
  room: dashboard
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-monitor" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-monitor")
	}
	if cfg.Server.BaseURL != "https://queue.example.com" {
		t.Errorf("Server.BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Stream.Room != "dashboard" {
		t.Errorf("Stream.Room = %q, want dashboard", cfg.Stream.Room)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_QUEUE_TOKEN", "secret123")

	yaml := `
instance:
  id: test-monitor
server:
  base_url: https://queue.example.com
  token: ${TEST_QUEUE_TOKEN}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Token != "secret123" {
		t.Errorf("Server.Token = %q, want %q", cfg.Server.Token, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-monitor
server:
  base_url: https://queue.example.com
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Stream.Room != DefaultRoom {
		t.Errorf("Stream.Room = %q, want %q", cfg.Stream.Room, DefaultRoom)
	}
	if cfg.Stream.MaxReconnectAttempts != DefaultMaxReconnectAttempts {
		t.Errorf("Stream.MaxReconnectAttempts = %d, want %d",
			cfg.Stream.MaxReconnectAttempts, DefaultMaxReconnectAttempts)
	}
	if cfg.Stream.ReconnectBaseDelay != 1*time.Second {
		t.Errorf("Stream.ReconnectBaseDelay = %v, want 1s", cfg.Stream.ReconnectBaseDelay)
	}
	if cfg.Stream.ReconnectMaxDelay != 30*time.Second {
		t.Errorf("Stream.ReconnectMaxDelay = %v, want 30s", cfg.Stream.ReconnectMaxDelay)
	}
	if cfg.Cache.TTL != DefaultCacheTTL {
		t.Errorf("Cache.TTL = %v, want %v", cfg.Cache.TTL, DefaultCacheTTL)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Database.Postgres.Port = %d, want %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Ops.Port != DefaultOpsPort {
		t.Errorf("Ops.Port = %d, want %d", cfg.Ops.Port, DefaultOpsPort)
	}
}

func TestLoadAndValidate(t *testing.T) {
	yaml := `
instance:
  id: test-monitor
server:
  base_url: https://queue.example.com
archive:
  enabled: true
database:
  postgres:
    host: localhost
    name: queuepulse
    user: monitor
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if !cfg.Archive.Enabled {
		t.Error("Archive.Enabled = false")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*MonitorConfig)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *MonitorConfig) { c.Instance.ID = "" },
			wantErr: "instance.id",
		},
		{
			name:    "missing base url",
			mutate:  func(c *MonitorConfig) { c.Server.BaseURL = "" },
			wantErr: "server.base_url",
		},
		{
			name:    "negative reconnect attempts",
			mutate:  func(c *MonitorConfig) { c.Stream.MaxReconnectAttempts = -1 },
			wantErr: "max_reconnect_attempts",
		},
		{
			name: "max delay below base delay",
			mutate: func(c *MonitorConfig) {
				c.Stream.ReconnectBaseDelay = time.Minute
				c.Stream.ReconnectMaxDelay = time.Second
			},
			wantErr: "reconnect_max_delay",
		},
		{
			name: "archive enabled without database host",
			mutate: func(c *MonitorConfig) {
				c.Archive.Enabled = true
				c.Database.Postgres.Host = ""
			},
			wantErr: "database.postgres.host",
		},
		{
			name:    "ops port out of range",
			mutate:  func(c *MonitorConfig) { c.Ops.Port = 70000 },
			wantErr: "ops.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate returned nil error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidConfigPasses(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate on valid config: %v", err)
	}
}

func validConfig() *MonitorConfig {
	cfg := &MonitorConfig{
		Instance: InstanceConfig{ID: "test-monitor"},
		Server:   ServerConfig{BaseURL: "https://queue.example.com"},
		Database: DatabaseConfig{
			Postgres: DBConfig{
				Host:     "localhost",
				Name:     "queuepulse",
				User:     "monitor",
				Password: "testpass",
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}
