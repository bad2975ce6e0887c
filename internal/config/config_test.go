package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: governance-live
stream:
  url: wss://events.example.com/stream
  protocols: [v1.eventstream]
  reconnect_interval: 2s
subscribe:
  kinds: [compliance_alert, system_health]
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "governance-live" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "governance-live")
	}
	if cfg.Stream.URL != "wss://events.example.com/stream" {
		t.Errorf("Stream.URL = %q, want %q", cfg.Stream.URL, "wss://events.example.com/stream")
	}
	if cfg.Stream.ReconnectInterval != 2*time.Second {
		t.Errorf("Stream.ReconnectInterval = %v, want 2s", cfg.Stream.ReconnectInterval)
	}
	if len(cfg.Subscribe.Kinds) != 2 {
		t.Errorf("Subscribe.Kinds = %v, want 2 kinds", cfg.Subscribe.Kinds)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_STREAM_TOKEN", "secret123")

	yaml := `
instance:
  id: governance-live
stream:
  url: wss://events.example.com/stream
auth:
  token: ${TEST_STREAM_TOKEN}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Auth.Token != "secret123" {
		t.Errorf("Auth.Token = %q, want %q", cfg.Auth.Token, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: governance-live
stream:
  url: wss://events.example.com/stream
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Stream.ReconnectInterval != DefaultReconnectInterval {
		t.Errorf("ReconnectInterval = %v, want %v", cfg.Stream.ReconnectInterval, DefaultReconnectInterval)
	}
	if cfg.Stream.MaxReconnectAttempts != DefaultMaxReconnectAttempts {
		t.Errorf("MaxReconnectAttempts = %d, want %d", cfg.Stream.MaxReconnectAttempts, DefaultMaxReconnectAttempts)
	}
	if cfg.Stream.MessageQueueSize != DefaultMessageQueueSize {
		t.Errorf("MessageQueueSize = %d, want %d", cfg.Stream.MessageQueueSize, DefaultMessageQueueSize)
	}
	if cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, DefaultMetricsPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing instance id", func(c *Config) { c.Instance.ID = "" }, true},
		{"missing url", func(c *Config) { c.Stream.URL = "" }, true},
		{"http url", func(c *Config) { c.Stream.URL = "https://example.com" }, true},
		{"zero queue", func(c *Config) { c.Stream.MessageQueueSize = 0 }, true},
		{"bad metrics port", func(c *Config) { c.Metrics.Port = 70000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Instance.ID = "test"
			cfg.Stream.URL = "wss://events.example.com/stream"
			cfg.applyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClientConfigMapping(t *testing.T) {
	yaml := `
instance:
  id: governance-live
stream:
  url: wss://events.example.com/stream
  reconnect_interval: 1s
  max_reconnect_attempts: 3
  message_queue_size: 2
auth:
  token: tok
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	cc := cfg.ClientConfig()
	if cc.URL != cfg.Stream.URL {
		t.Errorf("URL = %q, want %q", cc.URL, cfg.Stream.URL)
	}
	if cc.ReconnectInterval != time.Second {
		t.Errorf("ReconnectInterval = %v, want 1s", cc.ReconnectInterval)
	}
	if cc.MaxReconnectAttempts != 3 {
		t.Errorf("MaxReconnectAttempts = %d, want 3", cc.MaxReconnectAttempts)
	}
	if cc.MessageQueueSize != 2 {
		t.Errorf("MessageQueueSize = %d, want 2", cc.MessageQueueSize)
	}
	if cc.Authentication == nil || cc.Authentication.Token != "tok" {
		t.Errorf("Authentication = %+v, want token %q", cc.Authentication, "tok")
	}
}
