package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/unclebandit/customer-publisher/internal/config"
)

var envKeys = []string{
	"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "LISTEN", "PORT", "METRICS_PATH",
	"MAX_BODY_SIZE", "SHUTDOWN_TIMEOUT", "PUBLISH_BACKEND", "PUBLISH_TOPIC",
	"PUBLISH_MAX_RETRIES", "AMQP_URL", "DATABASE_URL",
}

// clearEnv unsets every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Listen != ":8080" {
		t.Errorf("expected :8080, got %q", cfg.Listen)
	}
	if cfg.Publish.Backend != config.BackendNone {
		t.Errorf("expected backend none, got %q", cfg.Publish.Backend)
	}
	if cfg.Publish.Topic != "customer_details" {
		t.Errorf("expected topic customer_details, got %q", cfg.Publish.Topic)
	}
	if cfg.Publish.MaxRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Publish.MaxRetries)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}

	limit, err := cfg.BodyLimit()
	if err != nil || limit != 1<<20 {
		t.Errorf("expected 1MB body limit, got %d (%v)", limit, err)
	}
	grace, err := cfg.GracePeriod()
	if err != nil || grace != 10*time.Second {
		t.Errorf("expected 10s grace period, got %s (%v)", grace, err)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
listen = ":9000"
max-body-size = "512KB"

[log]
level = "debug"
format = "json"

[publish]
backend = "memory"
topic = "from_file"
`)
	t.Setenv("PUBLISH_TOPIC", "from_env")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Listen != ":9000" {
		t.Errorf("expected listen from file, got %q", cfg.Listen)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("expected log settings from file, got %+v", cfg.Log)
	}
	if cfg.Publish.Backend != config.BackendMemory {
		t.Errorf("expected memory backend, got %q", cfg.Publish.Backend)
	}
	if cfg.Publish.Topic != "from_env" {
		t.Errorf("expected env to override file, got %q", cfg.Publish.Topic)
	}
	if cfg.Publish.MaxRetries != 3 {
		t.Errorf("expected default retries to survive, got %d", cfg.Publish.MaxRetries)
	}
	if limit, _ := cfg.BodyLimit(); limit != 512<<10 {
		t.Errorf("expected 512KB, got %d", limit)
	}
}

func TestLoadPortOverridesListen(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN", ":1234")
	t.Setenv("PORT", "3000")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != ":3000" {
		t.Errorf("expected :3000, got %q", cfg.Listen)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		wantErr string
	}{
		{"unknown backend", map[string]string{"PUBLISH_BACKEND": "kafka"}, "", "unknown publish backend"},
		{"bad body size", map[string]string{"MAX_BODY_SIZE": "lots"}, "", "invalid max body size"},
		{"zero body size", map[string]string{"MAX_BODY_SIZE": "0"}, "", "must be positive"},
		{"bad timeout", map[string]string{"SHUTDOWN_TIMEOUT": "soon"}, "", "invalid shutdown timeout"},
		{"bad retries", map[string]string{"PUBLISH_MAX_RETRIES": "many"}, "", "PUBLISH_MAX_RETRIES"},
		{"negative retries", map[string]string{"PUBLISH_MAX_RETRIES": "-1"}, "", "must not be negative"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "", "invalid log level"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "", "unknown log format"},
		{"bad metrics path", map[string]string{"METRICS_PATH": "metrics"}, "", "metrics path"},
		{"amqp without url", map[string]string{"PUBLISH_BACKEND": "amqp", "AMQP_URL": ""}, "", "requires AMQP_URL"},
		{"unknown file key", nil, "colour = \"blue\"\n", "decode config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			_, err := config.Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestGracePeriod(t *testing.T) {
	tests := []struct {
		timeout string
		want    time.Duration
		wantErr bool
	}{
		{"250ms", 250 * time.Millisecond, false},
		{"soon", 0, true},
		{"0s", 0, true},
		{"-5s", 0, true},
	}

	for _, tt := range tests {
		cfg := &config.Config{ShutdownTimeout: tt.timeout}
		got, err := cfg.GracePeriod()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: expected error=%v, got %v", tt.timeout, tt.wantErr, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.timeout, tt.want, got)
		}
	}
}
