package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_FullConfig(t *testing.T) {
	yaml := `strategy: loose
display: headers
strict_outcomes: true
interactive: true

context:
  environment: staging

report:
  format: msgpack
  path: ./run-report.bin

webhook:
  url: https://hooks.example.com/grana
  headers:
    Authorization: Bearer token123
  timeout: 10s
  retries: 3

redis:
  url: redis://localhost:6379
  channel: grana:actions
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "strategy", cfg.Strategy, "loose")
	assertEqual(t, "display", cfg.Display, "headers")
	if !cfg.StrictOutcomes {
		t.Error("expected strict_outcomes=true")
	}
	if !cfg.Interactive {
		t.Error("expected interactive=true")
	}
	if cfg.Context["environment"] != "staging" {
		t.Errorf("context = %v", cfg.Context)
	}

	assertEqual(t, "report.format", cfg.Report.Format, "msgpack")
	assertEqual(t, "report.path", cfg.Report.Path, "./run-report.bin")

	assertEqual(t, "webhook.url", cfg.Webhook.URL, "https://hooks.example.com/grana")
	if cfg.Webhook.Timeout.Duration != 10*time.Second {
		t.Errorf("expected webhook.timeout=10s, got %v", cfg.Webhook.Timeout.Duration)
	}
	if cfg.Webhook.Retries == nil || *cfg.Webhook.Retries != 3 {
		t.Errorf("expected webhook.retries=3")
	}
	if cfg.Webhook.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("expected Authorization header")
	}

	assertEqual(t, "redis.url", cfg.Redis.URL, "redis://localhost:6379")
	assertEqual(t, "redis.channel", cfg.Redis.Channel, "grana:actions")
}

func TestLoad_EmptyConfig(t *testing.T) {
	path := writeTemp(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Strategy != "" {
		t.Errorf("expected empty strategy, got %q", cfg.Strategy)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/grana.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "{{invalid yaml")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_STRATEGY", "strict")

	yaml := `strategy: ${TEST_STRATEGY}`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "strategy", cfg.Strategy, "strict")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	yaml := `strategy: loose
bogus_key: should_fail
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "bogus_key") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestLoad_UnknownNestedKeyRejected(t *testing.T) {
	yaml := `report:
  format: json
  unknown_field: bad
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown nested key, got nil")
	}
	if !strings.Contains(err.Error(), "unknown_field") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	path := writeTemp(t, "webhook:\n  timeout: 30s")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Webhook.Timeout.Duration != 30*time.Second {
		t.Errorf("expected 30s, got %v", cfg.Webhook.Timeout.Duration)
	}
}

// writeTemp writes content to a temp file and returns the path.
func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "grana.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}
