package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_DefaultsFromEmptyConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "{}\n")

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "chatgpt" {
		t.Errorf("expected default provider chatgpt, got %q", cfg.Provider)
	}
	if cfg.DataDir == "" {
		t.Error("expected a default data dir")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Logging.Level)
	}
}

func TestLoad_FromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
provider: whisper
data_dir: /tmp/voicekit-test
logging:
  level: debug
  format: json
whisper:
  url: http://localhost:9999
  model: small
  timeout_secs: 60
`)

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "whisper" {
		t.Errorf("expected whisper, got %q", cfg.Provider)
	}
	if cfg.DataDir != "/tmp/voicekit-test" {
		t.Errorf("unexpected data dir: %q", cfg.DataDir)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Whisper.URL != "http://localhost:9999" || cfg.Whisper.Model != "small" || cfg.Whisper.TimeoutSecs != 60 {
		t.Errorf("unexpected whisper config: %+v", cfg.Whisper)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "provider: whisper\n")

	t.Setenv("VOICEKIT_PROVIDER", "chatgpt-bridge")
	t.Setenv("VOICEKIT_CHATGPT_TIMEOUT_SECS", "240")

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "chatgpt-bridge" {
		t.Errorf("expected env override, got %q", cfg.Provider)
	}
	if cfg.ChatGPT.TimeoutSecs != 240 {
		t.Errorf("expected env timeout 240, got %d", cfg.ChatGPT.TimeoutSecs)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "VOICEKIT_WHISPER_MODEL=medium\n")
	defer os.Unsetenv("VOICEKIT_WHISPER_MODEL")

	cfg, err := Load(WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Whisper.Model != "medium" {
		t.Errorf("expected model from .env, got %q", cfg.Whisper.Model)
	}
}

func TestLoad_InvalidProviderRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "provider: nonsense\n")

	if _, err := Load(WithConfigFile(path)); err == nil {
		t.Error("expected validation error for unknown provider")
	}
}

func TestLoad_InvalidLogLevelRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "logging:\n  level: shouty\n")

	if _, err := Load(WithConfigFile(path)); err == nil {
		t.Error("expected validation error for unknown log level")
	}
}

func TestConfig_ValidateNegativeTimeout(t *testing.T) {
	cfg := &Config{Whisper: WhisperConfig{TimeoutSecs: -5}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for negative timeout")
	}
}
