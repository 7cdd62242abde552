package config

import (
	"os"
	"path/filepath"
	"testing"
)

// chdirTemp moves the test into a temp directory so Load() resolves
// config.yaml relative to it.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})
	return tmpDir
}

func clearEngineEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AI_PROVIDER", "AI_API_KEY", "AI_MODEL", "AI_BASE_URL", "PORT", "BIND_ADDR", "LOG_LEVEL"} {
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	clearEngineEnv(t)

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8085" {
		t.Errorf("expected default Port=8085, got %s", cfg.Port)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
	if cfg.AI.Provider != "none" {
		t.Errorf("expected default provider none, got %s", cfg.AI.Provider)
	}
	if cfg.AI.MaxTokens != 1000 {
		t.Errorf("expected default max_tokens 1000, got %d", cfg.AI.MaxTokens)
	}
	if cfg.AI.Temperature != 0.7 {
		t.Errorf("expected default temperature 0.7, got %g", cfg.AI.Temperature)
	}
	if cfg.AI.TimeoutSeconds != 30 {
		t.Errorf("expected default timeout 30s, got %d", cfg.AI.TimeoutSeconds)
	}
	if cfg.AI.IsAvailable() {
		t.Error("AI should not be available with provider none")
	}
	if !cfg.RateLimit.Enabled {
		t.Error("rate limiting should default to enabled")
	}
	if cfg.Addr() != "127.0.0.1:8085" {
		t.Errorf("Addr() = %s", cfg.Addr())
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := chdirTemp(t)
	clearEngineEnv(t)

	yamlContent := `
port: "8090"
env: "test"
ai:
  provider: "openai"
  model: "gpt-4o-mini"
logging:
  level: "debug"
`
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("PORT", "9000")
	t.Setenv("AI_API_KEY", "sk-test-key")

	cfg, err := Load("v1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("expected Port=9000 (from env), got %s", cfg.Port)
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("expected provider openai (from yaml), got %s", cfg.AI.Provider)
	}
	if cfg.AI.APIKey != "sk-test-key" {
		t.Errorf("expected API key from env, got %q", cfg.AI.APIKey)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if !cfg.AI.IsAvailable() {
		t.Error("openai with key should be available")
	}
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	chdirTemp(t)
	clearEngineEnv(t)

	t.Setenv("AI_PROVIDER", "huggingface")

	if _, err := Load("v1"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestAIConfigIsAvailable(t *testing.T) {
	tests := []struct {
		name string
		cfg  AIConfig
		want bool
	}{
		{"none provider", AIConfig{Provider: "none"}, false},
		{"empty provider", AIConfig{}, false},
		{"openai with key", AIConfig{Provider: "openai", APIKey: "sk-x"}, true},
		{"openai keyless with base url", AIConfig{Provider: "openai", BaseURL: "http://localhost:11434/v1"}, true},
		{"openai unconfigured", AIConfig{Provider: "openai"}, false},
		{"anthropic with key", AIConfig{Provider: "anthropic", APIKey: "sk-ant"}, true},
		{"anthropic without key", AIConfig{Provider: "anthropic", BaseURL: "http://x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsAvailable(); got != tt.want {
				t.Errorf("IsAvailable() = %v, want %v", got, tt.want)
			}
		})
	}
}
