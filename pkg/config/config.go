package config

import (
	"fmt"
	"net"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for insight-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, session secret) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8085"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// External AI provider used by the delegation gateway
	AI AIConfig `yaml:"ai"`

	// Browser session cookie settings
	Session SessionConfig `yaml:"session"`

	// API rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// MCP tool server
	MCP MCPConfig `yaml:"mcp"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"` // console or json
}

// AIConfig holds the external text-generation provider settings. The engine
// only needs an availability signal and credentials; everything else about
// the provider is behind the gateway.
type AIConfig struct {
	// Provider is "openai", "anthropic", or "none".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"none"`

	// APIKey is the provider credential. Optional for OpenAI-compatible
	// local endpoints reached via BaseURL.
	APIKey string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML

	// Model overrides the provider default model.
	Model string `yaml:"model" env:"AI_MODEL" env-default:""`

	// BaseURL points the OpenAI-compatible client at a custom endpoint
	// (self-hosted gateway, Ollama, etc.). Ignored for Anthropic.
	BaseURL string `yaml:"base_url" env:"AI_BASE_URL" env-default:""`

	MaxTokens      int     `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"1000"`
	Temperature    float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.7"`
	TimeoutSeconds int     `yaml:"timeout_seconds" env:"AI_TIMEOUT_SECONDS" env-default:"30"`
}

// IsAvailable returns true if a usable provider is configured. Anthropic
// always needs a key; OpenAI-compatible endpoints can be keyless when a
// custom BaseURL is set.
func (c *AIConfig) IsAvailable() bool {
	switch c.Provider {
	case "openai":
		return c.APIKey != "" || c.BaseURL != ""
	case "anthropic":
		return c.APIKey != ""
	default:
		return false
	}
}

// SessionConfig holds browser session cookie settings.
type SessionConfig struct {
	CookieName    string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"insight_session"`
	Secret        string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML
	MaxAgeSeconds int    `yaml:"max_age_seconds" env:"SESSION_MAX_AGE_SECONDS" env-default:"86400"`
}

// RateLimitConfig holds API rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"RATE_LIMIT_RPS" env-default:"10"`
	Burst             int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"20"`
}

// MCPConfig controls the MCP tool server exposure.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"false"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. When config.yaml is absent the environment alone is used. The
// version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.BindAddr, c.Port)
}

// validate rejects configurations the server cannot run with.
func (c *Config) validate() error {
	switch c.AI.Provider {
	case "", "none", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}

	if c.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("ai timeout_seconds must be positive, got %d", c.AI.TimeoutSeconds)
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("ai max_tokens must be positive, got %d", c.AI.MaxTokens)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requests_per_second must be positive, got %g", c.RateLimit.RequestsPerSecond)
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive, got %d", c.RateLimit.Burst)
		}
	}

	return nil
}
