package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dashlytics/insight-engine/pkg/config"
	"github.com/dashlytics/insight-engine/pkg/models"
)

// Default models used when the configuration names a provider but no model.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
)

// NewChatClient builds a ChatClient for the configured provider, wrapped
// in a circuit breaker so a failing provider degrades to local answers
// instead of stalling every turn.
// Returns an error when the provider is "none" or misconfigured; callers
// should treat that as "answer locally" rather than a fatal condition.
func NewChatClient(cfg *config.AIConfig, logger *zap.Logger) (ChatClient, error) {
	if cfg == nil || !cfg.IsAvailable() {
		return nil, fmt.Errorf("no AI provider configured")
	}

	client, err := newProviderClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewBreakerClient(client, DefaultBreakerConfig(), logger), nil
}

func newProviderClient(cfg *config.AIConfig, logger *zap.Logger) (ChatClient, error) {
	switch models.AIProvider(cfg.Provider) {
	case models.AIProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		endpoint := cfg.BaseURL
		if endpoint != "" && config.IsRunningInDocker() {
			endpoint = config.ResolveEndpointForDocker(endpoint)
		}
		client, err := NewClient(&Config{
			Endpoint:  endpoint,
			Model:     model,
			APIKey:    cfg.APIKey,
			MaxTokens: cfg.MaxTokens,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return client, nil

	case models.AIProviderAnthropic:
		model := cfg.Model
		if model == "" {
			model = DefaultAnthropicModel
		}
		client, err := NewAnthropicClient(&AnthropicConfig{
			Model:     model,
			APIKey:    cfg.APIKey,
			MaxTokens: cfg.MaxTokens,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
