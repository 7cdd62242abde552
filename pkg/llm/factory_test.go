package llm

import (
	"testing"

	"go.uber.org/zap"

	"github.com/dashlytics/insight-engine/pkg/config"
)

func TestNewChatClient_NoProvider(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.AIConfig
	}{
		{"nil config", nil},
		{"provider none", &config.AIConfig{Provider: "none"}},
		{"openai without credentials", &config.AIConfig{Provider: "openai"}},
		{"anthropic without key", &config.AIConfig{Provider: "anthropic"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewChatClient(tt.cfg, zap.NewNop()); err == nil {
				t.Error("expected error, got client")
			}
		})
	}
}

func TestNewChatClient_OpenAI(t *testing.T) {
	client, err := NewChatClient(&config.AIConfig{
		Provider: "openai",
		APIKey:   "sk-test",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewChatClient: %v", err)
	}

	if client.GetProvider() != "openai" {
		t.Errorf("expected openai provider, got %s", client.GetProvider())
	}
	if client.GetModel() != DefaultOpenAIModel {
		t.Errorf("expected default model %s, got %s", DefaultOpenAIModel, client.GetModel())
	}
}

func TestNewChatClient_OpenAICustomEndpoint(t *testing.T) {
	client, err := NewChatClient(&config.AIConfig{
		Provider: "openai",
		BaseURL:  "http://localhost:11434/v1",
		Model:    "llama3.1",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewChatClient: %v", err)
	}

	if client.GetModel() != "llama3.1" {
		t.Errorf("expected llama3.1, got %s", client.GetModel())
	}
}

func TestNewChatClient_Anthropic(t *testing.T) {
	client, err := NewChatClient(&config.AIConfig{
		Provider: "anthropic",
		APIKey:   "sk-ant-test",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewChatClient: %v", err)
	}

	if client.GetProvider() != "anthropic" {
		t.Errorf("expected anthropic provider, got %s", client.GetProvider())
	}
	if client.GetModel() != DefaultAnthropicModel {
		t.Errorf("expected default model %s, got %s", DefaultAnthropicModel, client.GetModel())
	}
}
