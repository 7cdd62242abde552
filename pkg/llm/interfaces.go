// Package llm provides the chat-completion clients behind the AI
// delegation gateway.
package llm

import (
	"context"
)

// ChatClient is the provider-neutral contract the gateway depends on: one
// blocking text-in/text-out completion call plus identity accessors.
// Use this interface for dependency injection to enable mocking in tests.
type ChatClient interface {
	// GenerateResponse generates a chat completion for a user prompt under
	// the given system instructions.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetProvider returns the provider identifier ("openai", "anthropic").
	GetProvider() string
}

// Ensure the concrete clients implement ChatClient at compile time.
var (
	_ ChatClient = (*Client)(nil)
	_ ChatClient = (*AnthropicClient)(nil)
	_ ChatClient = (*BreakerClient)(nil)
	_ ChatClient = (*MockChatClient)(nil)
)
