package models

// ============================================================================
// AI Providers
// ============================================================================

// AIProvider selects the external text-generation service the gateway
// delegates to. AIProviderNone disables delegation and the local
// interpreter answers everything.
type AIProvider string

const (
	AIProviderNone      AIProvider = "none"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

// ValidAIProviders contains all valid provider values.
var ValidAIProviders = []AIProvider{
	AIProviderNone,
	AIProviderOpenAI,
	AIProviderAnthropic,
}

// IsValidAIProvider checks if the given provider is valid.
func IsValidAIProvider(p AIProvider) bool {
	for _, v := range ValidAIProviders {
		if v == p {
			return true
		}
	}
	return false
}

// MaskedAPIKey returns a masked version safe for logs: "sk-a...xyz".
func MaskedAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
