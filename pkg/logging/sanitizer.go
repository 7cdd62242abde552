package logging

import (
	"regexp"
)

const (
	// MaxQuestionLogLength is the maximum length of a user question to log
	MaxQuestionLogLength = 120
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match bearer tokens in provider request errors
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_.]+`)

	// Pattern to match API keys passed as query or form parameters
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key|token)=[A-Za-z0-9-_]{12,}`)

	// Pattern to match provider secret key literals (sk-..., sk-ant-...)
	secretKeyPattern = regexp.MustCompile(`\bsk-[A-Za-z0-9-_]{8,}`)

	// Pattern to match URL userinfo credentials (user:pass@host)
	credentialURLPattern = regexp.MustCompile(`://[^:/\s]+:[^@/\s]+@[^/\s]+`)
)

// SanitizeEndpoint removes credentials from a provider endpoint URL before
// logging it.
func SanitizeEndpoint(endpoint string) string {
	if endpoint == "" {
		return ""
	}

	sanitized := credentialURLPattern.ReplaceAllString(endpoint, "://"+RedactedText+"@"+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return sanitized
}

// SanitizeError scrubs provider error messages, which can echo request
// headers and keys back verbatim.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := bearerPattern.ReplaceAllString(err.Error(), "Bearer "+RedactedText)
	sanitized = secretKeyPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = credentialURLPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeQuestion truncates a user question for logging. Questions are free
// text and occasionally carry pasted secrets, so key-shaped substrings are
// scrubbed too.
func SanitizeQuestion(question string) string {
	if question == "" {
		return ""
	}

	sanitized := secretKeyPattern.ReplaceAllString(question, RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)

	return TruncateString(sanitized, MaxQuestionLogLength)
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
