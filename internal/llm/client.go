// Package llm holds the text-completion clients used to summarize reports.
// Each client talks to one provider through one request path.
package llm

import (
	"context"
	"strings"
)

// Provider represents the LLM provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderNone   Provider = "none" // summarization disabled
)

// Default models per provider
const (
	DefaultGeminiModel = "gemini-1.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Completer sends one prompt and returns the model's text
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ParseProvider normalizes a provider name. "off" and "disabled" are
// aliases of none. ok is false for unknown names.
func ParseProvider(name string) (p Provider, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gemini", "":
		return ProviderGemini, true
	case "openai":
		return ProviderOpenAI, true
	case "none", "off", "disabled":
		return ProviderNone, true
	default:
		return ProviderGemini, false
	}
}

// DefaultModel returns the model used when none is configured
func DefaultModel(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderGemini:
		return DefaultGeminiModel
	default:
		return ""
	}
}
