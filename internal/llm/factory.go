package llm

import (
	"errors"
	"fmt"
	"os"
)

// ErrDisabled is returned by NewProvider for provider "none".
var ErrDisabled = errors.New("AI provider disabled")

// Providers lists the supported provider names.
var Providers = []string{"anthropic", "openai", "ollama", "none"}

// NewProvider creates a new LLM provider based on the given provider type and model.
// API keys and hosts come from ANTHROPIC_API_KEY, OPENAI_API_KEY,
// OPENAI_BASE_URL and OLLAMA_HOST.
func NewProvider(providerType string, model string) (Provider, error) {
	switch providerType {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		return NewAnthropicProvider(apiKey, model), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProviderWithBaseURL(apiKey, model, os.Getenv("OPENAI_BASE_URL")), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = DefaultOllamaHost
		}
		return NewOllamaProvider(host, model), nil

	case "none", "":
		return nil, ErrDisabled

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
