// Package llm is the gateway to the language model providers. Every
// provider is reduced to one Client: a single-prompt completion returning
// the text and the token usage reported by the provider.
package llm

import (
	"context"
	"errors"
)

// Request defaults.
const (
	DefaultMaxTokens   = 8000
	DefaultTemperature = 0.4
)

type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderOpenRouter Provider = "openrouter"
	ProviderDeepSeek   Provider = "deepseek"
	ProviderGemini     Provider = "gemini"
	ProviderOllama     Provider = "ollama"
)

// ErrNoProvider is returned when no provider credentials are configured.
var ErrNoProvider = errors.New("Provide API key for at least one LLM client - OpenAI, Anthropic, DeepSeek or OpenRouter")

type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

type Response struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// Client is implemented by every provider and by the retry wrapper.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Provider() Provider
	Model() string
}

func (r Request) withDefaults() Request {
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	if r.Temperature < 0 {
		r.Temperature = DefaultTemperature
	}
	return r
}
