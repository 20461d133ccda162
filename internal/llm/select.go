package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Settings identify one configured provider.
type Settings struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string
	Headers  map[string]string
}

type providerSpec struct {
	provider     Provider
	keyEnv       string
	modelEnv     string
	defaultModel string
	baseURL      string
	headers      map[string]string
}

// providers is the selection priority: the first one with a key wins.
// For ollama the "key" is the host URL.
var providers = []providerSpec{
	{
		provider:     ProviderOpenAI,
		keyEnv:       "OPENAI_API_KEY",
		modelEnv:     "OPENAI_MODEL_ID",
		defaultModel: "gpt-4o-mini",
	},
	{
		provider:     ProviderAnthropic,
		keyEnv:       "CLAUDE_API_KEY",
		modelEnv:     "ANTHROPIC_CLAUDE_MODEL_ID",
		defaultModel: "claude-3-5-haiku-20241022",
	},
	{
		provider:     ProviderOpenRouter,
		keyEnv:       "OPEN_ROUTER_API_KEY",
		modelEnv:     "OPEN_ROUTER_MODEL_ID",
		defaultModel: "nousresearch/hermes-3-llama-3.1-405b:free",
		baseURL:      "https://openrouter.ai/api/v1",
		headers:      map[string]string{"X-Title": "LLM-CODEGEN-NODEJS-BOILERPLATE-VY"},
	},
	{
		provider:     ProviderDeepSeek,
		keyEnv:       "DEEP_SEEK_API_KEY",
		modelEnv:     "DEEP_SEEK_MODEL_ID",
		defaultModel: "deepseek-chat",
		baseURL:      "https://api.deepseek.com",
	},
	{
		provider:     ProviderGemini,
		keyEnv:       "GEMINI_API_KEY",
		modelEnv:     "GEMINI_MODEL_ID",
		defaultModel: "gemini-2.0-flash",
	},
	{
		provider:     ProviderOllama,
		keyEnv:       "OLLAMA_HOST",
		modelEnv:     "OLLAMA_MODEL_ID",
		defaultModel: "qwen2.5-coder",
	},
}

// Select picks the provider from the environment. When forced is set only
// that provider is considered. model, if non-empty, overrides the
// provider's model-id variable and default.
func Select(getenv func(string) string, forced Provider, model string) (Settings, error) {
	for _, p := range providers {
		if forced != "" && p.provider != forced {
			continue
		}
		key := strings.TrimSpace(getenv(p.keyEnv))
		if key == "" {
			if forced != "" {
				return Settings{}, fmt.Errorf("llm: provider %s selected but %s is not set", forced, p.keyEnv)
			}
			continue
		}
		s := Settings{
			Provider: p.provider,
			APIKey:   key,
			Model:    p.defaultModel,
			BaseURL:  p.baseURL,
			Headers:  p.headers,
		}
		if m := strings.TrimSpace(getenv(p.modelEnv)); m != "" {
			s.Model = m
		}
		if model != "" {
			s.Model = model
		}
		if p.provider == ProviderOllama {
			s.BaseURL = key
			s.APIKey = ""
		}
		return s, nil
	}
	if forced != "" {
		return Settings{}, fmt.Errorf("llm: unknown provider %q", forced)
	}
	return Settings{}, ErrNoProvider
}

// Options tune client construction.
type Options struct {
	HTTPClient *http.Client
	Retry      RetryPolicy
	Logger     *slog.Logger
}

// New builds the provider client for s wrapped in the retry policy.
func New(ctx context.Context, s Settings, opts Options) (Client, error) {
	var c Client
	switch s.Provider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderDeepSeek:
		c = newOpenAIClient(s, opts.HTTPClient)
	case ProviderAnthropic:
		c = newAnthropicClient(s, opts.HTTPClient)
	case ProviderGemini:
		g, err := newGeminiClient(ctx, s, opts.HTTPClient)
		if err != nil {
			return nil, err
		}
		c = g
	case ProviderOllama:
		o, err := newOllamaClient(s, opts.HTTPClient)
		if err != nil {
			return nil, err
		}
		c = o
	case "":
		return nil, ErrNoProvider
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", s.Provider)
	}
	return WithRetry(c, opts.Retry, opts.Logger), nil
}
