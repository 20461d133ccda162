package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

type ollamaClient struct {
	client *api.Client
	model  string
}

func newOllamaClient(s Settings, httpClient *http.Client) (*ollamaClient, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid host %q: %w", s.BaseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ollamaClient{client: api.NewClient(u, httpClient), model: s.Model}, nil
}

func (c *ollamaClient) Provider() Provider { return ProviderOllama }
func (c *ollamaClient) Model() string      { return c.model }

func (c *ollamaClient) Complete(ctx context.Context, req Request) (Response, error) {
	req = req.withDefaults()
	stream := false
	chat := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: "user", Content: req.Prompt}},
		Stream:   &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	var last api.ChatResponse
	err := c.client.Chat(ctx, chat, func(r api.ChatResponse) error {
		last = r
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return Response{}, wrapStatus(ProviderOllama, statusErr.StatusCode, err)
		}
		return Response{}, wrapStatus(ProviderOllama, 0, err)
	}
	return Response{
		Content:      last.Message.Content,
		InputTokens:  last.PromptEvalCount,
		OutputTokens: last.EvalCount,
	}, nil
}
