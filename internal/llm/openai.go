package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openAIClient speaks the chat completions API. DeepSeek and OpenRouter are
// served by the same client pointed at their base URLs.
type openAIClient struct {
	client   openai.Client
	provider Provider
	model    string
}

func newOpenAIClient(s Settings, httpClient *http.Client) *openAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	for k, v := range s.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &openAIClient{
		client:   openai.NewClient(opts...),
		provider: s.Provider,
		model:    s.Model,
	}
}

func (c *openAIClient) Provider() Provider { return c.provider }
func (c *openAIClient) Model() string      { return c.model }

func (c *openAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	req = req.withDefaults()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Response{}, wrapStatus(c.provider, apiErr.StatusCode, err)
		}
		return Response{}, wrapStatus(c.provider, 0, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%s: empty response", c.provider)
	}
	return Response{
		Content:      resp.Choices[0].Message.Content,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}, nil
}
