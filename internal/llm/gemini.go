package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

type geminiClient struct {
	client *genai.Client
	model  string
}

func newGeminiClient(ctx context.Context, s Settings, httpClient *http.Client) (*geminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:     s.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if s.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	return &geminiClient{client: client, model: s.Model}, nil
}

func (c *geminiClient) Provider() Provider { return ProviderGemini }
func (c *geminiClient) Model() string      { return c.model }

func (c *geminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	req = req.withDefaults()
	temp := float32(req.Temperature)
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxTokens),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return Response{}, wrapStatus(ProviderGemini, apiErr.Code, err)
		}
		var apiErrPtr *genai.APIError
		if errors.As(err, &apiErrPtr) {
			return Response{}, wrapStatus(ProviderGemini, apiErrPtr.Code, err)
		}
		return Response{}, wrapStatus(ProviderGemini, 0, err)
	}
	out := Response{Content: result.Text()}
	if u := result.UsageMetadata; u != nil {
		out.InputTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
	}
	return out, nil
}
