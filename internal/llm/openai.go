package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultOpenAIURL     = "https://api.openai.com/v1"
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"
)

// OpenAICompatible speaks the chat-completions protocol shared by OpenAI,
// OpenRouter and most hosted inference gateways.
type OpenAICompatible struct {
	name    string
	apiKey  string
	baseURL string
	headers map[string]string
	http    *resty.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAI creates a client for the OpenAI API.
func NewOpenAI(apiKey, baseURL string, timeout time.Duration) *OpenAICompatible {
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	return newOpenAICompatible(BackendOpenAI, apiKey, baseURL, timeout, nil)
}

// NewOpenRouter creates a client for the OpenRouter gateway.
func NewOpenRouter(apiKey, baseURL string, timeout time.Duration) *OpenAICompatible {
	if baseURL == "" {
		baseURL = DefaultOpenRouterURL
	}
	return newOpenAICompatible(BackendOpenRouter, apiKey, baseURL, timeout, map[string]string{
		"HTTP-Referer": "https://github.com/valpere/tear",
		"X-Title":      "TEaR",
	})
}

func newOpenAICompatible(name, apiKey, baseURL string, timeout time.Duration, headers map[string]string) *OpenAICompatible {
	return &OpenAICompatible{
		name:    name,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
		http:    newRestClient(timeout),
	}
}

// Name returns the backend name used in errors and routing.
func (c *OpenAICompatible) Name() string { return c.name }

func (c *OpenAICompatible) Invoke(ctx context.Context, model, prompt string) (string, error) {
	text, err := c.complete(ctx, model, prompt)
	if err != nil {
		return "", &TransportError{Backend: c.name, Model: model, Err: err}
	}
	return text, nil
}

func (c *OpenAICompatible) request(ctx context.Context) (*resty.Request, error) {
	if c.apiKey == "" {
		return nil, errors.New("API key not configured")
	}
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeaders(c.headers), nil
}

func (c *OpenAICompatible) complete(ctx context.Context, model, prompt string) (string, error) {
	req, err := c.request(ctx)
	if err != nil {
		return "", err
	}
	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Model:    model,
			Messages: []chatMessage{{Role: "user", Content: prompt}},
		}).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return "", statusError(resp)
	}

	var out chatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("empty response from API")
	}
	return out.Choices[0].Message.Content, nil
}

// ListModels returns the model ids the gateway advertises.
func (c *OpenAICompatible) ListModels(ctx context.Context) ([]string, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := req.Get(c.baseURL + "/models")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}

	var out struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	ids := make([]string, 0, len(out.Data))
	for _, d := range out.Data {
		ids = append(ids, d.ID)
	}
	return ids, nil
}
