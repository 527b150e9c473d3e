package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

// Anthropic calls the Messages API through the official SDK.
type Anthropic struct {
	client     anthropic.Client
	configured bool
}

// NewAnthropic creates a client authenticated with apiKey. Extra request
// options (base URL, HTTP client) are passed through to the SDK.
func NewAnthropic(apiKey string, opts ...option.RequestOption) *Anthropic {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Anthropic{
		client:     anthropic.NewClient(all...),
		configured: apiKey != "",
	}
}

func (a *Anthropic) Invoke(ctx context.Context, model, prompt string) (string, error) {
	text, err := a.message(ctx, model, prompt)
	if err != nil {
		return "", &TransportError{Backend: BackendAnthropic, Model: model, Err: err}
	}
	return text, nil
}

func (a *Anthropic) message(ctx context.Context, model, prompt string) (string, error) {
	if !a.configured {
		return "", errors.New("API key not configured")
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages API: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("no text content in response")
}

// ListModels returns the model ids available to the API key.
func (a *Anthropic) ListModels(ctx context.Context) ([]string, error) {
	if !a.configured {
		return nil, errors.New("API key not configured")
	}
	page, err := a.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, fmt.Errorf("models API: %w", err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func newAnthropicFromEndpoint(e Endpoint) *Anthropic {
	var opts []option.RequestOption
	if e.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(e.BaseURL))
	}
	return NewAnthropic(e.APIKey, opts...)
}
