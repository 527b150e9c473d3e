package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultOllamaURL is the address of a local Ollama daemon.
const DefaultOllamaURL = "http://localhost:11434"

// Ollama talks to an Ollama server's /api/generate endpoint.
type Ollama struct {
	baseURL string
	http    *resty.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// NewOllama creates a client for the Ollama server at baseURL.
func NewOllama(baseURL string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newRestClient(timeout),
	}
}

func (o *Ollama) Invoke(ctx context.Context, model, prompt string) (string, error) {
	text, err := o.generate(ctx, model, prompt)
	if err != nil {
		return "", &TransportError{Backend: BackendOllama, Model: model, Err: err}
	}
	return text, nil
}

func (o *Ollama) generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := o.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(ollamaRequest{Model: model, Prompt: prompt, Stream: false}).
		Post(o.baseURL + "/api/generate")
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return "", statusError(resp)
	}

	var out ollamaResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama: %s", out.Error)
	}
	return out.Response, nil
}

// ListModels returns the names of the models pulled on the server.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	resp, err := o.http.R().SetContext(ctx).Get(o.baseURL + "/api/tags")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}

	var out struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
