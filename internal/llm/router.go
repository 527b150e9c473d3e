package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Backend names.
const (
	BackendOllama     = "ollama"
	BackendOpenAI     = "openai"
	BackendOpenRouter = "openrouter"
	BackendAnthropic  = "anthropic"
)

var knownBackends = []string{BackendOllama, BackendOpenAI, BackendOpenRouter, BackendAnthropic}

// Endpoint holds the credentials and address of one hosted backend.
type Endpoint struct {
	APIKey  string `mapstructure:"api_key" json:"api_key"`
	BaseURL string `mapstructure:"base_url" json:"base_url"`
}

// Settings configure which backends exist and how model names map to them.
type Settings struct {
	DefaultBackend string            `mapstructure:"default_backend" json:"default_backend"`
	Models         map[string]string `mapstructure:"-" json:"models"`
	HTTPTimeout    time.Duration     `mapstructure:"http_timeout" json:"http_timeout"`
	Ollama         Endpoint          `mapstructure:"ollama" json:"ollama"`
	OpenAI         Endpoint          `mapstructure:"openai" json:"openai"`
	OpenRouter     Endpoint          `mapstructure:"openrouter" json:"openrouter"`
	Anthropic      Endpoint          `mapstructure:"anthropic" json:"anthropic"`
}

// Router sends each model to the backend that serves it. A model written as
// "backend:name" goes to that backend; otherwise the Models table is
// consulted, then the default backend.
type Router struct {
	backends map[string]Client
	models   map[string]string
	fallback string
}

// NewRouter builds every backend named in s. Ollama needs no credentials and
// is always available; hosted backends are registered only with an API key.
func NewRouter(s Settings) (*Router, error) {
	backends := map[string]Client{
		BackendOllama: NewOllama(s.Ollama.BaseURL, s.HTTPTimeout),
	}
	if s.OpenAI.APIKey != "" {
		backends[BackendOpenAI] = NewOpenAI(s.OpenAI.APIKey, s.OpenAI.BaseURL, s.HTTPTimeout)
	}
	if s.OpenRouter.APIKey != "" {
		backends[BackendOpenRouter] = NewOpenRouter(s.OpenRouter.APIKey, s.OpenRouter.BaseURL, s.HTTPTimeout)
	}
	if s.Anthropic.APIKey != "" {
		backends[BackendAnthropic] = newAnthropicFromEndpoint(s.Anthropic)
	}
	return NewRouterWith(backends, s.Models, s.DefaultBackend)
}

// NewRouterWith builds a router over explicit clients. Every backend named by
// models or fallback must be a known backend name.
func NewRouterWith(backends map[string]Client, models map[string]string, fallback string) (*Router, error) {
	if fallback == "" {
		fallback = BackendOllama
	}
	if !isKnown(fallback) && backends[fallback] == nil {
		return nil, fmt.Errorf("unknown default backend %q (known: %s)", fallback, strings.Join(knownBackends, ", "))
	}

	table := make(map[string]string, len(models))
	for model, backend := range models {
		if !isKnown(backend) && backends[backend] == nil {
			return nil, fmt.Errorf("model %q mapped to unknown backend %q", model, backend)
		}
		table[model] = backend
	}

	return &Router{backends: backends, models: table, fallback: fallback}, nil
}

func isKnown(name string) bool {
	for _, b := range knownBackends {
		if b == name {
			return true
		}
	}
	return false
}

// Route resolves model to a backend name and the model name that backend
// expects.
func (r *Router) Route(model string) (backend, name string) {
	if prefix, rest, ok := strings.Cut(model, ":"); ok && rest != "" {
		if _, exists := r.backends[prefix]; exists || isKnown(prefix) {
			return prefix, rest
		}
	}
	if b, ok := r.models[model]; ok {
		return b, model
	}
	return r.fallback, model
}

// Backends lists the registered backend names.
func (r *Router) Backends() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListModels asks backend for its models.
func (r *Router) ListModels(ctx context.Context, backend string) ([]string, error) {
	client, ok := r.backends[backend]
	if !ok {
		return nil, fmt.Errorf("backend %q is not configured", backend)
	}
	lister, ok := client.(Lister)
	if !ok {
		return nil, fmt.Errorf("backend %q cannot list models", backend)
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		return nil, &TransportError{Backend: backend, Model: "*", Err: err}
	}
	return models, nil
}

func (r *Router) Invoke(ctx context.Context, model, prompt string) (string, error) {
	backend, name := r.Route(model)
	client, ok := r.backends[backend]
	if !ok {
		return "", fmt.Errorf("%w: %q routes to %s, which is not configured", ErrUnroutable, model, backend)
	}
	return client.Invoke(ctx, name, prompt)
}
