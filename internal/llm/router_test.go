package llm

import (
	"context"
	"errors"
	"testing"
)

type mockClient struct {
	name  string
	calls []string
}

func (m *mockClient) Invoke(_ context.Context, model, _ string) (string, error) {
	m.calls = append(m.calls, model)
	return m.name + ":" + model, nil
}

func TestRouter_Route(t *testing.T) {
	ollama := &mockClient{name: "ollama"}
	openai := &mockClient{name: "openai"}
	r, err := NewRouterWith(
		map[string]Client{BackendOllama: ollama, BackendOpenAI: openai},
		map[string]string{"gpt-4": BackendOpenAI, "claude-3-opus": BackendAnthropic},
		BackendOllama,
	)
	if err != nil {
		t.Fatalf("NewRouterWith: %v", err)
	}

	tests := []struct {
		model, backend, name string
	}{
		{"gpt-4", "openai", "gpt-4"},
		{"openai:gpt-4o-mini", "openai", "gpt-4o-mini"},
		{"llama3.2:3b", "ollama", "llama3.2:3b"},
		{"qwen2.5", "ollama", "qwen2.5"},
		{"anthropic:claude-sonnet-4-5", "anthropic", "claude-sonnet-4-5"},
		{"openrouter:meta-llama/llama-3.1-8b-instruct:free", "openrouter", "meta-llama/llama-3.1-8b-instruct:free"},
	}

	for _, tt := range tests {
		backend, name := r.Route(tt.model)
		if backend != tt.backend || name != tt.name {
			t.Errorf("Route(%q) = (%q, %q), want (%q, %q)", tt.model, backend, name, tt.backend, tt.name)
		}
	}
}

func TestRouter_Invoke(t *testing.T) {
	ollama := &mockClient{name: "ollama"}
	openai := &mockClient{name: "openai"}
	r, _ := NewRouterWith(map[string]Client{BackendOllama: ollama, BackendOpenAI: openai}, nil, "")

	got, err := r.Invoke(context.Background(), "openai:gpt-4", "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "openai:gpt-4" {
		t.Errorf("unexpected answer %q", got)
	}
	if len(ollama.calls) != 0 {
		t.Error("ollama should not have been called")
	}
}

func TestRouter_Unroutable(t *testing.T) {
	r, _ := NewRouterWith(map[string]Client{BackendOllama: &mockClient{}}, map[string]string{"gpt-4": BackendOpenAI}, "")

	_, err := r.Invoke(context.Background(), "gpt-4", "p")
	if !errors.Is(err, ErrUnroutable) {
		t.Errorf("expected ErrUnroutable, got %v", err)
	}
}

func TestNewRouterWith_UnknownBackend(t *testing.T) {
	if _, err := NewRouterWith(nil, nil, "bedrock"); err == nil {
		t.Error("expected error for unknown default backend")
	}
	if _, err := NewRouterWith(nil, map[string]string{"m": "vertex"}, ""); err == nil {
		t.Error("expected error for unknown mapped backend")
	}
}

func TestNewRouter_RegistersConfiguredBackends(t *testing.T) {
	r, err := NewRouter(Settings{
		OpenRouter: Endpoint{APIKey: "or-key"},
		Models:     map[string]string{"gpt-4": BackendOpenAI},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	got := r.Backends()
	if len(got) != 2 || got[0] != BackendOllama || got[1] != BackendOpenRouter {
		t.Errorf("unexpected backends %v", got)
	}
}

type listingClient struct {
	mockClient
	models []string
	err    error
}

func (l *listingClient) ListModels(context.Context) ([]string, error) {
	return l.models, l.err
}

func TestRouter_ListModels(t *testing.T) {
	r, err := NewRouterWith(map[string]Client{
		BackendOllama:     &listingClient{models: []string{"qwen2.5:7b", "llama3.2:3b"}},
		BackendOpenAI:     &mockClient{name: "openai"},
		BackendOpenRouter: &listingClient{err: errors.New("boom")},
	}, nil, BackendOllama)
	if err != nil {
		t.Fatalf("NewRouterWith: %v", err)
	}

	models, err := r.ListModels(context.Background(), BackendOllama)
	if err != nil || len(models) != 2 {
		t.Errorf("expected 2 models, got %v (%v)", models, err)
	}

	if _, err := r.ListModels(context.Background(), BackendOpenAI); err == nil {
		t.Error("expected error for a backend that cannot list")
	}
	if _, err := r.ListModels(context.Background(), BackendAnthropic); err == nil {
		t.Error("expected error for an unconfigured backend")
	}

	_, err = r.ListModels(context.Background(), BackendOpenRouter)
	var te *TransportError
	if !errors.As(err, &te) || te.Backend != BackendOpenRouter {
		t.Errorf("expected TransportError from openrouter, got %v", err)
	}
}
