// Package llm is the boundary between the pipeline and the language models
// it prompts. A Client turns one prompt into one raw completion; the pipeline
// never retries and never inspects transport details.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultHTTPTimeout bounds a single HTTP round trip to a backend.
const DefaultHTTPTimeout = 120 * time.Second

// Client invokes a model with a prompt and returns its raw text answer.
type Client interface {
	Invoke(ctx context.Context, model, prompt string) (string, error)
}

// Lister is implemented by backends that can enumerate their models.
type Lister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// TransportError wraps any failure to obtain a completion from a backend.
type TransportError struct {
	Backend string
	Model   string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Backend, e.Model, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrUnroutable is returned when no configured backend serves a model.
var ErrUnroutable = errors.New("no backend configured for model")

func newRestClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return resty.New().SetTimeout(timeout).SetDisableWarn(true)
}

// statusError describes an error response, keeping a prefix of the body.
func statusError(resp *resty.Response) error {
	const limit = 512
	body := resp.Body()
	if len(body) > limit {
		body = body[:limit]
	}
	if len(body) == 0 {
		return fmt.Errorf("backend returned status %d", resp.StatusCode())
	}
	return fmt.Errorf("backend returned status %d: %s", resp.StatusCode(), body)
}
