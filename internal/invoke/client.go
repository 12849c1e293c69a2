// Package invoke issues single calls to model backends and classifies
// their failures. Retry and fallback policy lives one layer up.
package invoke

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/openai/openai-go"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/routing"
)

// DefaultTimeout bounds one invocation attempt.
const DefaultTimeout = 60 * time.Second

// rateLimitMarkers are matched case-insensitively against backend error
// text to recognize rate limiting that does not arrive as HTTP 429.
var rateLimitMarkers = []string{"rate limit", "too many requests"}

// Client performs exactly one invocation attempt per call.
type Client struct {
	backend abstractions.Backend
	timeout time.Duration
}

func NewClient(backend abstractions.Backend, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{backend: backend, timeout: timeout}
}

// Params carries the generation parameters of one attempt.
type Params struct {
	MaxTokens   int
	Temperature float64
	Options     map[string]any
}

// Invoke issues one call over the resolved route. The outcome is either a
// completion result or one of the taxonomy errors.
func (c *Client) Invoke(ctx context.Context, route *routing.ResolvedRoute, messages []abstractions.ChatMessage, params Params) (*abstractions.CompletionResult, error) {
	req, err := c.buildRequest(route, messages, params)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.backend.Complete(callCtx, req)
	if err != nil {
		return nil, c.classify(route, err)
	}
	return result, nil
}

// BatchInvoke issues one multi-prompt call for bulk-capable providers.
// All prompts share the route and parameters; results are positional.
func (c *Client) BatchInvoke(ctx context.Context, route *routing.ResolvedRoute, prompts [][]abstractions.ChatMessage, params Params) ([]*abstractions.CompletionResult, error) {
	reqs := make([]*abstractions.CompletionRequest, 0, len(prompts))
	for _, messages := range prompts {
		req, err := c.buildRequest(route, messages, params)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results, err := c.backend.BatchComplete(callCtx, reqs)
	if err != nil {
		return nil, c.classify(route, err)
	}
	return results, nil
}

func (c *Client) buildRequest(route *routing.ResolvedRoute, messages []abstractions.ChatMessage, params Params) (*abstractions.CompletionRequest, error) {
	if !route.HasAPIKey() {
		// Fail closed: an unset credential never leaves the process as
		// an unauthenticated request.
		return nil, &InvocationError{
			Provider: route.Provider,
			Model:    route.Model,
			Err:      errors.New("no API key resolved for provider"),
		}
	}

	options := make(map[string]any, len(route.Options)+len(params.Options))
	for k, v := range route.Options {
		options[k] = v
	}
	for k, v := range params.Options {
		options[k] = v
	}

	return &abstractions.CompletionRequest{
		Provider:    route.Provider,
		Model:       route.Model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		APIKey:      route.APIKey,
		BaseURL:     route.BaseURL,
		Options:     options,
	}, nil
}

func (c *Client) classify(route *routing.ResolvedRoute, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Provider: route.Provider, Model: route.Model, Err: err}
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
		return &RateLimitError{Provider: route.Provider, Model: route.Model, Err: err}
	}

	text := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(text, marker) {
			return &RateLimitError{Provider: route.Provider, Model: route.Model, Err: err}
		}
	}

	return &InvocationError{Provider: route.Provider, Model: route.Model, Err: err}
}
