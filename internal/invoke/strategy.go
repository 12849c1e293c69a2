package invoke

import (
	"context"
	"errors"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/routing"
)

// Strategy is the single contract both invocation paths implement. The
// retry controller selects the strategy; call construction never forks.
type Strategy interface {
	Name() string
	Invoke(ctx context.Context, route *routing.ResolvedRoute, messages []abstractions.ChatMessage, params Params) (*abstractions.CompletionResult, error)
}

// DirectStrategy invokes the route exactly as resolved.
type DirectStrategy struct {
	client *Client
}

func NewDirectStrategy(client *Client) *DirectStrategy {
	return &DirectStrategy{client: client}
}

func (s *DirectStrategy) Name() string { return "direct" }

func (s *DirectStrategy) Invoke(ctx context.Context, route *routing.ResolvedRoute, messages []abstractions.ChatMessage, params Params) (*abstractions.CompletionResult, error) {
	return s.client.Invoke(ctx, route, messages, params)
}

// RouterStrategy invokes through a router-resolved model alias. Models
// with an explicit empty alias are excluded from routing.
type RouterStrategy struct {
	client  *Client
	aliases map[string]string
}

func NewRouterStrategy(client *Client, aliases map[string]string) *RouterStrategy {
	return &RouterStrategy{client: client, aliases: aliases}
}

func (s *RouterStrategy) Name() string { return "router" }

func (s *RouterStrategy) Invoke(ctx context.Context, route *routing.ResolvedRoute, messages []abstractions.ChatMessage, params Params) (*abstractions.CompletionResult, error) {
	alias, err := s.resolveAlias(route.Model)
	if err != nil {
		return nil, err
	}

	routed := *route
	routed.Model = alias
	return s.client.Invoke(ctx, &routed, messages, params)
}

func (s *RouterStrategy) resolveAlias(model string) (string, error) {
	if alias, ok := s.aliases[model]; ok {
		if alias == "" {
			return "", &ModelNotAvailableError{Model: model, Err: errors.New("model is excluded from routing")}
		}
		return alias, nil
	}
	return "auto:" + model, nil
}
