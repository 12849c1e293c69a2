// Package retry wraps the invocation client with bounded retries and the
// ordered fallback-provider walk.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/invoke"
	"github.com/bench-hub/bench-hub/internal/routing"
	"github.com/bench-hub/bench-hub/internal/telemetry"
)

// Policy bounds the retries of one provider.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// DefaultPolicy matches the engine defaults.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
	Multiplier:  2.0,
	MaxDelay:    30 * time.Second,
}

// Request is one sample invocation to be executed under the policy.
type Request struct {
	ProviderID string
	ModelID    string
	Messages   []abstractions.ChatMessage
	Params     invoke.Params
	Overrides  *routing.Overrides
}

// Controller retries transient failures with exponential backoff and, on
// exhaustion, walks the configured fallback providers in order.
type Controller struct {
	resolver  *routing.Resolver
	direct    invoke.Strategy
	router    invoke.Strategy
	policy    Policy
	fallbacks []string
	logger    *slog.Logger
}

func NewController(resolver *routing.Resolver, direct invoke.Strategy, router invoke.Strategy, policy Policy, fallbacks []string, logger *slog.Logger) *Controller {
	if policy.MaxAttempts <= 0 {
		policy = DefaultPolicy
	}
	return &Controller{
		resolver:  resolver,
		direct:    direct,
		router:    router,
		policy:    policy,
		fallbacks: fallbacks,
		logger:    logger,
	}
}

// Execute runs one sample invocation to completion or to an aggregated
// AllProvidersFailedError. The route is resolved fresh for every attempt
// so credential changes apply immediately.
func (c *Controller) Execute(ctx context.Context, req *Request) (*abstractions.CompletionResult, error) {
	// The router path is tried first when enabled. Any failure there
	// falls back to the direct chain instead of failing the sample.
	if c.router != nil {
		result, err := c.invokeWithRetry(ctx, c.router, req, c.resolvePrimary(req))
		if err == nil {
			return result, nil
		}
		c.logger.Warn("Router invocation failed, falling back to direct path", "model_id", req.ModelID, "error", err)
	}

	var attempts []invoke.ProviderAttempt

	primaryRoute, err := c.resolver.ResolveByID(req.ProviderID, req.ModelID, req.Overrides)
	if err != nil {
		return nil, err
	}
	primaryProvider := primaryRoute.Provider
	modelName := primaryRoute.Model

	result, err := c.invokeWithRetry(ctx, c.direct, req, c.resolvePrimary(req))
	if err == nil {
		return result, nil
	}
	attempts = append(attempts, invoke.ProviderAttempt{Provider: primaryProvider, Err: err})

	// The fallback model name is the same string: fallback providers
	// carry no model mapping.
	for _, fallbackProvider := range c.fallbacks {
		if fallbackProvider == primaryProvider {
			continue
		}
		telemetry.FallbacksTotal.WithLabelValues(fallbackProvider).Inc()
		c.logger.Info("Trying fallback provider", "provider", fallbackProvider, "model", modelName)

		result, err := c.invokeWithRetry(ctx, c.direct, req, c.resolveFallback(fallbackProvider, modelName, req))
		if err == nil {
			return result, nil
		}
		attempts = append(attempts, invoke.ProviderAttempt{Provider: fallbackProvider, Err: err})
	}

	return nil, &invoke.AllProvidersFailedError{Attempts: attempts}
}

type resolveFunc func() (*routing.ResolvedRoute, error)

func (c *Controller) resolvePrimary(req *Request) resolveFunc {
	return func() (*routing.ResolvedRoute, error) {
		return c.resolver.ResolveByID(req.ProviderID, req.ModelID, req.Overrides)
	}
}

func (c *Controller) resolveFallback(providerName string, modelName string, req *Request) resolveFunc {
	return func() (*routing.ResolvedRoute, error) {
		return c.resolver.ResolveByName(providerName, modelName, req.Overrides)
	}
}

// invokeWithRetry retries transient failures of one provider up to the
// attempt ceiling. Non-retryable failures stop the loop immediately.
func (c *Controller) invokeWithRetry(ctx context.Context, strategy invoke.Strategy, req *Request, resolve resolveFunc) (*abstractions.CompletionResult, error) {
	attempt := 0
	operation := func() (*abstractions.CompletionResult, error) {
		route, err := resolve()
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		if attempt > 0 {
			telemetry.InvocationRetriesTotal.WithLabelValues(route.Provider).Inc()
		}
		attempt++

		result, err := strategy.Invoke(ctx, route, req.Messages, req.Params)
		if err != nil {
			telemetry.InvocationAttemptsTotal.WithLabelValues(route.Provider, "error").Inc()
			if invoke.Retryable(err) {
				c.logger.Warn("Invocation attempt failed, will retry",
					"strategy", strategy.Name(), "provider", route.Provider, "model", route.Model,
					"attempt", attempt, "error", err)
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		telemetry.InvocationAttemptsTotal.WithLabelValues(route.Provider, "success").Inc()
		return result, nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.policy.BaseDelay
	expBackoff.Multiplier = c.policy.Multiplier
	expBackoff.MaxInterval = c.policy.MaxDelay

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(uint(c.policy.MaxAttempts)))
}
