package invoke

import (
	"errors"
	"fmt"
	"strings"
)

// The failure taxonomy of one invocation attempt. Timeout and rate-limit
// failures are retryable within one provider; anything else is not, but
// still triggers the fallback chain.

// TimeoutError reports that an attempt exceeded the wall-clock timeout.
type TimeoutError struct {
	Provider string
	Model    string
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("invocation of %s/%s timed out: %v", e.Provider, e.Model, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// RateLimitError reports that the backend rejected an attempt for sending
// too many requests.
type RateLimitError struct {
	Provider string
	Model    string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("invocation of %s/%s was rate limited: %v", e.Provider, e.Model, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// InvocationError reports a non-retryable attempt failure.
type InvocationError struct {
	Provider string
	Model    string
	Err      error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invocation of %s/%s failed: %v", e.Provider, e.Model, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// ModelNotAvailableError reports that the routing layer could not resolve
// a model alias.
type ModelNotAvailableError struct {
	Model string
	Err   error
}

func (e *ModelNotAvailableError) Error() string {
	return fmt.Sprintf("model %s is not available: %v", e.Model, e.Err)
}

func (e *ModelNotAvailableError) Unwrap() error { return e.Err }

// ProviderAttempt records the final error of one exhausted provider.
type ProviderAttempt struct {
	Provider string
	Err      error
}

// AllProvidersFailedError aggregates the failures of the primary provider
// and every configured fallback. Fatal for the sample that caused it.
type AllProvidersFailedError struct {
	Attempts []ProviderAttempt
}

func (e *AllProvidersFailedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", attempt.Provider, attempt.Err))
	}
	return "all providers failed: " + strings.Join(parts, "; ")
}

// Retryable reports whether err is worth retrying on the same provider.
func Retryable(err error) bool {
	var timeoutErr *TimeoutError
	var rateLimitErr *RateLimitError
	return errors.As(err, &timeoutErr) || errors.As(err, &rateLimitErr)
}
