package advisor

import (
	"context"

	"github.com/complyeu/aiact-cli/internal/resilience"
	"github.com/complyeu/aiact-cli/pkg/anthropic"
)

// ResilientCompleter wraps a Completer with retry and a circuit breaker.
// Only transient completion failures (unavailable, timeout) are retried;
// a malformed-but-successful reply passes straight through to the
// generator's own fallback handling.
type ResilientCompleter struct {
	inner   Completer
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewResilientCompleter wraps inner with the given retry and breaker
// settings.
func NewResilientCompleter(inner Completer, retry resilience.RetryConfig, breakerCfg resilience.CircuitBreakerConfig) *ResilientCompleter {
	if retry.ShouldRetry == nil {
		retry.ShouldRetry = anthropic.IsRetryable
	}
	if breakerCfg.ShouldTrip == nil {
		breakerCfg.ShouldTrip = anthropic.IsRetryable
	}
	return &ResilientCompleter{
		inner:   inner,
		retry:   retry,
		breaker: resilience.NewCircuitBreaker(breakerCfg),
	}
}

func (r *ResilientCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int64) (string, error) {
	return resilience.DoVal(ctx, r.retry, func(ctx context.Context) (string, error) {
		return resilience.ExecuteVal(ctx, r.breaker, func(ctx context.Context) (string, error) {
			return r.inner.Complete(ctx, systemPrompt, userPrompt, temperature, maxTokens)
		})
	})
}

// BreakerState exposes the circuit state for health reporting.
func (r *ResilientCompleter) BreakerState() resilience.CircuitState {
	return r.breaker.State()
}
