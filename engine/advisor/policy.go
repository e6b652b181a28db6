package advisor

import (
	"context"
	"errors"

	"github.com/WessleyAI/autosphere/pkg/fn"
	"github.com/WessleyAI/autosphere/pkg/llm"
	"github.com/WessleyAI/autosphere/pkg/resilience"
)

// WithBreaker routes every call through b. Open-circuit rejections surface
// as resilience.ErrCircuitOpen. Rate-limit rejections from a limiter inside
// g do not count against the service.
func WithBreaker(g llm.Generator, b *resilience.Breaker) llm.Generator {
	return llm.GeneratorFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return resilience.CallResult(b, ctx, func(ctx context.Context) fn.Result[string] {
			return fn.FromPair(g.Generate(ctx, req))
		}).Unwrap()
	})
}

// WithRateLimit gates every call through l.
func WithRateLimit(g llm.Generator, l *resilience.Limiter) llm.Generator {
	return llm.GeneratorFunc(func(ctx context.Context, req llm.Request) (string, error) {
		var out string
		err := l.Call(ctx, func(ctx context.Context) error {
			var err error
			out, err = g.Generate(ctx, req)
			return err
		})
		return out, err
	})
}

// WithRetry retries failed calls with backoff. Rejections from a breaker or
// limiter wrapped inside g are not retried.
func WithRetry(g llm.Generator, opts fn.RetryOpts) llm.Generator {
	if opts.Retryable == nil {
		opts.Retryable = retryable
	}
	return llm.GeneratorFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return fn.Retry(ctx, opts, func(ctx context.Context) fn.Result[string] {
			return fn.FromPair(g.Generate(ctx, req))
		}).Unwrap()
	})
}

func retryable(err error) bool {
	for _, target := range []error{resilience.ErrCircuitOpen, resilience.ErrRateLimited, context.Canceled} {
		if errors.Is(err, target) {
			return false
		}
	}
	return true
}
