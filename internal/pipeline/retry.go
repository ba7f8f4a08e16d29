package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/fpang/media-hooks/internal/inference"
)

// RetryPolicy bounds retries of transient inference failures.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries. 1 or less disables retry.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy tries three times with a short exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     4 * time.Second,
	}
}

// retry calls fn until it succeeds, returns a non-transient error, the
// policy runs out of attempts, or ctx is done.
func retry[T any](ctx context.Context, p RetryPolicy, op string, fn func() (T, error)) (T, error) {
	if p.MaxAttempts <= 1 {
		return fn()
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}

	attempt := 0
	res, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		v, err := fn()
		if err != nil && !inference.IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().
				Err(err).
				Str("op", op).
				Int("attempt", attempt).
				Dur("retry_in", next).
				Msg("Transient inference failure, retrying")
		}),
	)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	return res, err
}

// retryingGenerator applies a RetryPolicy to every Generate call.
type retryingGenerator struct {
	inner  inference.Generator
	policy RetryPolicy
}

func (g retryingGenerator) Generate(ctx context.Context, prompt string, params inference.DecodingParams) (inference.Generation, error) {
	return retry(ctx, g.policy, "generate", func() (inference.Generation, error) {
		return g.inner.Generate(ctx, prompt, params)
	})
}
