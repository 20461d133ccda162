package llm

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryPolicy retries server errors a fixed number of times, waiting a
// random delay in [MinDelay, MaxDelay) before each retry.
type RetryPolicy struct {
	MaxRetries int
	MinDelay   time.Duration
	MaxDelay   time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before every retry.
	OnRetry func(p Provider, attempt int, err error)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 5,
		MinDelay:   10 * time.Second,
		MaxDelay:   20 * time.Second,
	}
}

func (p RetryPolicy) delay() time.Duration {
	if p.MaxDelay <= p.MinDelay {
		return p.MinDelay
	}
	return p.MinDelay + rand.N(p.MaxDelay-p.MinDelay)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type retryingClient struct {
	Client
	policy RetryPolicy
	logger *slog.Logger
}

// WithRetry wraps c so server-class errors are retried according to policy.
// All other errors are returned on the first failure.
func WithRetry(c Client, policy RetryPolicy, logger *slog.Logger) Client {
	if policy.Sleep == nil {
		policy.Sleep = sleepCtx
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &retryingClient{Client: c, policy: policy, logger: logger}
}

func (r *retryingClient) Complete(ctx context.Context, req Request) (Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := r.Client.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsServerError(err) || attempt >= r.policy.MaxRetries {
			return Response{}, err
		}
		d := r.policy.delay()
		r.logger.Warn("llm:complete:retry",
			"provider", r.Provider(),
			"attempt", attempt+1,
			"max_retries", r.policy.MaxRetries,
			"delay", d.Round(time.Millisecond),
			"error", err)
		if r.policy.OnRetry != nil {
			r.policy.OnRetry(r.Provider(), attempt+1, err)
		}
		if err := r.policy.Sleep(ctx, d); err != nil {
			return Response{}, err
		}
	}
}
