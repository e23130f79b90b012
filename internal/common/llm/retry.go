package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"connector-workers/internal/common/logger"
)

// RetryPolicy bounds one call site: each attempt gets its own timeout and a
// failed attempt is repeated at most MaxRetries times (0 or 1).
type RetryPolicy struct {
	CallSite        string
	Timeout         time.Duration
	MaxRetries      int
	InitialInterval time.Duration
}

// Retrying applies a RetryPolicy to a Completer. Errors it returns always wrap
// ErrTimeout, ErrCircuitOpen or ErrCompletionFailed.
type Retrying struct {
	next   Completer
	policy RetryPolicy
	logger logger.Logger
}

func NewRetrying(next Completer, policy RetryPolicy, log logger.Logger) *Retrying {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.MaxRetries > 1 {
		policy.MaxRetries = 1
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = 200 * time.Millisecond
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Retrying{
		next:   next,
		policy: policy,
		logger: log.WithFields(map[string]interface{}{"callSite": policy.CallSite}),
	}
}

func (r *Retrying) Complete(ctx context.Context, req Request) (string, error) {
	var (
		text    string
		attempt int
	)

	op := func() error {
		attempt++
		attemptCtx := ctx
		cancel := func() {}
		if r.policy.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.policy.Timeout)
		}
		defer cancel()

		out, err := r.next.Complete(attemptCtx, req)
		if err == nil {
			text = out
			return nil
		}

		if errors.Is(err, ErrCircuitOpen) {
			return backoff.Permanent(err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(fmt.Errorf("%w: %s: %v", ErrTimeout, r.policy.CallSite, ctxErr))
		}
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
			err = fmt.Errorf("%w: %s: no reply within %s", ErrTimeout, r.policy.CallSite, r.policy.Timeout)
		}

		r.logger.Warn("completion attempt failed", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})
		return err
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.policy.InitialInterval
	expo.MaxElapsedTime = 0
	bo := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(r.policy.MaxRetries)), ctx)

	if err := backoff.Retry(op, bo); err != nil {
		switch {
		case errors.Is(err, ErrTimeout), errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrCompletionFailed):
			return "", err
		case errors.Is(err, context.DeadlineExceeded):
			return "", fmt.Errorf("%w: %s: %v", ErrTimeout, r.policy.CallSite, err)
		default:
			return "", fmt.Errorf("%w: %s: %v", ErrCompletionFailed, r.policy.CallSite, err)
		}
	}

	return text, nil
}
