package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/docsumm/internal/llm"
)

// RetryPolicy bounds how external transformation calls are retried.
type RetryPolicy struct {
	MaxAttempts int           // Total attempts, including the first.
	BaseDelay   time.Duration // Delay before the second attempt; doubles per attempt.

	// RetryValidation treats response-shape validation failures as
	// transient. Retrying the same input often succeeds because model
	// output is not deterministic. Fatal once attempts are exhausted.
	RetryValidation bool
}

// DefaultRetryPolicy returns the standard bounds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		BaseDelay:       time.Second,
		RetryValidation: true,
	}
}

const maxBackoff = 30 * time.Second

// backoff returns the wait before attempt n+1 (n is 0-indexed), with jitter.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	base := p.BaseDelay << uint(attempt)
	if base <= 0 || base > maxBackoff {
		base = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(base)/2 + 1))
	return base + jitter
}

func (p RetryPolicy) retryable(err error) bool {
	if llm.IsTransient(err) {
		return true
	}
	return p.RetryValidation && llm.IsValidation(err)
}

// AttemptsError is the terminal failure after the attempt budget is spent.
type AttemptsError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %s", e.Op, e.Attempts, e.Last)
}

func (e *AttemptsError) Unwrap() error {
	return e.Last
}

// retryCall invokes fn up to p.MaxAttempts times, backing off exponentially
// between transient failures. Non-transient errors propagate immediately.
// Every attempt is recorded on the session log.
func retryCall[T any](ctx context.Context, log *slog.Logger, p RetryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(p.MaxAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		result, err := fn(ctx)
		if err == nil {
			log.Debug("call succeeded", "op", op, "attempt", attempt+1)
			return result, nil
		}
		lastErr = err

		if !p.retryable(err) {
			log.Error("call failed", "op", op, "attempt", attempt+1, "error", err)
			return zero, err
		}
		log.Warn("retryable call failure", "op", op, "attempt", attempt+1, "error", err)

		if attempt == attempts-1 {
			break
		}
		select {
		case <-time.After(p.backoff(attempt)):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, &AttemptsError{Op: op, Attempts: attempts, Last: lastErr}
}
