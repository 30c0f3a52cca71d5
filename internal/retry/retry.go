// Package retry implements the until-success retry driver shared by every
// producer loop. Upstream outages are expected to be transient and the display
// has no better option than to keep trying, so there is no attempt limit and
// no cancellation path other than the caller's context.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Notify is invoked after each failed attempt with the error and the delay
// before the next attempt.
type Notify func(err error, next time.Duration)

// UntilSuccess retries op with a constant delay until it succeeds or ctx ends.
// It blocks the calling goroutine for its entire duration; it must run on a
// loop-owned goroutine, never on the render consumer's.
func UntilSuccess[T any](ctx context.Context, delay time.Duration, op func() (T, error), notify Notify) (T, error) {
	b := backoff.WithContext(backoff.NewConstantBackOff(delay), ctx)

	var n backoff.Notify
	if notify != nil {
		n = func(err error, next time.Duration) {
			notify(err, next)
		}
	}

	return backoff.RetryNotifyWithData(op, b, n)
}
