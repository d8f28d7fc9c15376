package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
)

// Policy bounds how a transient failure is retried.
type Policy struct {
	// MaxRetries is the number of re-attempts after the first try.
	MaxRetries uint64
	// InitialInterval seeds the exponential backoff between attempts.
	InitialInterval time.Duration
}

// DefaultPolicy suits the external API calls made by this pipeline.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
	}
}

// Do runs op under the policy, backing off exponentially between attempts.
// Errors wrapped with Permanent stop retrying immediately; context
// cancellation stops the loop as well.
func Do(ctx context.Context, p Policy, op func() error) error {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
	return backoff.Retry(op, policy)
}

// Permanent marks err as not worth retrying (bad credentials, malformed
// request). Do returns the original error unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
