// Package retry provides bounded retry with quadratic backoff for
// notification delivery and other flaky outbound calls.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy bounds the retry loop.
type Policy struct {
	// Attempts is the total number of tries, the first call included.
	Attempts int
	// Base scales the backoff: the wait after try n is Base * n².
	Base time.Duration
	// Notify, when set, observes each failed try before the backoff sleep.
	// It is not called after the final try.
	Notify func(try int, err error)
}

// Do runs op until it succeeds, the policy is exhausted, or ctx is done.
// It returns nil on success and the last op error otherwise.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	var last error
	for try := 1; ; try++ {
		last = op(ctx)
		if last == nil {
			return nil
		}
		if try == p.Attempts {
			return last
		}
		if p.Notify != nil {
			p.Notify(try, last)
		}

		backoff := p.Base * time.Duration(try*try)
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("giving up after try %d: %w", try, ctx.Err())
		}
	}
}
