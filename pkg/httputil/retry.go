package httputil

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// RetryableError marks a fetch failure worth another attempt: a transport
// error, a 5xx or a 429. After carries the server's Retry-After hint.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Backoff is a retry policy for dataset fetches.
type Backoff struct {
	Attempts int           // Total attempts, at least one
	Delay    time.Duration // Wait before the second attempt; doubles after each failure
	MaxDelay time.Duration // Cap on any single wait, Retry-After included; zero means no cap
}

// DefaultBackoff is the policy used by [Fetch].
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second, MaxDelay: 10 * time.Second}

// Do calls fn until it succeeds, fails with an error that is not a
// [RetryableError], or runs out of attempts. The attempt number passed to
// fn starts at 1. A Retry-After hint replaces the backoff delay for that
// wait. Cancelling ctx while waiting returns ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		var re *RetryableError
		if !errors.As(err, &re) || attempt >= attempts {
			return err
		}

		wait := delay
		if re.After > 0 {
			wait = re.After
		}
		if b.MaxDelay > 0 {
			wait = min(wait, b.MaxDelay)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

// retryAfter reads a Retry-After header given in seconds. HTTP-date values
// and garbage yield zero.
func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
