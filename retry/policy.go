// Package retry defines the retry policy for the outbound HTTP client:
// which response status codes warrant another attempt, how many retries
// are allowed, and how long to wait before each one.
//
// The policy is a pure decision layer. It never looks at transport-level
// failures (DNS, connect, timeout): those carry no HTTP status and are
// deliberately outside the retry predicate.
package retry

import (
	"math/bits"
	"slices"
	"time"
)

const (
	// DefaultMaxAttempts is the default number of retries. Total wire
	// attempts for a call are MaxAttempts+1.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the default backoff base for the first retry.
	DefaultBaseDelay = 1 * time.Second
)

// DefaultStatusCodes are the response codes retried by default:
// request timeout, throttling, and the transient 5xx family.
var DefaultStatusCodes = []int{408, 429, 500, 502, 503, 504}

// Policy decides whether a failed attempt should be retried and how
// long to wait before the next one. The zero value never retries; use
// Default for the standard policy. Policy values are immutable and safe
// for concurrent use.
type Policy struct {
	// StatusCodes is the set of HTTP status codes that may be retried.
	StatusCodes []int
	// MaxAttempts is the number of retries. Zero disables retrying.
	MaxAttempts int
	// BaseDelay is the wait before the first retry. Each subsequent
	// retry doubles it.
	BaseDelay time.Duration
}

// Never is a policy that never retries.
var Never = Policy{}

// Default returns the standard retry policy: up to 3 retries on
// {408, 429, 500, 502, 503, 504} with a 1-second base delay.
func Default() Policy {
	return Policy{
		StatusCodes: slices.Clone(DefaultStatusCodes),
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

// RetryableStatus reports whether the given response status code is in
// the policy's retry set.
func (p Policy) RetryableStatus(code int) bool {
	return slices.Contains(p.StatusCodes, code)
}

// ShouldRetry reports whether another attempt is warranted after a
// response with the given status code. attempt is the number of retries
// already performed for this logical call (zero on the first failure).
func (p Policy) ShouldRetry(code, attempt int) bool {
	return p.RetryableStatus(code) && attempt < p.MaxAttempts
}

// Delay returns the backoff before retry n (1-indexed):
// BaseDelay * 2^(n-1). It is computed from the attempt number alone so
// retries of independent calls never interfere. Out-of-range attempt
// numbers and multiplier overflow saturate rather than wrap.
func (p Policy) Delay(n int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if n < 1 {
		n = 1
	}
	shift := uint(n - 1)
	if shift >= 63 || bits.LeadingZeros64(uint64(base)) <= int(shift) {
		return time.Duration(1<<63 - 1)
	}
	return base << shift
}
