// Package aggerr defines the typed error taxonomy shared by every
// component of the aggregation pipeline, so callers can dispatch on
// error kind with errors.As instead of string matching.
package aggerr

import (
	"fmt"
	"time"
)

// RateLimited is returned by the rate limiter when no permit is
// available for a tag. RetryAfter is the time until the next permit; the
// retry package waits its own backoff schedule, not RetryAfter.
type RateLimited struct {
	Tag        string
	RetryAfter time.Duration
}

func (e *RateLimited) Error() string {
	return fmt.Sprintf("rate limited on %q, retry after %s", e.Tag, e.RetryAfter)
}

// ConfigError is fatal at startup or at the point of use; it is never
// retried.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Detail
}

// Cancelled wraps context cancellation surfaced through a fallible call;
// like ConfigError, it is never retried.
type Cancelled struct {
	Cause error
}

func (e *Cancelled) Error() string {
	return fmt.Sprintf("cancelled: %v", e.Cause)
}

func (e *Cancelled) Unwrap() error { return e.Cause }

// CacheUnavailable is returned by the snapshot store when the backing
// cache cannot be opened or written. On Put it is fatal for the tick.
// Get and GetToken never return it: a read failure is reported as a miss.
type CacheUnavailable struct {
	Op    string
	Cause error
}

func (e *CacheUnavailable) Error() string {
	return fmt.Sprintf("cache unavailable during %s: %v", e.Op, e.Cause)
}

func (e *CacheUnavailable) Unwrap() error { return e.Cause }

// ValidationError marks a single record rejected by the normalizer; it
// never propagates past the adapter that produced it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Reason)
}
