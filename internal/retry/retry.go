// Package retry wraps a fallible thunk in exponential backoff with full
// jitter, built on top of github.com/cenkalti/backoff/v4 the same way the
// teacher's main.go drives a reconnect loop through backoff.RetryNotify —
// only the NextBackOff schedule itself is custom, to match this module's
// exact delay formula.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/aggerr"
)

// Config controls attempt count and base delay.
type Config struct {
	MaxAttempts int           // default 3
	BaseDelay   time.Duration // default 1s
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: time.Second}
}

// schedule implements backoff.BackOff with the delay formula from the
// spec: delay before attempt k (1-indexed, k>=2) is
// base*2^(k-2) + U[0,1s). backoff.Retry calls NextBackOff only after a
// failed attempt, to compute the wait before the *next* attempt — so
// the first call here must already return the delay for k=2.
type schedule struct {
	base    time.Duration
	attempt int
}

func (s *schedule) NextBackOff() time.Duration {
	s.attempt++
	k := s.attempt + 1
	fixed := s.base * time.Duration(1<<(k-2))
	jitter := time.Duration(rand.Int63n(int64(time.Second)))
	return fixed + jitter
}

func (s *schedule) Reset() { s.attempt = 0 }

// notRetried reports whether err should never be retried, per the spec's
// error taxonomy: ConfigError and Cancelled are permanent.
func notRetried(err error) bool {
	var cfgErr *aggerr.ConfigError
	var cancelled *aggerr.Cancelled
	return errors.As(err, &cfgErr) || errors.As(err, &cancelled)
}

// Do runs fn up to cfg.MaxAttempts times, waiting the spec's backoff
// schedule between attempts. It returns the last error verbatim if every
// attempt fails. ctx cancellation aborts the wait between attempts.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}

	b := &schedule{base: cfg.BaseDelay}
	bounded := backoff.WithMaxRetries(b, uint64(cfg.MaxAttempts-1))
	bctx := backoff.WithContext(bounded, ctx)

	op := func() error {
		err := fn()
		if err != nil && notRetried(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(op, bctx)
}
