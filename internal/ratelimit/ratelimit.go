// Package ratelimit provides a per-upstream token-bucket admission
// control. Acquire never blocks: callers that cannot get a permit decide
// for themselves whether to wait (the retry package does, via backoff).
package ratelimit

import (
	"sync"
	"time"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/aggerr"
)

// Rule configures one tag's bucket: points permits refilled linearly
// over duration.
type Rule struct {
	Points   int
	Duration time.Duration
}

type bucket struct {
	mu         sync.Mutex
	points     float64
	maxPoints  float64
	refillRate float64 // points per second
	lastRefill time.Time
}

func newBucket(rule Rule) *bucket {
	now := time.Now()
	return &bucket{
		points:     float64(rule.Points),
		maxPoints:  float64(rule.Points),
		refillRate: float64(rule.Points) / rule.Duration.Seconds(),
		lastRefill: now,
	}
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.points += elapsed * b.refillRate
	if b.points > b.maxPoints {
		b.points = b.maxPoints
	}
	b.lastRefill = now
}

// acquire consumes one permit or returns the wait until the next one.
func (b *bucket) acquire() (ok bool, retryAfter time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.refill(now)

	if b.points >= 1 {
		b.points--
		return true, 0
	}

	missing := 1 - b.points
	wait := time.Duration(missing/b.refillRate*float64(time.Second)) + time.Nanosecond
	return false, wait
}

// Limiter is a registry of per-tag token buckets.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
}

// New builds a Limiter with one bucket per rule in rules.
func New(rules map[string]Rule) *Limiter {
	l := &Limiter{buckets: make(map[string]*bucket, len(rules))}
	for tag, rule := range rules {
		l.buckets[tag] = newBucket(rule)
	}
	return l
}

// Acquire consumes one permit for tag. It never blocks: on exhaustion it
// returns an *aggerr.RateLimited describing how long to wait. An unknown
// tag is a *aggerr.ConfigError.
func (l *Limiter) Acquire(tag string) error {
	l.mu.RLock()
	b, ok := l.buckets[tag]
	l.mu.RUnlock()
	if !ok {
		return &aggerr.ConfigError{Detail: "unknown rate limiter tag: " + tag}
	}

	if ok, retryAfter := b.acquire(); !ok {
		return &aggerr.RateLimited{Tag: tag, RetryAfter: retryAfter}
	}
	return nil
}
