package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/aggerr"
)

func TestLimiter_AcquireWithinBudget(t *testing.T) {
	l := New(map[string]Rule{"dex": {Points: 2, Duration: time.Minute}})

	if err := l.Acquire("dex"); err != nil {
		t.Fatalf("first acquire: unexpected error %v", err)
	}
	if err := l.Acquire("dex"); err != nil {
		t.Fatalf("second acquire: unexpected error %v", err)
	}
}

func TestLimiter_AcquireExhausted(t *testing.T) {
	l := New(map[string]Rule{"dex": {Points: 1, Duration: time.Minute}})

	if err := l.Acquire("dex"); err != nil {
		t.Fatalf("first acquire: unexpected error %v", err)
	}

	err := l.Acquire("dex")
	if err == nil {
		t.Fatal("expected RateLimited on exhausted bucket")
	}

	var rl *aggerr.RateLimited
	if !errors.As(err, &rl) {
		t.Fatalf("expected *aggerr.RateLimited, got %T", err)
	}
	if rl.RetryAfter <= 0 {
		t.Errorf("expected positive RetryAfter, got %v", rl.RetryAfter)
	}
}

func TestLimiter_UnknownTagIsConfigError(t *testing.T) {
	l := New(map[string]Rule{"dex": {Points: 1, Duration: time.Minute}})

	err := l.Acquire("market")
	if err == nil {
		t.Fatal("expected error for unknown tag")
	}
	var ce *aggerr.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *aggerr.ConfigError, got %T", err)
	}
}

func TestLimiter_RefillOverTime(t *testing.T) {
	// 1 point per 10ms, refills fast enough for a test.
	l := New(map[string]Rule{"dex": {Points: 1, Duration: 10 * time.Millisecond}})

	if err := l.Acquire("dex"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := l.Acquire("dex"); err == nil {
		t.Fatal("expected bucket to be exhausted immediately")
	}

	time.Sleep(15 * time.Millisecond)

	if err := l.Acquire("dex"); err != nil {
		t.Errorf("expected refilled permit after waiting, got %v", err)
	}
}

// TestLimiter_Budget is the property test from the testable-properties
// list: over duration D, no more than points*D/duration + points
// acquisitions succeed per tag.
func TestLimiter_Budget(t *testing.T) {
	points := 5
	duration := 50 * time.Millisecond
	l := New(map[string]Rule{"dex": {Points: points, Duration: duration}})

	deadline := time.Now().Add(3 * duration)
	succeeded := 0
	for time.Now().Before(deadline) {
		if err := l.Acquire("dex"); err == nil {
			succeeded++
		}
	}

	maxAllowed := int(float64(points)*3.0) + points + 2 // +2 slack for timing jitter
	if succeeded > maxAllowed {
		t.Errorf("budget exceeded: got %d successes, want <= %d", succeeded, maxAllowed)
	}
}
