// Package scheduler drives the aggregator's tick loop: fan out to every
// upstream adapter, merge the results, put the fused snapshot, detect
// changes against the previous tick, and broadcast. One tick is strictly
// sequential (fetch -> merge -> put -> detect -> broadcast); ticks
// themselves are single-flight, never overlapping.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/logging"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/merge"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/obsmetrics"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/snapshotstore"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/upstream"
)

// startupDelay gives the process a moment to finish wiring (HTTP server
// bound, subscribers able to connect) before the first tick fires.
const startupDelay = time.Second

// TickHandler is called once per completed tick with the previous and
// current snapshots, so the caller can run change detection and
// broadcast without the Scheduler importing either package directly.
type TickHandler func(prev, current models.Snapshot)

// Scheduler owns the ticker and the fan-out over adapters.
type Scheduler struct {
	adapters  []upstream.Adapter
	store     *snapshotstore.Store
	interval  time.Duration
	maxTokens int
	log       *logging.Logger
	metrics   *obsmetrics.Metrics
	onTick    TickHandler

	mu   sync.Mutex
	prev models.Snapshot
}

// New builds a Scheduler over adapters, writing fused snapshots to store
// every interval and invoking onTick after each successful Put.
func New(adapters []upstream.Adapter, store *snapshotstore.Store, interval time.Duration, maxTokens int, log *logging.Logger, metrics *obsmetrics.Metrics, onTick TickHandler) *Scheduler {
	return &Scheduler{
		adapters:  adapters,
		store:     store,
		interval:  interval,
		maxTokens: maxTokens,
		log:       log,
		metrics:   metrics,
		onTick:    onTick,
	}
}

// Run blocks, driving ticks until ctx is cancelled. A cancellation
// cancels the next tick's wait but lets an in-flight tick finish.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(startupDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.tick(context.WithoutCancel(ctx))
			timer.Reset(s.interval)
		}
	}
}

// tick runs one fetch -> merge -> put cycle. Ticks are single-flight by
// construction: Run never starts a new tick before the previous one's
// timer.Reset, and tick itself holds s.mu only to swap the in-memory
// mirror of the last-published snapshot.
func (s *Scheduler) tick(ctx context.Context) {
	results := s.fetchAll(ctx)

	lists := make([][]models.Token, 0, len(results))
	anySucceeded := false
	for _, r := range results {
		if r.err != nil {
			s.metrics.UpstreamErrors.WithLabelValues(r.tag).Inc()
			s.log.WithError(r.err, "upstream fetch failed", "tag", r.tag)
			continue
		}
		anySucceeded = true
		lists = append(lists, r.tokens)
	}

	if !anySucceeded {
		s.metrics.TicksAborted.Inc()
		s.log.Errorw("tick aborted: every upstream failed")
		return
	}

	// Read the previous snapshot from the store itself, not only the
	// in-memory mirror, so a process restart still diffs against the
	// last persisted snapshot rather than treating every post-restart
	// tick as the first.
	prev, _ := s.store.Get(ctx)

	current := merge.Merge(lists, time.Now(), s.maxTokens)

	putStart := time.Now()
	if err := s.store.Put(ctx, current); err != nil {
		s.metrics.CachePutDuration.Observe(time.Since(putStart).Seconds())
		s.log.WithError(err, "snapshot put failed; previous snapshot remains authoritative")
		s.metrics.TicksAborted.Inc()
		return
	}
	s.metrics.CachePutDuration.Observe(time.Since(putStart).Seconds())

	s.metrics.TicksCompleted.Inc()
	s.metrics.TokensPublished.Set(float64(len(current.Tokens)))

	s.mu.Lock()
	s.prev = current
	s.mu.Unlock()

	if s.onTick != nil {
		s.onTick(prev, current)
	}
}

type fetchResult struct {
	tag    string
	tokens []models.Token
	err    error
}

// fetchAll forks one task per adapter and awaits all of them, all-settled
// (a failing adapter does not cancel the others).
func (s *Scheduler) fetchAll(ctx context.Context) []fetchResult {
	results := make([]fetchResult, len(s.adapters))

	var wg sync.WaitGroup
	wg.Add(len(s.adapters))
	for i, a := range s.adapters {
		go func(i int, a upstream.Adapter) {
			defer wg.Done()
			start := time.Now()
			tokens, err := a.Fetch(ctx)
			s.metrics.ObserveFetch(a.Tag(), time.Since(start))
			results[i] = fetchResult{tag: a.Tag(), tokens: tokens, err: err}
		}(i, a)
	}
	wg.Wait()

	return results
}

// Previous returns the snapshot produced by the last successful tick, or
// the zero Snapshot if none has completed yet.
func (s *Scheduler) Previous() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prev
}
