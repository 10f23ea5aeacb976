// Command aggregator runs the meme-coin market-data aggregator: it
// fetches every configured upstream on a fixed interval, merges and
// caches the fused snapshot, detects notable changes, and broadcasts
// them to connected WebSocket clients while serving the read API over
// plain HTTP. Wiring order follows the teacher's main.go: config,
// logger, metrics, storage, then the upstream goroutines, then the HTTP
// server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/broadcast"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/changedetect"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/config"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/logging"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/obsmetrics"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/ratelimit"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/readapi"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/retry"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/scheduler"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/snapshotstore"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/transport"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New("logs", cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	metrics := obsmetrics.New()

	store, err := snapshotstore.Open(cfg.CacheURL, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("failed to open snapshot store: %v", err)
	}
	defer store.Close()

	adapters := buildAdapters(cfg)
	readAPI := readapi.New(store)
	broadcaster := broadcast.New()

	sched := scheduler.New(adapters, store, cfg.UpdateInterval, cfg.MaxTokens, logger, metrics, func(prev, current models.Snapshot) {
		events := changedetect.Detect(prev, current, time.Now())
		for _, kind := range eventKindsEmitted(events) {
			metrics.EventsEmitted.WithLabelValues(string(kind)).Inc()
		}
		broadcaster.Broadcast(events)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var schedulerDone sync.WaitGroup
	schedulerDone.Add(1)
	go func() {
		defer schedulerDone.Done()
		sched.Run(ctx)
	}()

	checkers := map[string]transport.ComponentChecker{
		"snapshot_store": func() error { return store.Ping() },
	}

	server := transport.NewServer(":"+strconv.Itoa(cfg.ListenPort), broadcaster, readAPI, checkers, logger)

	go func() {
		if err := server.ListenAndServe(); err != nil {
			logger.WithError(err, "http server stopped")
		}
	}()

	logger.Infow("aggregator started", "listen_port", cfg.ListenPort, "update_interval", cfg.UpdateInterval)

	waitForShutdownSignal()

	// Shutdown order per spec.md §5: cancel the next tick, wait for any
	// in-flight tick to finish (so nothing writes to store after it's
	// closed), stop accepting new HTTP/WS connections, close existing
	// subscribers, then close the store.
	logger.Infow("shutdown signal received, draining")
	cancel()
	schedulerDone.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err, "http server shutdown error")
	}

	broadcaster.CloseAll()
}

// buildAdapters constructs one Adapter per configured upstream. Only
// the two known tags have a concrete adapter implementation; any other
// tag from an extra CONFIG_FILE entry is skipped with a warning instead
// of failing startup, since the remaining upstreams can still run.
func buildAdapters(cfg *config.Config) []upstream.Adapter {
	rules := make(map[string]ratelimit.Rule, len(cfg.Upstreams))
	for _, u := range cfg.Upstreams {
		rules[u.Tag] = ratelimit.Rule{Points: u.RatePoints, Duration: u.RateWindow}
	}
	limiter := ratelimit.New(rules)

	adapters := make([]upstream.Adapter, 0, len(cfg.Upstreams))
	for _, u := range cfg.Upstreams {
		retryCfg := retry.Config{MaxAttempts: u.MaxAttempts, BaseDelay: u.BaseDelay}
		switch u.Tag {
		case upstream.DexTag:
			adapters = append(adapters, upstream.NewDexAdapter(u.BaseURL, "solana", limiter, retryCfg, cfg.BatchSize))
		case upstream.MarketTag:
			adapters = append(adapters, upstream.NewMarketAdapter(u.BaseURL, limiter, retryCfg, cfg.BatchSize))
		default:
			log.Printf("skipping unknown upstream tag %q from configuration", u.Tag)
		}
	}
	return adapters
}

func eventKindsEmitted(events []models.Event) []models.EventKind {
	kinds := make([]models.EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

func waitForShutdownSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
