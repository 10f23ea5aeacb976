// Package snapshotstore is the TTL-backed external cache the scheduler
// writes each tick's Snapshot to and the read API falls back to reading
// from between ticks. It is keyed storage, not a historical log: every
// Put replaces the prior snapshot wholesale (§4.5).
package snapshotstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/sony/gobreaker"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/aggerr"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
)

const snapshotKey = "tokens:all"

// perTokenCacheLimit bounds how many individual token:<address> keys are
// written per Put — resolves the Open Question of §9 by covering the
// top perTokenCacheLimit tokens in volume-descending order, which is
// exactly the head of an already-sorted Snapshot.
const perTokenCacheLimit = 100

// Store is a SQLite-backed key/value cache standing in for the
// unnamed external cache of §4.5: one row per key, each with its own
// expiry, read back with an expiry check rather than relying on the
// backing store's own TTL semantics.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	cb  *gobreaker.CircuitBreaker
}

// Open opens (creating if needed) the SQLite file behind cacheURL, a
// "sqlite://path" URL, and prepares the cache_entries table.
func Open(cacheURL string, ttl time.Duration) (*Store, error) {
	path := strings.TrimPrefix(cacheURL, "sqlite://")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &aggerr.CacheUnavailable{Op: "open", Cause: err}
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, &aggerr.CacheUnavailable{Op: "open", Cause: err}
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, &aggerr.CacheUnavailable{Op: "open", Cause: err}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "snapshotstore.put",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &Store{db: db, ttl: ttl, cb: cb}, nil
}

// Put writes the snapshot under the global key and, for the first
// perTokenCacheLimit tokens (already volume-sorted by the merger), a
// per-address key. A failing write trips the breaker; once open, Put
// fails fast with CacheUnavailable instead of hammering the database.
func (s *Store) Put(ctx context.Context, snap models.Snapshot) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.put(ctx, snap)
	})
	if err != nil {
		return &aggerr.CacheUnavailable{Op: "put", Cause: err}
	}
	return nil
}

func (s *Store) put(ctx context.Context, snap models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	expiresAt := time.Now().Add(s.ttl).UnixNano()

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := upsert(ctx, tx, snapshotKey, string(payload), expiresAt); err != nil {
		return err
	}

	limit := len(snap.Tokens)
	if limit > perTokenCacheLimit {
		limit = perTokenCacheLimit
	}
	for _, tok := range snap.Tokens[:limit] {
		tokPayload, err := json.Marshal(tok)
		if err != nil {
			return fmt.Errorf("marshal token %s: %w", tok.Address, err)
		}
		if err := upsert(ctx, tx, tokenKey(tok.Address), string(tokPayload), expiresAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Get returns the most recently written snapshot, or ok=false if the
// cache has never been written or the entry has expired.
func (s *Store) Get(ctx context.Context) (models.Snapshot, bool) {
	raw, ok := s.getRaw(ctx, snapshotKey)
	if !ok {
		return models.Snapshot{}, false
	}
	var snap models.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return models.Snapshot{}, false
	}
	return snap, true
}

// GetToken returns the cached record for address, or ok=false on a
// miss — either because address was outside the top perTokenCacheLimit
// tokens of the last Put, or because the entry expired.
func (s *Store) GetToken(ctx context.Context, address string) (models.Token, bool) {
	raw, ok := s.getRaw(ctx, tokenKey(address))
	if !ok {
		return models.Token{}, false
	}
	var tok models.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return models.Token{}, false
	}
	return tok, true
}

func (s *Store) getRaw(ctx context.Context, key string) (string, bool) {
	var value string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM cache_entries WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if err != nil {
		return "", false
	}
	if time.Now().UnixNano() > expiresAt {
		return "", false
	}
	return value, true
}

func upsert(ctx context.Context, tx *sql.Tx, key, value string, expiresAt int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, expires_at=excluded.expires_at`,
		key, value, expiresAt,
	)
	return err
}

func tokenKey(address string) string {
	return "token:" + address
}

// Ping reports whether the underlying database connection is reachable,
// for the health endpoint.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
