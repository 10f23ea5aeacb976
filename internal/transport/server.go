// Package transport is the thin HTTP/WebSocket surface over the core
// packages: it upgrades connections for broadcast, serves the read API
// over plain HTTP, and exposes health/metrics, the same way the
// teacher's main.go wired a single ServeMux behind RequestLogger. It
// owns no business logic of its own.
package transport

import (
	"net/http"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/broadcast"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/logging"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/obsmetrics"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/readapi"
)

// NewServer builds the *http.Server serving /ws, /tokens, /health and
// /metrics, wrapped in the Logger's request-logging middleware.
func NewServer(addr string, b *broadcast.Broadcaster, api *readapi.API, checkers map[string]ComponentChecker, log *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", WebSocketHandler(b, log))
	mux.HandleFunc("/tokens", ReadAPIHandler(api))
	mux.HandleFunc("/tokens/", ReadAPIHandler(api))
	mux.HandleFunc("/health", HealthHandler(checkers, func() int { return len(b.Subscriptions()) }))
	mux.Handle("/metrics", obsmetrics.Handler())

	return &http.Server{
		Addr:    addr,
		Handler: log.RequestLogger(mux),
	}
}
