// Package upstream implements the per-provider adapters: rate-limited,
// retried HTTP GETs mapped into canonical models.Token records. The HTTP
// call shape follows the teacher's angel/auth.go (stdlib net/http,
// explicit headers, JSON decode) — no example repo in the retrieval pack
// reaches for an HTTP client library for plain GET+JSON, so stdlib here
// follows the pack's own idiom rather than substituting for one.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/aggerr"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/ratelimit"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/retry"
)

const (
	userAgent      = "meme-coin-aggregator/1.0 (+https://github.com/Faisal-imtiyaz123/meme-coin-aggregrator)"
	requestTimeout = 10 * time.Second
)

// Adapter fetches and normalizes one upstream's listing of tokens.
type Adapter interface {
	Tag() string
	Fetch(ctx context.Context) ([]models.Token, error)
}

// Fetcher does the provider-agnostic plumbing shared by every adapter:
// rate limit, retry, HTTP GET, hand the decoded body to decode.
type fetcher struct {
	tag         string
	url         string
	client      *http.Client
	limiter     *ratelimit.Limiter
	retryConfig retry.Config
	batchSize   int
}

func newFetcher(tag, url string, limiter *ratelimit.Limiter, retryCfg retry.Config, batchSize int) *fetcher {
	return &fetcher{
		tag:         tag,
		url:         url,
		client:      &http.Client{Timeout: requestTimeout},
		limiter:     limiter,
		retryConfig: retryCfg,
		batchSize:   batchSize,
	}
}

// get performs the rate-limited, retried GET and returns the raw body.
func (f *fetcher) get(ctx context.Context) ([]byte, error) {
	var body []byte

	err := retry.Do(ctx, f.retryConfig, func() error {
		if err := f.limiter.Acquire(f.tag); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
		if err != nil {
			return &aggerr.ConfigError{Detail: fmt.Sprintf("building request for %s: %v", f.tag, err)}
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return &aggerr.Cancelled{Cause: err}
			}
			return fmt.Errorf("%s transport error: %w", f.tag, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("%s upstream returned %d", f.tag, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return &aggerr.ConfigError{Detail: fmt.Sprintf("%s upstream returned %d", f.tag, resp.StatusCode)}
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%s reading response body: %w", f.tag, err)
		}
		body = data
		return nil
	})

	return body, err
}

// validate keeps records with a non-empty address and a positive price,
// per the normalizer's admissibility rule in §4.3.
func validate(t models.Token) bool {
	return t.Address != "" && t.Price > 0
}

// capAndTag trims tokens to batchSize and stamps each with tag as its
// sole source, per §4.3.
func capAndTag(tokens []models.Token, batchSize int, tag string) []models.Token {
	out := make([]models.Token, 0, len(tokens))
	for _, t := range tokens {
		if !validate(t) {
			continue
		}
		t.Sources = []string{tag}
		out = append(out, t)
		if len(out) >= batchSize {
			break
		}
	}
	return out
}

func decode(body []byte, v interface{}) error {
	return json.Unmarshal(body, v)
}
