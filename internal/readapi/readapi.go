// Package readapi implements the filter/sort/paginate contract consumed
// by the thin HTTP transport layer: get_all and get_by_address over the
// Snapshot Store, per spec.md §6. Routing, query-param parsing and wire
// serialization live in internal/transport; this package only knows
// about Filters and Tokens.
package readapi

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/snapshotstore"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// SortBy enumerates the fields get_all can sort on.
type SortBy string

const (
	SortVolume          SortBy = "volume"
	SortPriceChange     SortBy = "price_change"
	SortMarketCap       SortBy = "market_cap"
	SortLiquidity       SortBy = "liquidity"
	SortTransactionCount SortBy = "transaction_count"
)

// SortOrder enumerates ascending/descending.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// TimePeriod is the change-field window a request filters on. Only 1h
// and 24h actually exclude records missing that field; 7d is a
// documented no-op (Open Question #3).
type TimePeriod string

const (
	Period1h  TimePeriod = "1h"
	Period24h TimePeriod = "24h"
	Period7d  TimePeriod = "7d"
)

// Filters is the parsed, validated get_all request.
type Filters struct {
	MinLiquidity float64
	MinVolume    float64
	Protocol     string
	TimePeriod   TimePeriod
	SortBy       SortBy
	SortOrder    SortOrder
	Limit        int
	Cursor       int
}

// Normalize fills in documented defaults and clamps Limit to maxLimit.
func (f Filters) Normalize() Filters {
	if f.SortBy == "" {
		f.SortBy = SortVolume
	}
	if f.SortOrder == "" {
		f.SortOrder = OrderDesc
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Cursor < 0 {
		f.Cursor = 0
	}
	return f
}

// Page is the get_all response shape.
type Page struct {
	Tokens     []models.Token `json:"tokens"`
	NextCursor *int           `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
	TotalCount int            `json:"total_count"`
	Timestamp  time.Time      `json:"timestamp"`
}

// API reads from a Store to answer get_all/get_by_address.
type API struct {
	store *snapshotstore.Store
}

// New builds an API over store.
func New(store *snapshotstore.Store) *API {
	return &API{store: store}
}

// ErrCacheUnavailable is returned when the backing snapshot cannot be
// read at all (maps to the Read API's documented 500).
var ErrCacheUnavailable = cacheUnavailable{}

type cacheUnavailable struct{}

func (cacheUnavailable) Error() string { return "snapshot cache unavailable" }

// ErrNotFound is returned by GetByAddress when addr has no record in
// either the per-token cache or the full snapshot (maps to 404).
var ErrNotFound = notFound{}

type notFound struct{}

func (notFound) Error() string { return "token not found" }

// GetAll applies filters to the current snapshot and returns one page.
func (a *API) GetAll(ctx context.Context, filters Filters) (Page, error) {
	filters = filters.Normalize()

	snap, ok := a.store.Get(ctx)
	if !ok {
		return Page{}, ErrCacheUnavailable
	}

	filtered := applyFilters(snap.Tokens, filters)
	sortTokens(filtered, filters.SortBy, filters.SortOrder)

	totalCount := len(filtered)

	start := filters.Cursor
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + filters.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	page := filtered[start:end]

	hasMore := end < len(filtered)
	var nextCursor *int
	if hasMore {
		n := end
		nextCursor = &n
	}

	return Page{
		Tokens:     page,
		NextCursor: nextCursor,
		HasMore:    hasMore,
		TotalCount: totalCount,
		Timestamp:  time.Now(),
	}, nil
}

// GetByAddress looks up addr case-insensitively, preferring the
// per-token cache and falling back to a scan of the full snapshot.
func (a *API) GetByAddress(ctx context.Context, addr string) (models.Token, error) {
	addr = strings.ToLower(addr)
	if addr == "" {
		return models.Token{}, ErrNotFound
	}

	if tok, ok := a.store.GetToken(ctx, addr); ok {
		return tok, nil
	}

	snap, ok := a.store.Get(ctx)
	if !ok {
		return models.Token{}, ErrCacheUnavailable
	}
	if tok, ok := snap.ByAddress()[addr]; ok {
		return tok, nil
	}

	return models.Token{}, ErrNotFound
}

func applyFilters(tokens []models.Token, f Filters) []models.Token {
	out := make([]models.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Liquidity < f.MinLiquidity {
			continue
		}
		if t.Volume24h < f.MinVolume {
			continue
		}
		if f.Protocol != "" && !strings.Contains(strings.ToLower(t.Dex), strings.ToLower(f.Protocol)) {
			continue
		}
		if !hasTimePeriodField(t, f.TimePeriod) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// hasTimePeriodField reports whether t carries the change field the
// requested time_period requires. 7d is a no-op (Open Question #3): no
// change_7d field exists in the data model, so it never excludes a
// record.
func hasTimePeriodField(t models.Token, period TimePeriod) bool {
	switch period {
	case Period1h:
		return t.Change1h != 0
	case Period24h:
		return t.Change24h != 0
	default:
		return true
	}
}

func sortTokens(tokens []models.Token, by SortBy, order SortOrder) {
	less := func(i, j int) bool {
		vi, vj := sortValue(tokens[i], by), sortValue(tokens[j], by)
		if order == OrderAsc {
			return vi < vj
		}
		return vi > vj
	}
	sort.SliceStable(tokens, less)
}

func sortValue(t models.Token, by SortBy) float64 {
	switch by {
	case SortPriceChange:
		return t.ChangePct24h
	case SortMarketCap:
		return t.MarketCap
	case SortLiquidity:
		return t.Liquidity
	case SortTransactionCount:
		return float64(t.TransactionCount24h)
	default:
		return t.Volume24h
	}
}
