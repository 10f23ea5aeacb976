package readapi

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/snapshotstore"
)

func newTestAPI(t *testing.T, tokens []models.Token) *API {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	store, err := snapshotstore.Open("sqlite://"+dbPath, time.Minute)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	snap := models.Snapshot{Tokens: tokens, CreatedAt: time.Now()}
	if err := store.Put(context.Background(), snap); err != nil {
		t.Fatalf("Put: %v", err)
	}
	return New(store)
}

func seedTokens() []models.Token {
	return []models.Token{
		{Address: "0xa", Name: "A", Volume24h: 1000, Liquidity: 500000, Dex: "raydium"},
		{Address: "0xb", Name: "B", Volume24h: 2000, Liquidity: 50000, Dex: "orca"},
		{Address: "0xc", Name: "C", Volume24h: 500, Liquidity: 200000, Dex: "raydium"},
	}
}

// S1: cache hit path, default sort.
func TestGetAll_DefaultSortByVolumeDescending(t *testing.T) {
	api := newTestAPI(t, seedTokens())

	page, err := api.GetAll(context.Background(), Filters{})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if page.TotalCount != 3 {
		t.Fatalf("expected total_count 3, got %d", page.TotalCount)
	}
	if page.HasMore {
		t.Error("expected has_more false")
	}
	wantOrder := []string{"0xb", "0xa", "0xc"}
	for i, addr := range wantOrder {
		if page.Tokens[i].Address != addr {
			t.Fatalf("position %d: expected %s, got %s", i, addr, page.Tokens[i].Address)
		}
	}
}

// S2: min_liquidity filter.
func TestGetAll_MinLiquidityFilter(t *testing.T) {
	api := newTestAPI(t, seedTokens())

	page, err := api.GetAll(context.Background(), Filters{MinLiquidity: 100000})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(page.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(page.Tokens))
	}
	got := map[string]bool{}
	for _, tok := range page.Tokens {
		got[tok.Address] = true
	}
	if !got["0xa"] || !got["0xc"] {
		t.Errorf("expected A and C to pass the liquidity filter, got %v", page.Tokens)
	}
}

func TestGetAll_ProtocolFilterIsCaseInsensitiveSubstring(t *testing.T) {
	api := newTestAPI(t, seedTokens())

	page, err := api.GetAll(context.Background(), Filters{Protocol: "RAY"})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(page.Tokens) != 2 {
		t.Fatalf("expected 2 raydium tokens, got %d", len(page.Tokens))
	}
}

func TestGetAll_TimePeriod7dIsNoOp(t *testing.T) {
	tokens := seedTokens()
	api := newTestAPI(t, tokens)

	page, err := api.GetAll(context.Background(), Filters{TimePeriod: Period7d})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(page.Tokens) != len(tokens) {
		t.Errorf("expected 7d time_period to exclude nothing, got %d of %d", len(page.Tokens), len(tokens))
	}
}

func TestGetAll_TimePeriod24hExcludesMissingChangeField(t *testing.T) {
	tokens := []models.Token{
		{Address: "0xa", Volume24h: 10, Change24h: 5},
		{Address: "0xb", Volume24h: 20, Change24h: 0},
	}
	api := newTestAPI(t, tokens)

	page, err := api.GetAll(context.Background(), Filters{TimePeriod: Period24h})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(page.Tokens) != 1 || page.Tokens[0].Address != "0xa" {
		t.Fatalf("expected only 0xa to survive the 24h filter, got %v", page.Tokens)
	}
}

// Property #5: sequential filters compose regardless of which is applied
// conceptually "first" — min_liquidity and protocol together should
// produce the same set as either filter alone intersected manually.
func TestGetAll_FilterComposability(t *testing.T) {
	api := newTestAPI(t, seedTokens())

	combined, err := api.GetAll(context.Background(), Filters{MinLiquidity: 100000, Protocol: "raydium"})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}

	liquidityOnly, err := api.GetAll(context.Background(), Filters{MinLiquidity: 100000})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	protocolOnly, err := api.GetAll(context.Background(), Filters{Protocol: "raydium"})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}

	want := map[string]bool{}
	liqSet := map[string]bool{}
	for _, tok := range liquidityOnly.Tokens {
		liqSet[tok.Address] = true
	}
	for _, tok := range protocolOnly.Tokens {
		if liqSet[tok.Address] {
			want[tok.Address] = true
		}
	}

	if len(combined.Tokens) != len(want) {
		t.Fatalf("expected combined filter to match manual intersection size %d, got %d", len(want), len(combined.Tokens))
	}
	for _, tok := range combined.Tokens {
		if !want[tok.Address] {
			t.Errorf("unexpected token %s in combined filter result", tok.Address)
		}
	}
}

// Property #6: paging through limit=1 from cursor=0 until has_more=false
// reproduces the full sorted list in order.
func TestGetAll_PaginationRoundTrip(t *testing.T) {
	api := newTestAPI(t, seedTokens())

	full, err := api.GetAll(context.Background(), Filters{})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}

	var reassembled []models.Token
	cursor := 0
	for {
		page, err := api.GetAll(context.Background(), Filters{Limit: 1, Cursor: cursor})
		if err != nil {
			t.Fatalf("GetAll: %v", err)
		}
		reassembled = append(reassembled, page.Tokens...)
		if !page.HasMore {
			break
		}
		cursor = *page.NextCursor
	}

	if len(reassembled) != len(full.Tokens) {
		t.Fatalf("expected %d reassembled tokens, got %d", len(full.Tokens), len(reassembled))
	}
	for i := range full.Tokens {
		if reassembled[i].Address != full.Tokens[i].Address {
			t.Fatalf("position %d: expected %s, got %s", i, full.Tokens[i].Address, reassembled[i].Address)
		}
	}
}

func TestGetAll_LimitDefaultsAndCaps(t *testing.T) {
	api := newTestAPI(t, seedTokens())

	page, err := api.GetAll(context.Background(), Filters{Limit: 1000})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(page.Tokens) != 3 {
		t.Fatalf("expected the limit cap not to exceed the available tokens, got %d", len(page.Tokens))
	}
	if got := (Filters{}).Normalize().Limit; got != defaultLimit {
		t.Errorf("expected default limit %d, got %d", defaultLimit, got)
	}
	if got := (Filters{Limit: 1000}).Normalize().Limit; got != maxLimit {
		t.Errorf("expected limit 1000 to be capped at %d, got %d", maxLimit, got)
	}
}

func TestGetByAddress_CacheHit(t *testing.T) {
	api := newTestAPI(t, seedTokens())

	tok, err := api.GetByAddress(context.Background(), "0XA")
	if err != nil {
		t.Fatalf("GetByAddress: %v", err)
	}
	if tok.Address != "0xa" {
		t.Errorf("expected 0xa, got %s", tok.Address)
	}
}

func TestGetByAddress_NotFound(t *testing.T) {
	api := newTestAPI(t, seedTokens())

	if _, err := api.GetByAddress(context.Background(), "0xdoesnotexist"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByAddress_FallsBackToFullSnapshotBeyondPerTokenCache(t *testing.T) {
	const beyondPerTokenCacheLimit = 105
	tokens := make([]models.Token, beyondPerTokenCacheLimit)
	for i := range tokens {
		tokens[i] = models.Token{Address: "addr" + string(rune('a'+i%26)) + string(rune(i)), Volume24h: float64(len(tokens) - i)}
	}
	api := newTestAPI(t, tokens)

	last := tokens[len(tokens)-1]
	tok, err := api.GetByAddress(context.Background(), last.Address)
	if err != nil {
		t.Fatalf("GetByAddress: %v", err)
	}
	if tok.Address != last.Address {
		t.Errorf("expected %s, got %s", last.Address, tok.Address)
	}
}
