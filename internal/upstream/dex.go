package upstream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/ratelimit"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/retry"
)

// DexTag identifies the DEX-pair indexer source.
const DexTag = "dex"

// DexAdapter fetches listing pairs from the DEX indexer and maps them to
// canonical Tokens. It fills supply, ath/atl and change_pct_24h with
// zero values — those fields belong to the market-data source.
type DexAdapter struct {
	f *fetcher
}

// NewDexAdapter builds a DexAdapter against baseURL, issuing
// GET {baseURL}/search?q={query}.
func NewDexAdapter(baseURL, query string, limiter *ratelimit.Limiter, retryCfg retry.Config, batchSize int) *DexAdapter {
	url := fmt.Sprintf("%s/search?q=%s", strings.TrimRight(baseURL, "/"), query)
	return &DexAdapter{f: newFetcher(DexTag, url, limiter, retryCfg, batchSize)}
}

func (a *DexAdapter) Tag() string { return DexTag }

func (a *DexAdapter) Fetch(ctx context.Context) ([]models.Token, error) {
	body, err := a.f.get(ctx)
	if err != nil {
		return nil, err
	}

	var resp dexSearchResponse
	if err := decode(body, &resp); err != nil {
		return nil, fmt.Errorf("dex: decoding response: %w", err)
	}

	tokens := make([]models.Token, 0, len(resp.Pairs))
	for _, p := range resp.Pairs {
		tokens = append(tokens, mapDexPair(p))
	}

	return capAndTag(tokens, a.f.batchSize, DexTag), nil
}

func mapDexPair(p dexPair) models.Token {
	// priceUsd arrives as a decimal string; it is parsed with
	// decimal.NewFromString and converted once to float64 for the Token.
	// An unparseable string yields price 0, which validation then drops.
	priceDec, _ := decimal.NewFromString(p.PriceUsd)
	price, _ := priceDec.Float64()

	t := models.Token{
		Address:             strings.ToLower(p.BaseToken.Address),
		Name:                p.BaseToken.Name,
		Ticker:              p.BaseToken.Symbol,
		Price:               price,
		Change1h:            p.PriceChange.H1,
		Change6h:            p.PriceChange.H6,
		Change24h:           p.PriceChange.H24,
		MarketCap:           p.FDV,
		Volume24h:           p.Volume.H24,
		Liquidity:           p.Liquidity.USD,
		TransactionCount24h: p.Txns.H24.Buys + p.Txns.H24.Sells,
		Dex:                 p.DexID,
		DexURL:              p.URL,
		Image:               p.Info.ImageURL,
		LastUpdated:         time.Now(),
	}
	return t
}
