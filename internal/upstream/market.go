package upstream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/ratelimit"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/retry"
)

// MarketTag identifies the market-data provider source.
const MarketTag = "market"

// marketPlatform is the chain tag passed to the market-data provider's
// ?platform= query param, and the key used to resolve an on-chain
// address from each coin's platforms map.
const marketPlatform = "solana"

// MarketAdapter fetches listing data from the market-data provider and
// maps it to canonical Tokens. It fills liquidity, transaction_count and
// 1h/6h change with zero — those fields belong to the DEX source.
type MarketAdapter struct {
	f *fetcher
}

// NewMarketAdapter builds a MarketAdapter against baseURL, issuing
// GET {baseURL}/coins/markets?vs_currency=usd&platform={platform}.
func NewMarketAdapter(baseURL string, limiter *ratelimit.Limiter, retryCfg retry.Config, batchSize int) *MarketAdapter {
	url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&platform=%s", strings.TrimRight(baseURL, "/"), marketPlatform)
	return &MarketAdapter{f: newFetcher(MarketTag, url, limiter, retryCfg, batchSize)}
}

func (a *MarketAdapter) Tag() string { return MarketTag }

func (a *MarketAdapter) Fetch(ctx context.Context) ([]models.Token, error) {
	body, err := a.f.get(ctx)
	if err != nil {
		return nil, err
	}

	var coins []marketCoin
	if err := decode(body, &coins); err != nil {
		return nil, fmt.Errorf("market: decoding response: %w", err)
	}

	tokens := make([]models.Token, 0, len(coins))
	for _, c := range coins {
		tokens = append(tokens, mapMarketCoin(c))
	}

	return capAndTag(tokens, a.f.batchSize, MarketTag), nil
}

func mapMarketCoin(c marketCoin) models.Token {
	t := models.Token{
		Address:               strings.ToLower(c.address(marketPlatform)),
		Name:                  c.Name,
		Ticker:                strings.ToUpper(c.Symbol),
		Price:                 c.CurrentPrice,
		Change24h:             c.PriceChange24h,
		ChangePct24h:          c.PriceChangePercentage24h,
		MarketCap:             c.MarketCap,
		MarketCapChange24h:    c.MarketCapChange24h,
		MarketCapChangePct24h: c.MarketCapChangePercentage24h,
		Volume24h:             c.TotalVolume,
		High24h:               c.High24h,
		Low24h:                c.Low24h,
		CirculatingSupply:     c.CirculatingSupply,
		TotalSupply:           c.TotalSupply,
		ATH:                   c.ATH,
		ATHChangePct:          c.ATHChangePercentage,
		ATL:                   c.ATL,
		ATLChangePct:          c.ATLChangePercentage,
		Image:                 c.Image,
		Rank:                  c.MarketCapRank,
		LastUpdated:           time.Now(),
	}

	if c.ROI != nil {
		t.ROI = &models.ROI{Times: c.ROI.Times, Currency: c.ROI.Currency, Percentage: c.ROI.Percentage}
	}
	if ts, err := time.Parse(time.RFC3339, c.ATHDate); err == nil {
		t.ATHDate = &ts
	}
	if ts, err := time.Parse(time.RFC3339, c.ATLDate); err == nil {
		t.ATLDate = &ts
	}

	return t
}
