package merge

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/upstream"
)

// Merge fuses per-source token lists into one canonical Snapshot per the
// field-precedence table (§4.4). Sources should already be normalized
// (see Normalize); Merge re-normalizes defensively.
func Merge(sourceLists [][]models.Token, now time.Time, maxTokens int) models.Snapshot {
	groups := make(map[string][]models.Token)
	order := make([]string, 0)

	for _, list := range sourceLists {
		for _, t := range Normalize(list) {
			if _, seen := groups[t.Address]; !seen {
				order = append(order, t.Address)
			}
			groups[t.Address] = append(groups[t.Address], t)
		}
	}

	fused := make([]models.Token, 0, len(order))
	for _, addr := range order {
		fused = append(fused, fuseGroup(groups[addr], now))
	}

	return models.NewSnapshot(fused, now, maxTokens)
}

// fuseGroup fuses every Token sharing one address into a single record.
// With one member it is a pass-through (is_merged=false). With two or
// more, fields are selected by declared precedence — equivalent to a
// left-fold over the group because the rule ("does a dex-tagged /
// market-tagged member exist in the group, and is its value non-zero")
// doesn't depend on fold order, which is what makes the merge
// commutative (testable property #3).
func fuseGroup(group []models.Token, now time.Time) models.Token {
	if len(group) == 1 {
		t := group[0]
		t.IsMerged = false
		return t
	}

	var dex, market *models.Token
	for i := range group {
		g := &group[i]
		if g.HasSource(upstream.DexTag) && dex == nil {
			dex = g
		}
		if g.HasSource(upstream.MarketTag) && market == nil {
			market = g
		}
	}

	result := models.Token{
		Address:     group[0].Address,
		LastUpdated: now,
		IsMerged:    true,
		Sources:     unionSources(group),
	}

	// DEX-preferred field group: address/name/ticker, price, volume,
	// liquidity, transaction count, dex/dex_url.
	result.Name = firstNonEmpty(strOf(dex, func(t models.Token) string { return t.Name }), strOf(market, func(t models.Token) string { return t.Name }))
	result.Ticker = firstNonEmpty(strOf(dex, func(t models.Token) string { return t.Ticker }), strOf(market, func(t models.Token) string { return t.Ticker }))
	result.Price = firstNonZero(numOf(dex, func(t models.Token) float64 { return t.Price }), numOf(market, func(t models.Token) float64 { return t.Price }))
	result.Volume24h = firstNonZero(numOf(dex, func(t models.Token) float64 { return t.Volume24h }), numOf(market, func(t models.Token) float64 { return t.Volume24h }))
	result.Liquidity = firstNonZero(numOf(dex, func(t models.Token) float64 { return t.Liquidity }), numOf(market, func(t models.Token) float64 { return t.Liquidity }))
	result.TransactionCount24h = firstNonZeroInt(intOf(dex, func(t models.Token) int64 { return t.TransactionCount24h }), intOf(market, func(t models.Token) int64 { return t.TransactionCount24h }))
	result.Dex = firstNonEmpty(strOf(dex, func(t models.Token) string { return t.Dex }), strOf(market, func(t models.Token) string { return t.Dex }))
	result.DexURL = firstNonEmpty(strOf(dex, func(t models.Token) string { return t.DexURL }), strOf(market, func(t models.Token) string { return t.DexURL }))
	result.Change1h = firstNonZero(numOf(dex, func(t models.Token) float64 { return t.Change1h }), numOf(market, func(t models.Token) float64 { return t.Change1h }))
	result.Change6h = firstNonZero(numOf(dex, func(t models.Token) float64 { return t.Change6h }), numOf(market, func(t models.Token) float64 { return t.Change6h }))
	result.Change24h = firstNonZero(numOf(dex, func(t models.Token) float64 { return t.Change24h }), numOf(market, func(t models.Token) float64 { return t.Change24h }))

	// Market-preferred field group: change_pct_24h, market_cap*,
	// circulating/total supply, high/low_24h, ath/atl*, roi, rank, image.
	result.ChangePct24h = firstNonZero(numOf(market, func(t models.Token) float64 { return t.ChangePct24h }), numOf(dex, func(t models.Token) float64 { return t.ChangePct24h }))
	result.MarketCap = firstNonZero(numOf(market, func(t models.Token) float64 { return t.MarketCap }), numOf(dex, func(t models.Token) float64 { return t.MarketCap }))
	result.MarketCapChange24h = firstNonZero(numOf(market, func(t models.Token) float64 { return t.MarketCapChange24h }), numOf(dex, func(t models.Token) float64 { return t.MarketCapChange24h }))
	result.MarketCapChangePct24h = firstNonZero(numOf(market, func(t models.Token) float64 { return t.MarketCapChangePct24h }), numOf(dex, func(t models.Token) float64 { return t.MarketCapChangePct24h }))
	result.CirculatingSupply = firstNonZero(numOf(market, func(t models.Token) float64 { return t.CirculatingSupply }), numOf(dex, func(t models.Token) float64 { return t.CirculatingSupply }))
	result.TotalSupply = firstNonZero(numOf(market, func(t models.Token) float64 { return t.TotalSupply }), numOf(dex, func(t models.Token) float64 { return t.TotalSupply }))
	result.High24h = firstNonZero(numOf(market, func(t models.Token) float64 { return t.High24h }), numOf(dex, func(t models.Token) float64 { return t.High24h }))
	result.Low24h = firstNonZero(numOf(market, func(t models.Token) float64 { return t.Low24h }), numOf(dex, func(t models.Token) float64 { return t.Low24h }))
	result.ATH = firstNonZero(numOf(market, func(t models.Token) float64 { return t.ATH }), numOf(dex, func(t models.Token) float64 { return t.ATH }))
	result.ATHChangePct = firstNonZero(numOf(market, func(t models.Token) float64 { return t.ATHChangePct }), numOf(dex, func(t models.Token) float64 { return t.ATHChangePct }))
	result.ATL = firstNonZero(numOf(market, func(t models.Token) float64 { return t.ATL }), numOf(dex, func(t models.Token) float64 { return t.ATL }))
	result.ATLChangePct = firstNonZero(numOf(market, func(t models.Token) float64 { return t.ATLChangePct }), numOf(dex, func(t models.Token) float64 { return t.ATLChangePct }))
	result.Image = firstNonEmpty(strOf(market, func(t models.Token) string { return t.Image }), strOf(dex, func(t models.Token) string { return t.Image }))

	if market != nil && market.ATHDate != nil {
		result.ATHDate = market.ATHDate
	} else if dex != nil {
		result.ATHDate = dex.ATHDate
	}
	if market != nil && market.ATLDate != nil {
		result.ATLDate = market.ATLDate
	} else if dex != nil {
		result.ATLDate = dex.ATLDate
	}
	if market != nil && market.ROI != nil {
		result.ROI = market.ROI
	} else if dex != nil {
		result.ROI = dex.ROI
	}
	if market != nil && market.Rank != nil {
		result.Rank = market.Rank
	} else if dex != nil {
		result.Rank = dex.Rank
	}

	return result
}

func unionSources(group []models.Token) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range group {
		for _, s := range t.Sources {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}

func strOf(t *models.Token, f func(models.Token) string) string {
	if t == nil {
		return ""
	}
	return f(*t)
}

func numOf(t *models.Token, f func(models.Token) float64) float64 {
	if t == nil {
		return 0
	}
	return f(*t)
}

func intOf(t *models.Token, f func(models.Token) int64) int64 {
	if t == nil {
		return 0
	}
	return f(*t)
}

func firstNonEmpty(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}

func firstNonZero(preferred, fallback float64) float64 {
	if !decimal.NewFromFloat(preferred).IsZero() {
		return preferred
	}
	return fallback
}

func firstNonZeroInt(preferred, fallback int64) int64 {
	if preferred != 0 {
		return preferred
	}
	return fallback
}
