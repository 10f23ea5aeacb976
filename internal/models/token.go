// Package models holds the canonical data types shared across the
// aggregation pipeline, snapshot store, change detector and read API.
package models

import (
	"strings"
	"time"
)

// Token is the canonical, merged representation of a fungible-token
// listing. It is keyed by Address, case-insensitively canonicalized to
// lowercase by the normalizer before a Token ever reaches the merger.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Ticker  string `json:"ticker"`

	Price        float64 `json:"price"`
	Change1h     float64 `json:"change_1h"`
	Change6h     float64 `json:"change_6h"`
	Change24h    float64 `json:"change_24h"`
	ChangePct24h float64 `json:"change_pct_24h"`

	MarketCap              float64 `json:"market_cap"`
	MarketCapChange24h     float64 `json:"market_cap_change_24h"`
	MarketCapChangePct24h  float64 `json:"market_cap_change_pct_24h"`
	Volume24h              float64 `json:"volume_24h"`
	High24h                float64 `json:"high_24h"`
	Low24h                 float64 `json:"low_24h"`

	CirculatingSupply float64 `json:"circulating_supply"`
	TotalSupply       float64 `json:"total_supply"`

	Liquidity            float64 `json:"liquidity"`
	TransactionCount24h  int64   `json:"transaction_count_24h"`
	Dex                  string  `json:"dex"`
	DexURL               string  `json:"dex_url"`

	ATH           float64    `json:"ath"`
	ATHChangePct  float64    `json:"ath_change_pct"`
	ATHDate       *time.Time `json:"ath_date,omitempty"`
	ATL           float64    `json:"atl"`
	ATLChangePct  float64    `json:"atl_change_pct"`
	ATLDate       *time.Time `json:"atl_date,omitempty"`
	ROI           *ROI       `json:"roi,omitempty"`

	Sources     []string  `json:"sources"`
	Rank        *int      `json:"rank,omitempty"`
	Image       string    `json:"image,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
	IsMerged    bool      `json:"is_merged"`
}

// ROI mirrors the market-data provider's nullable return-on-investment
// object; it is carried through the merge untouched.
type ROI struct {
	Times      float64 `json:"times"`
	Currency   string  `json:"currency"`
	Percentage float64 `json:"percentage"`
}

// LowerAddress returns Address canonicalized to lowercase. Callers that
// already hold a normalized Token can use Address directly; this helper
// exists for adapters still carrying provider-cased addresses.
func (t Token) LowerAddress() string {
	return strings.ToLower(t.Address)
}

// HasSource reports whether tag is present in Sources.
func (t Token) HasSource(tag string) bool {
	for _, s := range t.Sources {
		if s == tag {
			return true
		}
	}
	return false
}
