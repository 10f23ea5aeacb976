package upstream

// dexSearchResponse is the DEX indexer's /search?q=... response shape.
type dexSearchResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type dexPair struct {
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUsd     string `json:"priceUsd"`
	PriceChange struct {
		H1  float64 `json:"h1"`
		H6  float64 `json:"h6"`
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	FDV    float64 `json:"fdv"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Txns struct {
		H24 struct {
			Buys  int64 `json:"buys"`
			Sells int64 `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	DexID string `json:"dexId"`
	URL   string `json:"url"`
	Info  struct {
		ImageURL string `json:"imageUrl"`
	} `json:"info"`
	PairCreatedAt int64 `json:"pairCreatedAt"`
}

// marketCoin is one entry of the market-data provider's
// /coins/markets response.
type marketCoin struct {
	ID                           string   `json:"id"`
	Name                         string   `json:"name"`
	Symbol                       string   `json:"symbol"`
	CurrentPrice                 float64  `json:"current_price"`
	PriceChange24h               float64  `json:"price_change_24h"`
	PriceChangePercentage24h     float64  `json:"price_change_percentage_24h"`
	MarketCap                    float64  `json:"market_cap"`
	MarketCapChange24h           float64  `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h float64  `json:"market_cap_change_percentage_24h"`
	TotalVolume                  float64  `json:"total_volume"`
	CirculatingSupply            float64  `json:"circulating_supply"`
	TotalSupply                  float64  `json:"total_supply"`
	High24h                      float64  `json:"high_24h"`
	Low24h                       float64  `json:"low_24h"`
	ATH                          float64  `json:"ath"`
	ATHChangePercentage          float64  `json:"ath_change_percentage"`
	ATHDate                      string   `json:"ath_date"`
	ATL                          float64  `json:"atl"`
	ATLChangePercentage          float64  `json:"atl_change_percentage"`
	ATLDate                      string   `json:"atl_date"`
	ROI                          *coinROI          `json:"roi"`
	Image                        string            `json:"image"`
	MarketCapRank                *int              `json:"market_cap_rank"`
	LastUpdated                  string            `json:"last_updated"`
	Platforms                    map[string]string `json:"platforms"`
}

// address returns the on-chain address for the requested platform, so
// the market-data source can be merged with the DEX source by address
// even though its own primary key (id) is a provider-assigned slug.
func (c marketCoin) address(platform string) string {
	if c.Platforms == nil {
		return ""
	}
	return c.Platforms[platform]
}

type coinROI struct {
	Times      float64 `json:"times"`
	Currency   string  `json:"currency"`
	Percentage float64 `json:"percentage"`
}
