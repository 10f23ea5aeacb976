// Package changedetect diffs two consecutive snapshots and classifies
// the per-token deltas into alert events per the threshold table of
// §4.7. It holds no state of its own — the scheduler supplies both the
// previous and current snapshot on every tick.
package changedetect

import (
	"math"
	"time"

	"github.com/Faisal-imtiyaz123/meme-coin-aggregrator/internal/models"
)

const (
	priceThreshold     = 0.05
	volumeMultiplier   = 2.0
	marketCapThreshold = 0.10
	liquidityThreshold = 0.20
)

// Detect compares current against previous and returns the events for
// one tick. When previous has no tokens (first tick), it returns only a
// batch_update carrying current.
func Detect(previous, current models.Snapshot, now time.Time) []models.Event {
	events := []models.Event{models.NewBatchUpdateEvent(current, now)}

	if len(previous.Tokens) == 0 {
		return events
	}

	prevByAddress := previous.ByAddress()
	for _, tok := range current.Tokens {
		prev, ok := prevByAddress[tok.Address]
		if !ok {
			// A token absent from the previous snapshot just appeared;
			// appearance itself is never an alert.
			continue
		}
		events = append(events, detectOne(prev, tok, now)...)
	}

	return events
}

func detectOne(prev, current models.Token, now time.Time) []models.Event {
	var events []models.Event

	if ev, ok := priceAlert(prev, current, now); ok {
		events = append(events, ev)
	}
	if ev, ok := volumeAlert(prev, current, now); ok {
		events = append(events, ev)
	}
	if ev, ok := marketCapAlert(prev, current, now); ok {
		events = append(events, ev)
	}
	if ev, ok := liquidityAlert(prev, current, now); ok {
		events = append(events, ev)
	}

	return events
}

// priceAlert fires when |Δprice|/prev_price exceeds priceThreshold.
// prev_price = 0 suppresses the alert rather than dividing by zero
// (Open Question #1).
func priceAlert(prev, current models.Token, now time.Time) (models.Event, bool) {
	if prev.Price <= 0 || current.Price <= 0 {
		return models.Event{}, false
	}
	pct := (current.Price - prev.Price) / prev.Price
	if math.Abs(pct) <= priceThreshold {
		return models.Event{}, false
	}
	return models.Event{
		Kind:      models.EventPriceAlert,
		Timestamp: now,
		PriceAlert: &models.PriceAlertPayload{
			Address:   current.Address,
			OldPrice:  prev.Price,
			NewPrice:  current.Price,
			PctChange: pct,
			Direction: direction(pct),
		},
	}, true
}

func volumeAlert(prev, current models.Token, now time.Time) (models.Event, bool) {
	if prev.Volume24h <= 0 || current.Volume24h <= 0 {
		return models.Event{}, false
	}
	if current.Volume24h <= volumeMultiplier*prev.Volume24h {
		return models.Event{}, false
	}
	return models.Event{
		Kind:      models.EventVolumeAlert,
		Timestamp: now,
		VolumeAlert: &models.VolumeAlertPayload{
			Address:   current.Address,
			Volume:    current.Volume24h,
			Price:     current.Price,
			MarketCap: current.MarketCap,
		},
	}, true
}

func marketCapAlert(prev, current models.Token, now time.Time) (models.Event, bool) {
	if prev.MarketCap <= 0 || current.MarketCap <= 0 {
		return models.Event{}, false
	}
	pct := (current.MarketCap - prev.MarketCap) / prev.MarketCap
	if math.Abs(pct) <= marketCapThreshold {
		return models.Event{}, false
	}
	return models.Event{
		Kind:      models.EventMarketCapAlert,
		Timestamp: now,
		MarketCapAlert: &models.MarketCapAlertPayload{
			Address:      current.Address,
			OldMarketCap: prev.MarketCap,
			NewMarketCap: current.MarketCap,
			PctChange:    pct,
			Rank:         current.Rank,
		},
	}, true
}

func liquidityAlert(prev, current models.Token, now time.Time) (models.Event, bool) {
	if prev.Liquidity <= 0 || current.Liquidity <= 0 {
		return models.Event{}, false
	}
	pct := (current.Liquidity - prev.Liquidity) / prev.Liquidity
	if math.Abs(pct) <= liquidityThreshold {
		return models.Event{}, false
	}
	return models.Event{
		Kind:      models.EventLiquidityAlert,
		Timestamp: now,
		LiquidityAlert: &models.LiquidityAlertPayload{
			Address:      current.Address,
			OldLiquidity: prev.Liquidity,
			NewLiquidity: current.Liquidity,
			PctChange:    pct,
			Dex:          current.Dex,
		},
	}, true
}

func direction(pct float64) models.Direction {
	if pct >= 0 {
		return models.DirectionUp
	}
	return models.DirectionDown
}
