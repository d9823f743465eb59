package engine

import (
	"fmt"
	"math"

	"nifty-options-engine/internal/store"
	"nifty-options-engine/internal/types"
)

// execSimulator computes strike selection, the simplified deterministic
// option price, slippage-adjusted fills, position sizing and realized P&L.
type execSimulator struct {
	strikeInterval  float64
	lotSize         int
	slippage        float64
	volatility      float64
	timeValueFactor float64
	capital         float64
	riskPerTrade    float64

	// strikeAvailable reports whether a strike is listed; nil means every
	// strike on the interval grid is.
	strikeAvailable func(strike float64) bool
}

func newExecSimulator(cfg *store.Config) *execSimulator {
	return &execSimulator{
		strikeInterval:  cfg.Options.StrikeInterval,
		lotSize:         cfg.Options.LotSize,
		slippage:        cfg.Options.Slippage,
		volatility:      cfg.Options.Volatility,
		timeValueFactor: cfg.Options.TimeValueFactor,
		capital:         cfg.Account.Capital,
		riskPerTrade:    cfg.Account.RiskPerTrade,
	}
}

// selectStrike rounds the spot to the nearest strike interval, half up. When
// the rounded strike is unlisted it falls back one interval in the direction
// favorable to premium availability: up for calls, down for puts.
func (es *execSimulator) selectStrike(spot float64, opt types.OptionType) float64 {
	strike := math.Floor(spot/es.strikeInterval+0.5) * es.strikeInterval
	if es.strikeAvailable != nil && !es.strikeAvailable(strike) {
		if opt == types.OptionCall {
			strike += es.strikeInterval
		} else {
			strike -= es.strikeInterval
		}
	}
	return strike
}

// premium is the raw model price before slippage: intrinsic value plus a
// linear time-value term scaled by daysToExpiry/7.
func (es *execSimulator) premium(spot, strike float64, opt types.OptionType, daysToExpiry float64) (float64, error) {
	if spot <= 0 || strike <= 0 {
		return 0, fmt.Errorf("cannot price option: spot=%.2f strike=%.2f", spot, strike)
	}
	if daysToExpiry < 0 {
		return 0, fmt.Errorf("cannot price option: days_to_expiry=%.2f", daysToExpiry)
	}
	var intrinsic float64
	if opt == types.OptionCall {
		intrinsic = math.Max(0, spot-strike)
	} else {
		intrinsic = math.Max(0, strike-spot)
	}
	timeValue := spot * es.volatility * (daysToExpiry / 7.0) * es.timeValueFactor
	return intrinsic + timeValue, nil
}

// entryPrice is the fill price when buying: model premium marked up by
// slippage, rounded to 2 decimals.
func (es *execSimulator) entryPrice(spot, strike float64, opt types.OptionType, daysToExpiry float64) (float64, error) {
	p, err := es.premium(spot, strike, opt, daysToExpiry)
	if err != nil {
		return 0, err
	}
	return round2(p * (1 + es.slippage)), nil
}

// exitPrice is the fill price when selling: model premium marked down by
// slippage, rounded to 2 decimals.
func (es *execSimulator) exitPrice(spot, strike float64, opt types.OptionType, daysToExpiry float64) (float64, error) {
	p, err := es.premium(spot, strike, opt, daysToExpiry)
	if err != nil {
		return 0, err
	}
	return round2(p * (1 - es.slippage)), nil
}

func (es *execSimulator) riskAmount() float64 {
	return es.capital * es.riskPerTrade
}

// lots sizes the position from the premium stop distance. A zero stop
// distance sizes to one lot rather than failing.
func (es *execSimulator) lots(stopDistance float64) int {
	if stopDistance <= 0 {
		return 1
	}
	n := int(math.Floor(es.riskAmount() / (stopDistance * float64(es.lotSize))))
	if n < 1 {
		return 1
	}
	return n
}

// pnl returns the absolute and R-multiple result of a round trip.
func (es *execSimulator) pnl(entry, exit float64, lots int) (pnl, pnlR float64) {
	pnl = (exit - entry) * float64(es.lotSize) * float64(lots)
	if ra := es.riskAmount(); ra > 0 {
		pnlR = pnl / ra
	}
	return pnl, pnlR
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
