package engine

import "nifty-options-engine/internal/types"

// resolveBias derives the higher-timeframe directional bias from the latest
// 15m close, the DEMA value and its slope. Equality of price and DEMA
// resolves to NEUTRAL since neither strict inequality holds, and an undefined
// slope (insufficient history) always yields NEUTRAL.
func resolveBias(price float64, snap fifteenSnapshot) types.Bias {
	if !snap.demaReady || !snap.slopeReady {
		return types.BiasNeutral
	}
	switch {
	case price > snap.dema && snap.slope >= 0:
		return types.BiasBullish
	case price < snap.dema && snap.slope <= 0:
		return types.BiasBearish
	default:
		return types.BiasNeutral
	}
}
