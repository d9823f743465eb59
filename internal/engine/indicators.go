package engine

import (
	"nifty-options-engine/internal/store"
	"nifty-options-engine/internal/ta"
	"nifty-options-engine/internal/types"
)

// indicatorTracker owns all rolling indicator state for both timeframes. It
// is mutated only by feeding one closed candle at a time and is never reset
// during an engine's lifetime.
type indicatorTracker struct {
	emaFast *ta.EMA
	emaSlow *ta.EMA
	atr     *ta.ATR

	prevFast  float64
	prevSlow  float64
	prevReady bool

	dema     *ta.DEMA
	demaHist []float64 // last slopeWindow valid DEMA values
}

const slopeWindow = 3

type fiveSnapshot struct {
	prevFast, prevSlow float64
	currFast, currSlow float64
	pairReady          bool // prev and curr EMA pairs both valid
	atr                float64
	atrReady           bool
}

type fifteenSnapshot struct {
	dema       float64
	demaReady  bool
	slope      float64
	slopeReady bool
}

func newIndicatorTracker(cfg *store.Config) *indicatorTracker {
	return &indicatorTracker{
		emaFast:  ta.NewEMA(cfg.Indicators.EMAFastPeriod),
		emaSlow:  ta.NewEMA(cfg.Indicators.EMASlowPeriod),
		atr:      ta.NewATR(cfg.Indicators.ATRPeriod),
		dema:     ta.NewDEMA(cfg.Indicators.DEMAPeriod),
		demaHist: make([]float64, 0, slopeWindow),
	}
}

func (it *indicatorTracker) update5m(c types.Candle) fiveSnapshot {
	snap := fiveSnapshot{
		prevFast: it.prevFast,
		prevSlow: it.prevSlow,
	}
	prevReady := it.prevReady

	fast, fastOK := it.emaFast.Update(c.Close)
	slow, slowOK := it.emaSlow.Update(c.Close)
	snap.atr, snap.atrReady = it.atr.Update(c.High, c.Low, c.Close)

	if fastOK && slowOK {
		snap.currFast, snap.currSlow = fast, slow
		snap.pairReady = prevReady
		it.prevFast, it.prevSlow, it.prevReady = fast, slow, true
	}
	return snap
}

func (it *indicatorTracker) update15m(c types.Candle) fifteenSnapshot {
	var snap fifteenSnapshot
	v, ok := it.dema.Update(c.Close)
	if !ok {
		return snap
	}
	snap.dema, snap.demaReady = v, true
	it.demaHist = append(it.demaHist, v)
	if len(it.demaHist) > slopeWindow {
		it.demaHist = it.demaHist[1:]
	}
	// With fewer than slopeWindow valid values the slope is undefined, which
	// blocks any trend determination. It is not zero.
	if len(it.demaHist) == slopeWindow {
		snap.slope = ta.Slope(it.demaHist)
		snap.slopeReady = true
	}
	return snap
}
