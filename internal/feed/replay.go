package feed

import (
	"sort"

	"nifty-options-engine/internal/interfaces"
	"nifty-options-engine/internal/types"
)

// Replay merges the two timeframes' closed candles into the single ordered
// stream the engine consumes: ascending close time, with the 15m candle
// delivered before a 5m candle closing at the same instant so the bias at
// that boundary reflects all closed data.
type Replay struct {
	candles []types.Candle
	i       int
}

var _ interfaces.Feed = (*Replay)(nil)

func NewReplay(five, fifteen []types.Candle) *Replay {
	merged := make([]types.Candle, 0, len(five)+len(fifteen))
	merged = append(merged, five...)
	merged = append(merged, fifteen...)
	sort.SliceStable(merged, func(i, j int) bool {
		ei, ej := merged[i].End(), merged[j].End()
		if !ei.Equal(ej) {
			return ei.Before(ej)
		}
		return merged[i].Timeframe == types.TF15m && merged[j].Timeframe == types.TF5m
	})
	return &Replay{candles: merged}
}

func (r *Replay) Next() (types.Candle, bool) {
	if r.i >= len(r.candles) {
		return types.Candle{}, false
	}
	c := r.candles[r.i]
	r.i++
	return c, true
}

func (r *Replay) Len() int { return len(r.candles) }

// Reset rewinds the stream, for deterministic re-runs.
func (r *Replay) Reset() { r.i = 0 }
