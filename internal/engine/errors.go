package engine

import (
	"fmt"
	"time"

	"nifty-options-engine/internal/types"
)

// StaleCandleError reports a feed-contract breach: a candle whose start
// timestamp does not advance its timeframe. The offending candle mutates no
// engine state.
type StaleCandleError struct {
	Timeframe types.Timeframe
	Last      time.Time
	Got       time.Time
}

func (e *StaleCandleError) Error() string {
	return fmt.Sprintf("stale or out-of-order %s candle: start %s does not advance last %s",
		e.Timeframe, e.Got.Format(time.RFC3339), e.Last.Format(time.RFC3339))
}

// InvalidCandleError reports a candle with non-positive prices or an unknown
// timeframe tag. Rejected without mutating state.
type InvalidCandleError struct {
	Timeframe types.Timeframe
	Start     time.Time
	Detail    string
}

func (e *InvalidCandleError) Error() string {
	return fmt.Sprintf("invalid %s candle at %s: %s", e.Timeframe, e.Start.Format(time.RFC3339), e.Detail)
}
