package interfaces

import (
	"context"
	"time"

	"nifty-options-engine/internal/types"
)

// Feed delivers closed candles one at a time in the merged chronological
// order the engine requires. Next returns false when the stream is exhausted.
type Feed interface {
	Next() (types.Candle, bool)
}

// CandleSource fetches closed candles for both engine timeframes over a
// date range. Implementations guarantee the candles are final and ordered.
type CandleSource interface {
	Fetch(ctx context.Context, from, to time.Time) (five, fifteen []types.Candle, err error)
}
