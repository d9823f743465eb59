package interfaces

import (
	"context"

	"nifty-options-engine/internal/types"
)

// Engine consumes one closed candle at a time and returns the events that
// candle produced, in deterministic order. Administrative kill-switch calls
// are synchronous and idempotent; they run between candles, never during one.
type Engine interface {
	FeedCandle(ctx context.Context, c types.Candle) ([]types.Event, error)
	ActivateKillSwitch(ctx context.Context, reason string) []types.Event
	ResetKillSwitch(ctx context.Context) []types.Event
	RiskState() types.RiskState
	ClosedTrades() []types.TradeRecord
}
