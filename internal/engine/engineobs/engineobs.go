package engineobs

import (
	"context"
	"time"

	"nifty-options-engine/internal/interfaces"
	"nifty-options-engine/internal/logger"
	"nifty-options-engine/internal/trace"
	"nifty-options-engine/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

// Wrap decorates an engine with a span and timing log per fed candle.
func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{engine: eng}
}

func (oe *observableEngine) FeedCandle(ctx context.Context, c types.Candle) ([]types.Event, error) {
	ctx, span := trace.StartSpan(ctx, "engine.FeedCandle")
	defer span.End()

	start := time.Now()
	events, err := oe.engine.FeedCandle(ctx, c)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Candle rejected", err,
			"timeframe", string(c.Timeframe),
			"candle_start", c.Start,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Candle processed",
		"timeframe", string(c.Timeframe),
		"candle_start", c.Start,
		"events", len(events),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return events, nil
}

func (oe *observableEngine) ActivateKillSwitch(ctx context.Context, reason string) []types.Event {
	ctx, span := trace.StartSpan(ctx, "engine.ActivateKillSwitch")
	defer span.End()
	return oe.engine.ActivateKillSwitch(ctx, reason)
}

func (oe *observableEngine) ResetKillSwitch(ctx context.Context) []types.Event {
	ctx, span := trace.StartSpan(ctx, "engine.ResetKillSwitch")
	defer span.End()
	return oe.engine.ResetKillSwitch(ctx)
}

func (oe *observableEngine) RiskState() types.RiskState { return oe.engine.RiskState() }

func (oe *observableEngine) ClosedTrades() []types.TradeRecord { return oe.engine.ClosedTrades() }
