package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-options-engine/internal/types"
)

// The warmup session leaves the engine with EMAs settled at 100 and a
// BULLISH bias. The dip-then-spike pair below then forces an upward EMA
// crossover on the spike candle without touching the morning exclusion or
// the entry window.
func crossScenario() []types.Candle {
	candles := warmupCandles()
	candles = append(candles, bar5(at(monday, 10, 30), 90))  // pulls fast EMA under slow
	candles = append(candles, bar5(at(monday, 10, 35), 120)) // crosses back up at 10:40
	return candles
}

func TestEngineOpensPositionOnAlignedCrossover(t *testing.T) {
	e := newTestEngine(t, testConfig())
	events := feedOrdered(t, e, crossScenario())

	// Every 5m candle produces exactly one evaluation.
	assert.Len(t, eventsOfType(events, types.EventSignalEvaluated), 17)

	opened := eventsOfType(events, types.EventPositionOpened)
	require.Len(t, opened, 1)
	pos := opened[0].Position
	require.NotNil(t, pos)

	assert.Equal(t, types.OptionCall, pos.Direction)
	assert.Equal(t, 100.0, pos.Strike) // 120 rounded to the 50-point grid
	assert.Equal(t, at(monday, 10, 40), pos.EntryTime)
	assert.Equal(t, 120.0, pos.EntrySpot)
	// intrinsic 20 plus time value 120*0.15*(3/7)*0.05, marked up 0.1%.
	assert.InDelta(t, 20.41, pos.EntryPrice, 1e-9)
	// ATR(3) over the last three true ranges (4, 12, 32) is 16.
	assert.InDelta(t, 7.61, pos.StopLoss, 1e-9)  // 20.41 - 0.8*16
	assert.InDelta(t, 46.01, pos.Target, 1e-9)   // 20.41 + 1.6*16
	assert.Equal(t, 3, pos.Lots)                 // floor(1000 / (12.8*25))
	assert.Equal(t, at(monday, 11, 10), pos.MaxHoldUntil)

	last := eventsOfType(events, types.EventSignalEvaluated)[16]
	require.NotNil(t, last.Filter)
	assert.True(t, last.Filter.Accepted)
	assert.Equal(t, types.DirectionUp, last.Filter.Direction)
	assert.Empty(t, last.Filter.Reasons)

	st := e.RiskState()
	assert.Equal(t, 1, st.TradesToday)
	assert.Equal(t, "2024-01-15", st.TradingDay)
	assert.Equal(t, types.BiasBullish, e.Bias())
}

func TestEngineRejectsCrossoverAgainstBias(t *testing.T) {
	e := newTestEngine(t, testConfig())
	events := feedOrdered(t, e, crossScenario())
	require.Len(t, eventsOfType(events, types.EventPositionOpened), 1)

	// The reversal candle crosses the EMAs back down while the bias is still
	// BULLISH: the open call exits on its stop first, and the DOWN signal is
	// rejected on trend alignment.
	evs, err := e.FeedCandle(context.Background(), bar5(at(monday, 10, 40), 95))
	require.NoError(t, err)

	sigs := eventsOfType(evs, types.EventSignalEvaluated)
	require.Len(t, sigs, 1)
	fr := sigs[0].Filter
	assert.True(t, fr.CrossoverConfirmed)
	assert.Equal(t, types.DirectionDown, fr.Direction)
	assert.False(t, fr.TrendAligned)
	assert.False(t, fr.Accepted)
	assert.Contains(t, fr.Reasons, "trend not aligned: DOWN signal with BULLISH bias")
	assert.Empty(t, eventsOfType(evs, types.EventPositionOpened))
}

func TestStopLossWinsOverOppositeCrossoverOnSameCandle(t *testing.T) {
	e := newTestEngine(t, testConfig())
	feedOrdered(t, e, crossScenario())

	// Spot 95 both breaches the premium stop and flips the EMAs downward.
	evs, err := e.FeedCandle(context.Background(), bar5(at(monday, 10, 40), 95))
	require.NoError(t, err)

	closed := eventsOfType(evs, types.EventPositionClosed)
	require.Len(t, closed, 1)
	rec := closed[0].Trade
	require.NotNil(t, rec)
	assert.Equal(t, types.ExitStopLoss, rec.ExitReason)
	assert.InDelta(t, 0.31, rec.ExitPrice, 1e-9) // pure time value at 95, marked down 0.1%
	assert.InDelta(t, -1507.5, rec.PnL, 1e-6)
	assert.InDelta(t, -1.5075, rec.PnLR, 1e-9)
}

func TestDailyLossBreachTripsKillSwitch(t *testing.T) {
	e := newTestEngine(t, testConfig())
	feedOrdered(t, e, crossScenario())

	evs, err := e.FeedCandle(context.Background(), bar5(at(monday, 10, 40), 95))
	require.NoError(t, err)

	// The -1.5R stop exit breaches the 1R daily limit: the trip event follows
	// the close, before the candle's own evaluation.
	require.GreaterOrEqual(t, len(evs), 3)
	assert.Equal(t, types.EventPositionClosed, evs[0].Type)
	assert.Equal(t, types.EventKillSwitchTripped, evs[1].Type)
	assert.Equal(t, types.EventSignalEvaluated, evs[2].Type)

	st := e.RiskState()
	assert.True(t, st.KillSwitchActive)
	assert.Contains(t, st.KillSwitchReason, "daily loss limit breached")

	// Entries stay blocked for the rest of the day.
	evs, err = e.FeedCandle(context.Background(), bar5(at(monday, 10, 45), 120))
	require.NoError(t, err)
	assert.Empty(t, eventsOfType(evs, types.EventPositionOpened))
}

func TestDayRolloverResetsRiskStateAndRearmsKillSwitch(t *testing.T) {
	e := newTestEngine(t, testConfig())
	feedOrdered(t, e, crossScenario())
	_, err := e.FeedCandle(context.Background(), bar5(at(monday, 10, 40), 95))
	require.NoError(t, err)
	require.True(t, e.RiskState().KillSwitchActive)

	tuesday := monday.AddDate(0, 0, 1)
	evs, err := e.FeedCandle(context.Background(), bar5(at(tuesday, 9, 15), 100))
	require.NoError(t, err)

	resets := eventsOfType(evs, types.EventKillSwitchReset)
	require.Len(t, resets, 1)
	assert.Equal(t, at(tuesday, 9, 15), resets[0].At)

	st := e.RiskState()
	assert.Equal(t, "2024-01-16", st.TradingDay)
	assert.Equal(t, 0, st.TradesToday)
	assert.Zero(t, st.DailyPnLR)
	assert.False(t, st.KillSwitchActive)
}

func TestManualKillSwitchBlocksEntriesUntilReset(t *testing.T) {
	e := newTestEngine(t, testConfig())
	feedOrdered(t, e, warmupCandles())

	evs := e.ActivateKillSwitch(context.Background(), "operator halt")
	require.Len(t, evs, 1)
	assert.Equal(t, types.EventKillSwitchTripped, evs[0].Type)
	assert.Equal(t, "operator halt", evs[0].Reason)
	assert.Empty(t, e.ActivateKillSwitch(context.Background(), "again"), "activation is idempotent")

	// A fully aligned crossover arrives while tripped: rejected on risk.
	feedOrdered(t, e, []types.Candle{
		bar5(at(monday, 10, 30), 90),
		bar5(at(monday, 10, 35), 120),
	})
	require.Zero(t, e.RiskState().TradesToday)

	evs = e.ResetKillSwitch(context.Background())
	require.Len(t, evs, 1)
	assert.Equal(t, types.EventKillSwitchReset, evs[0].Type)
	assert.Empty(t, e.ResetKillSwitch(context.Background()), "reset is idempotent")

	// The next aligned crossover is filled again.
	events := feedOrdered(t, e, []types.Candle{
		bar5(at(monday, 10, 40), 90),
		bar5(at(monday, 10, 45), 120),
	})
	assert.Len(t, eventsOfType(events, types.EventPositionOpened), 1)
}

func TestMaxHoldExit(t *testing.T) {
	e := newTestEngine(t, testConfig())
	feedOrdered(t, e, crossScenario())

	// Flat candles at the entry spot stay inside the stop/target band until
	// the 30 minute hold expires at 11:10.
	var events []types.Event
	for i := 0; i < 6; i++ {
		evs, err := e.FeedCandle(context.Background(), bar5(at(monday, 10, 40).Add(time.Duration(i)*5*time.Minute), 120))
		require.NoError(t, err)
		events = append(events, evs...)
	}

	closed := eventsOfType(events, types.EventPositionClosed)
	require.Len(t, closed, 1)
	rec := closed[0].Trade
	assert.Equal(t, types.ExitMaxHold, rec.ExitReason)
	assert.Equal(t, at(monday, 11, 10), rec.ExitTime)
	assert.InDelta(t, 20.37, rec.ExitPrice, 1e-9)
	assert.False(t, e.RiskState().KillSwitchActive, "a small slippage loss must not trip the limit")
}

func TestEODExitOutranksMaxHold(t *testing.T) {
	e := newTestEngine(t, testConfig())
	feedOrdered(t, e, crossScenario())

	// Long after both the hold expiry and the EOD cutoff: EOD attribution
	// takes precedence over max-hold.
	evs, err := e.FeedCandle(context.Background(), bar5(at(monday, 15, 10), 120))
	require.NoError(t, err)

	closed := eventsOfType(evs, types.EventPositionClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, types.ExitEOD, closed[0].Trade.ExitReason)

	fr := eventsOfType(evs, types.EventSignalEvaluated)[0].Filter
	assert.False(t, fr.TimeOK)
}

func TestStopAndTargetPlacementFromATR(t *testing.T) {
	e := newTestEngine(t, testConfig())
	sig := &types.Signal{Direction: types.DirectionUp, At: at(monday, 10, 40)}
	snap := fiveSnapshot{atr: 12.875, atrReady: true, pairReady: true}

	ev, ok := e.openPosition(context.Background(), at(monday, 10, 40), 22347.5, sig, snap)
	require.True(t, ok)
	pos := ev.Position

	assert.Equal(t, 22350.0, pos.Strike)
	assert.InDelta(t, 71.90, pos.EntryPrice, 1e-9)
	assert.InDelta(t, round2(pos.EntryPrice-0.8*12.875), pos.StopLoss, 1e-9)
	assert.InDelta(t, round2(pos.EntryPrice+1.6*12.875), pos.Target, 1e-9)
	assert.Equal(t, 3, pos.Lots) // floor(1000 / (10.3*25))

	// The documented reference placement for an entry premium of 150.50.
	assert.InDelta(t, 140.20, round2(150.50-0.8*12.875), 1e-9)
	assert.InDelta(t, 171.10, round2(150.50+1.6*12.875), 1e-9)
}

func TestDeterministicReplay(t *testing.T) {
	candles := crossScenario()
	candles = append(candles,
		bar5(at(monday, 10, 40), 95),
		bar5(at(monday, 10, 45), 108),
		bar5(at(monday.AddDate(0, 0, 1), 9, 15), 100),
	)

	run := func() []byte {
		e := newTestEngine(t, testConfig())
		events := feedOrdered(t, e, candles)
		b, err := json.Marshal(events)
		require.NoError(t, err)
		return b
	}

	assert.Equal(t, string(run()), string(run()), "identical input must replay to identical events")
}

func TestCandleContractRejections(t *testing.T) {
	e := newTestEngine(t, testConfig())
	good := bar5(at(monday, 9, 15), 100)
	_, err := e.FeedCandle(context.Background(), good)
	require.NoError(t, err)

	// Same start again: stale, rejected without touching state.
	_, err = e.FeedCandle(context.Background(), good)
	var stale *StaleCandleError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, types.TF5m, stale.Timeframe)

	// Out of order.
	_, err = e.FeedCandle(context.Background(), bar5(at(monday, 9, 10), 100))
	require.ErrorAs(t, err, &stale)

	var invalid *InvalidCandleError
	bad := bar5(at(monday, 9, 20), 100)
	bad.Timeframe = types.Timeframe("1h")
	_, err = e.FeedCandle(context.Background(), bad)
	require.ErrorAs(t, err, &invalid)

	bad = bar5(at(monday, 9, 20), 100)
	bad.Low = -1
	_, err = e.FeedCandle(context.Background(), bad)
	require.ErrorAs(t, err, &invalid)

	// A 15m candle on the same timeline is independent of the 5m ladder.
	_, err = e.FeedCandle(context.Background(), bar15(at(monday, 9, 15), 100))
	require.NoError(t, err)

	// The valid candle was recorded; the rejects were not.
	evs, err := e.FeedCandle(context.Background(), bar5(at(monday, 9, 20), 100))
	require.NoError(t, err)
	assert.NotEmpty(t, evs)
}
