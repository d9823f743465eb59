package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nifty-options-engine/internal/store"
	"nifty-options-engine/internal/types"
)

var ist = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
	return loc
}()

// testConfig shortens the indicator periods so scenarios warm up within a
// handful of candles. Everything else keeps production defaults.
func testConfig() *store.Config {
	cfg := store.Default()
	cfg.Indicators.EMAFastPeriod = 3
	cfg.Indicators.EMASlowPeriod = 5
	cfg.Indicators.DEMAPeriod = 2
	cfg.Indicators.ATRPeriod = 3
	return cfg
}

func newTestEngine(t *testing.T, cfg *store.Config) *engine {
	t.Helper()
	e, err := newEngine(cfg)
	require.NoError(t, err)
	return e
}

func bar5(start time.Time, close float64) types.Candle {
	return types.Candle{
		Timeframe: types.TF5m,
		Start:     start,
		Open:      close,
		High:      close + 2,
		Low:       close - 2,
		Close:     close,
		Volume:    1000,
	}
}

func bar15(start time.Time, close float64) types.Candle {
	return types.Candle{
		Timeframe: types.TF15m,
		Start:     start,
		Open:      close,
		High:      close + 2,
		Low:       close - 2,
		Close:     close,
		Volume:    3000,
	}
}

func at(day time.Time, hour, min int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, ist)
}

// monday is a non-expiry trading day under the default Thursday expiry.
var monday = time.Date(2024, 1, 15, 0, 0, 0, 0, ist)

// warmupCandles produces the morning session that leaves the test engine
// with a BULLISH 15m bias and both 5m EMAs settled at 100: five rising 15m
// bars and fifteen flat 5m bars, in feed order.
func warmupCandles() []types.Candle {
	var out []types.Candle
	for i, close := range []float64{100, 101, 102, 103, 106} {
		out = append(out, bar15(at(monday, 9, 15).Add(time.Duration(i)*15*time.Minute), close))
	}
	for i := 0; i < 15; i++ {
		out = append(out, bar5(at(monday, 9, 15).Add(time.Duration(i)*5*time.Minute), 100))
	}
	return out
}

// feedOrdered delivers candles ordered by close time, 15m before 5m on ties,
// and returns every event produced.
func feedOrdered(t *testing.T, e *engine, candles []types.Candle) []types.Event {
	t.Helper()
	ordered := make([]types.Candle, len(candles))
	copy(ordered, candles)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0; j-- {
			a, b := ordered[j-1], ordered[j]
			if b.End().Before(a.End()) || (b.End().Equal(a.End()) && b.Timeframe == types.TF15m && a.Timeframe == types.TF5m) {
				ordered[j-1], ordered[j] = b, a
			} else {
				break
			}
		}
	}
	var events []types.Event
	for _, c := range ordered {
		evs, err := e.FeedCandle(context.Background(), c)
		require.NoError(t, err, "candle %s %s", c.Timeframe, c.Start)
		events = append(events, evs...)
	}
	return events
}

func eventsOfType(events []types.Event, typ types.EventType) []types.Event {
	var out []types.Event
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
