package eod

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-options-engine/internal/tradelog"
	"nifty-options-engine/internal/types"
)

func tradeAt(exit time.Time, reason types.ExitReason, pnl, pnlR float64) types.TradeRecord {
	return types.TradeRecord{
		Position:   types.Position{Direction: types.OptionCall, Strike: 22350, Lots: 3, EntryPrice: 150},
		ExitTime:   exit,
		ExitPrice:  150 + pnl/75,
		ExitReason: reason,
		PnL:        pnl,
		PnLR:       pnlR,
	}
}

func TestSummarize(t *testing.T) {
	d1 := time.Date(2024, 1, 15, 10, 45, 0, 0, ist)
	d2 := time.Date(2024, 1, 16, 11, 0, 0, 0, ist)
	trades := []types.TradeRecord{
		tradeAt(d1, types.ExitTarget, 1545, 1.545),
		tradeAt(d1, types.ExitStopLoss, -772.5, -0.7725),
		tradeAt(d2, types.ExitStopLoss, -1507.5, -1.5075),
	}

	out := Summarize(trades, map[string]bool{"2024-01-16": true})
	require.Len(t, out, 2)

	day1 := out[0]
	assert.Equal(t, "2024-01-15", day1.Day)
	assert.Equal(t, 2, day1.Trades)
	assert.Equal(t, 1, day1.Wins)
	assert.Equal(t, 1, day1.Losses)
	assert.InDelta(t, 772.5, day1.PnL, 1e-9)
	assert.InDelta(t, 0.7725, day1.PnLR, 1e-9)
	assert.InDelta(t, 0.5, day1.WinRate, 1e-9)
	assert.False(t, day1.KillSwitch)

	day2 := out[1]
	assert.Equal(t, "2024-01-16", day2.Day)
	assert.Equal(t, 1, day2.Trades)
	assert.True(t, day2.KillSwitch)
	assert.Zero(t, day2.WinRate)
}

func TestSummarizeDayCSV(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	day := time.Date(2024, 1, 15, 10, 45, 0, 0, ist)
	require.NoError(t, tradelog.AppendTrade(tradeAt(day, types.ExitStopLoss, -750, -0.75)))
	require.NoError(t, tradelog.AppendTrade(tradeAt(day, types.ExitStopLoss, -750, -0.75)))
	require.NoError(t, tradelog.AppendTrade(tradeAt(day.Add(time.Hour), types.ExitTarget, 1500, 1.5)))

	path, err := SummarizeDay(day)
	require.NoError(t, err)
	require.NotEmpty(t, path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4) // header, two reasons, total
	assert.Equal(t, []string{"exit_reason", "trades", "wins", "losses", "pnl", "pnl_r"}, rows[0])
	assert.Equal(t, []string{"stop_loss", "2", "0", "2", "-1500.00", "-1.500"}, rows[1])
	assert.Equal(t, []string{"target", "1", "1", "0", "1500.00", "1.500"}, rows[2])
	assert.Equal(t, []string{"TOTAL", "3", "1", "1", "0.00", "0.000"}, rows[3])
}

func TestSummarizeDayWithoutTrades(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	path, err := SummarizeDay(time.Date(2024, 1, 15, 0, 0, 0, 0, ist))
	require.NoError(t, err)
	assert.Empty(t, path)
}
