package eod

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"nifty-options-engine/internal/types"
)

type aggRow struct {
	ExitReason string
	Trades     int
	Wins       int
	Losses     int
	PnL        float64
	PnLR       float64
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

var ist = time.FixedZone("IST", 19800)

func tradesFile(t time.Time) string {
	return filepath.Join(logDir(), t.In(ist).Format("2006-01-02")+".txt")
}

func eodCSVPath(t time.Time) string {
	return filepath.Join(logDir(), "eod", t.In(ist).Format("2006-01-02")+".csv")
}

type tradeLine struct {
	ExitReason string  `json:"exit_reason"`
	PnL        float64 `json:"pnl"`
	PnLR       float64 `json:"pnl_r"`
}

// SummarizeDay aggregates the day's trade log by exit reason into a CSV
// report. Returns an empty path when no trades were logged.
func SummarizeDay(t time.Time) (string, error) {
	inPath := tradesFile(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var tl tradeLine
		if err := json.Unmarshal(sc.Bytes(), &tl); err != nil {
			continue
		}
		row := aggs[tl.ExitReason]
		if row == nil {
			row = &aggRow{ExitReason: tl.ExitReason}
			aggs[tl.ExitReason] = row
		}
		row.Trades++
		if tl.PnL > 0 {
			row.Wins++
		} else {
			row.Losses++
		}
		row.PnL += tl.PnL
		row.PnLR += tl.PnLR
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := eodCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	if err := w.Write([]string{"exit_reason", "trades", "wins", "losses", "pnl", "pnl_r"}); err != nil {
		return "", err
	}
	var total aggRow
	for _, k := range keys {
		r := aggs[k]
		rec := []string{r.ExitReason, strconv.Itoa(r.Trades), strconv.Itoa(r.Wins), strconv.Itoa(r.Losses),
			fmt.Sprintf("%.2f", r.PnL), fmt.Sprintf("%.3f", r.PnLR)}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		total.Trades += r.Trades
		total.Wins += r.Wins
		total.Losses += r.Losses
		total.PnL += r.PnL
		total.PnLR += r.PnLR
	}
	_ = w.Write([]string{"TOTAL", strconv.Itoa(total.Trades), strconv.Itoa(total.Wins), strconv.Itoa(total.Losses),
		fmt.Sprintf("%.2f", total.PnL), fmt.Sprintf("%.3f", total.PnLR)})
	return outPath, nil
}

// Summarize rolls closed trades up into per-day summaries, sorted by day.
func Summarize(trades []types.TradeRecord, killSwitchDays map[string]bool) []types.DaySummary {
	byDay := map[string]*types.DaySummary{}
	for _, tr := range trades {
		day := tr.ExitTime.In(ist).Format("2006-01-02")
		s := byDay[day]
		if s == nil {
			s = &types.DaySummary{Day: day}
			byDay[day] = s
		}
		s.Trades++
		if tr.PnL > 0 {
			s.Wins++
		} else {
			s.Losses++
		}
		s.PnL += tr.PnL
		s.PnLR += tr.PnLR
	}
	out := make([]types.DaySummary, 0, len(byDay))
	for day, s := range byDay {
		if s.Trades > 0 {
			s.WinRate = float64(s.Wins) / float64(s.Trades)
		}
		s.KillSwitch = killSwitchDays[day]
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}
