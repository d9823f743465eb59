package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"nifty-options-engine/internal/types"
)

var mu sync.Mutex

var ist = time.FixedZone("IST", 19800)

// SignalEntry is one evaluated entry decision as written to the decisions
// log. Files are keyed by the candle's trading day, so a replay reproduces
// the same files.
type SignalEntry struct {
	Time               string   `json:"time"`
	Direction          string   `json:"direction,omitempty"`
	CrossoverConfirmed bool     `json:"crossover_confirmed"`
	TrendAligned       bool     `json:"trend_aligned"`
	TimeOK             bool     `json:"time_ok"`
	RiskOK             bool     `json:"risk_ok"`
	Accepted           bool     `json:"accepted"`
	Reasons            []string `json:"reasons,omitempty"`
}

// TradeEntry is one closed trade as written to the trades log.
type TradeEntry struct {
	Time       string  `json:"time"`
	Direction  string  `json:"direction"`
	Strike     float64 `json:"strike"`
	Lots       int     `json:"lots"`
	EntryTime  string  `json:"entry_time"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	ExitReason string  `json:"exit_reason"`
	PnL        float64 `json:"pnl"`
	PnLR       float64 `json:"pnl_r"`
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func tradesFilepath(t time.Time) string {
	d := t.In(ist).Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

func decisionsFilepath(t time.Time) string {
	d := t.In(ist).Format("2006-01-02")
	return filepath.Join(logDir(), "decisions", d+".txt")
}

// AppendSignal records an evaluated entry decision under the day of its
// candle timestamp.
func AppendSignal(fr types.FilterResult) error {
	e := SignalEntry{
		Time:               fr.At.In(ist).Format("2006-01-02 15:04:05"),
		Direction:          string(fr.Direction),
		CrossoverConfirmed: fr.CrossoverConfirmed,
		TrendAligned:       fr.TrendAligned,
		TimeOK:             fr.TimeOK,
		RiskOK:             fr.RiskOK,
		Accepted:           fr.Accepted,
		Reasons:            fr.Reasons,
	}
	return appendLine(decisionsFilepath(fr.At), e)
}

// AppendTrade records a closed trade under the day of its exit timestamp.
func AppendTrade(rec types.TradeRecord) error {
	e := TradeEntry{
		Time:       rec.ExitTime.In(ist).Format("2006-01-02 15:04:05"),
		Direction:  string(rec.Position.Direction),
		Strike:     rec.Position.Strike,
		Lots:       rec.Position.Lots,
		EntryTime:  rec.Position.EntryTime.In(ist).Format("2006-01-02 15:04:05"),
		EntryPrice: rec.Position.EntryPrice,
		ExitPrice:  rec.ExitPrice,
		ExitReason: string(rec.ExitReason),
		PnL:        rec.PnL,
		PnLR:       rec.PnLR,
	}
	return appendLine(tradesFilepath(rec.ExitTime), e)
}

func appendLine(path string, v any) error {
	mu.Lock()
	defer mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips plain log files older than the retention window.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}
		in, e3 := os.Open(p)
		if e3 != nil {
			return nil
		}
		defer in.Close()
		out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e4 != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e5 := io.Copy(gw, in); e5 == nil {
			_ = gw.Close()
			_ = out.Close()
			_ = os.Remove(p)
		} else {
			_ = gw.Close()
			_ = out.Close()
		}
		return nil
	})
}
