package feed

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"nifty-options-engine/internal/types"
)

// LoadCSV reads closed candles from a file with rows of
// timestamp,open,high,low,close[,volume]. Timestamps are the bar start, in
// RFC3339 or "2006-01-02 15:04:05" interpreted in loc. A header row is
// skipped when present.
func LoadCSV(path string, tf types.Timeframe, loc *time.Location) ([]types.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	out := make([]types.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 5 {
			return nil, fmt.Errorf("%s row %d: want at least 5 fields, got %d", path, i+1, len(row))
		}
		ts, err := parseTimestamp(row[0], loc)
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		vals := make([]float64, 4)
		for j := 0; j < 4; j++ {
			v, err := strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d col %d: %w", path, i+1, j+2, err)
			}
			vals[j] = v
		}
		c := types.Candle{
			Timeframe: tf,
			Start:     ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
		}
		if len(row) > 5 {
			if v, err := strconv.ParseFloat(row[5], 64); err == nil {
				c.Volume = v
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
