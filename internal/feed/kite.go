package feed

import (
	"context"
	"fmt"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"nifty-options-engine/internal/interfaces"
	"nifty-options-engine/internal/logger"
	"nifty-options-engine/internal/trace"
	"nifty-options-engine/internal/types"
)

// KiteSource fetches historical closed candles for an instrument from the
// Kite API. The API returns finalized bars in ascending order, which is
// exactly the engine's feed contract.
type KiteSource struct {
	kc    *kiteconnect.Client
	token int
}

var _ interfaces.CandleSource = (*KiteSource)(nil)

func NewKiteSource(apiKey, accessToken string, instrumentToken int) *KiteSource {
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return &KiteSource{kc: kc, token: instrumentToken}
}

// Fetch retrieves both engine timeframes for the date range.
func (k *KiteSource) Fetch(ctx context.Context, from, to time.Time) (five, fifteen []types.Candle, err error) {
	ctx, span := trace.StartSpan(ctx, "feed.kite.Fetch")
	defer span.End()

	start := time.Now()
	d5, err := k.kc.GetHistoricalData(k.token, "5minute", from, to, false, false)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch 5m history", err, "token", k.token)
		return nil, nil, fmt.Errorf("kite 5m history: %w", err)
	}
	d15, err := k.kc.GetHistoricalData(k.token, "15minute", from, to, false, false)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch 15m history", err, "token", k.token)
		return nil, nil, fmt.Errorf("kite 15m history: %w", err)
	}

	five = mapCandles(d5, types.TF5m)
	fifteen = mapCandles(d15, types.TF15m)
	logger.Info(ctx, "Historical candles fetched",
		"token", k.token,
		"candles_5m", len(five),
		"candles_15m", len(fifteen),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return five, fifteen, nil
}

func mapCandles(data []kiteconnect.HistoricalData, tf types.Timeframe) []types.Candle {
	out := make([]types.Candle, 0, len(data))
	for _, d := range data {
		out = append(out, types.Candle{
			Timeframe: tf,
			Start:     d.Date.Time,
			Open:      d.Open,
			High:      d.High,
			Low:       d.Low,
			Close:     d.Close,
			Volume:    float64(d.Volume),
		})
	}
	return out
}
