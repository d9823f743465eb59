package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"nifty-options-engine/internal/engine"
	"nifty-options-engine/internal/engine/engineobs"
	"nifty-options-engine/internal/eod"
	"nifty-options-engine/internal/feed"
	"nifty-options-engine/internal/logger"
	"nifty-options-engine/internal/store"
	"nifty-options-engine/internal/trace"
	"nifty-options-engine/internal/tradelog"
	"nifty-options-engine/internal/types"

	"github.com/joho/godotenv"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	fiveCSV := flag.String("five", "", "5m candle CSV (replay source)")
	fifteenCSV := flag.String("fifteen", "", "15m candle CSV (replay source)")
	flag.Parse()

	must(logger.Init())
	must(trace.Init())

	cfg, err := store.LoadConfig(*configPath)
	must(err)

	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		_ = tradelog.CompressOlder(n)
	}

	ctx := context.Background()

	five, fifteen, err := loadCandles(ctx, cfg, *fiveCSV, *fifteenCSV)
	must(err)

	core, err := engine.New(cfg)
	must(err)
	eng := engineobs.Wrap(core)

	replay := feed.NewReplay(five, fifteen)
	log.Printf("Replaying %d candles", replay.Len())

	for {
		c, ok := replay.Next()
		if !ok {
			break
		}
		events, err := eng.FeedCandle(ctx, c)
		if err != nil {
			// Contract breaches are logged and skipped; the engine state is
			// untouched by the rejected candle.
			continue
		}
		for _, ev := range events {
			emit(ev)
		}
	}

	trades := eng.ClosedTrades()
	for _, s := range eod.Summarize(trades, nil) {
		b, _ := json.Marshal(s)
		fmt.Println(string(b))
		day, _ := time.Parse("2006-01-02", s.Day)
		if p, err := eod.SummarizeDay(day); err == nil && p != "" {
			log.Println("EOD CSV written:", p)
		}
	}

	_ = trace.Shutdown(ctx)
}

func loadCandles(ctx context.Context, cfg *store.Config, fiveCSV, fifteenCSV string) (five, fifteen []types.Candle, err error) {
	if cfg.Feed.Source == "KITE" {
		from, err := time.Parse("2006-01-02", cfg.Feed.From)
		if err != nil {
			return nil, nil, fmt.Errorf("feed.from: %w", err)
		}
		to, err := time.Parse("2006-01-02", cfg.Feed.To)
		if err != nil {
			return nil, nil, fmt.Errorf("feed.to: %w", err)
		}
		src := feed.NewKiteSource(os.Getenv("KITE_API_KEY"), os.Getenv("KITE_ACCESS_TOKEN"), cfg.Feed.InstrumentToken)
		return src.Fetch(ctx, from, to)
	}

	if fiveCSV == "" || fifteenCSV == "" {
		return nil, nil, fmt.Errorf("replay source needs -five and -fifteen CSV paths")
	}
	loc, err := time.LoadLocation(cfg.Session.Timezone)
	if err != nil {
		return nil, nil, err
	}
	if five, err = feed.LoadCSV(fiveCSV, types.TF5m, loc); err != nil {
		return nil, nil, err
	}
	if fifteen, err = feed.LoadCSV(fifteenCSV, types.TF15m, loc); err != nil {
		return nil, nil, err
	}
	return five, fifteen, nil
}

func emit(ev types.Event) {
	b, _ := json.Marshal(ev)
	fmt.Println(string(b))
	switch ev.Type {
	case types.EventSignalEvaluated:
		if ev.Filter != nil {
			_ = tradelog.AppendSignal(*ev.Filter)
		}
	case types.EventPositionClosed:
		if ev.Trade != nil {
			_ = tradelog.AppendTrade(*ev.Trade)
		}
	}
}
