package types

import "time"

type Timeframe string

const (
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
)

// Duration returns the bar length for the timeframe.
func (tf Timeframe) Duration() time.Duration {
	if tf == TF15m {
		return 15 * time.Minute
	}
	return 5 * time.Minute
}

// Candle is a closed, finalized price bar. Start is the bar's opening
// timestamp in exchange-local time; the bar is never revised after ingestion.
type Candle struct {
	Timeframe Timeframe `json:"timeframe"`
	Start     time.Time `json:"start"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume,omitempty"`
}

// End returns the close timestamp of the bar.
func (c Candle) End() time.Time { return c.Start.Add(c.Timeframe.Duration()) }

type Bias string

const (
	BiasBullish Bias = "BULLISH"
	BiasBearish Bias = "BEARISH"
	BiasNeutral Bias = "NEUTRAL"
)

type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// Signal is a candidate crossover event on the 5m timeframe. It lives for one
// evaluation cycle only.
type Signal struct {
	Direction Direction `json:"direction"`
	At        time.Time `json:"at"`
	EMAFast   float64   `json:"ema_fast"`
	EMASlow   float64   `json:"ema_slow"`
}

// FilterResult records one entry evaluation with per-gate outcomes and a
// human-readable reason for every failed gate. Audit only; it has no causal
// effect beyond logging.
type FilterResult struct {
	At                 time.Time `json:"at"`
	Direction          Direction `json:"direction,omitempty"`
	CrossoverConfirmed bool      `json:"crossover_confirmed"`
	TrendAligned       bool      `json:"trend_aligned"`
	TimeOK             bool      `json:"time_ok"`
	RiskOK             bool      `json:"risk_ok"`
	Accepted           bool      `json:"accepted"`
	Reasons            []string  `json:"reasons,omitempty"`
}

// Position is one open virtual option position. StopLoss and Target are
// premium levels; exits reprice the option from spot and compare against them.
type Position struct {
	ID           int        `json:"id"`
	Direction    OptionType `json:"direction"`
	Strike       float64    `json:"strike"`
	EntryTime    time.Time  `json:"entry_time"`
	EntrySpot    float64    `json:"entry_spot"`
	EntryPrice   float64    `json:"entry_price"`
	StopLoss     float64    `json:"stop_loss"`
	Target       float64    `json:"target"`
	Lots         int        `json:"lots"`
	MaxHoldUntil time.Time  `json:"max_hold_until"`
}

type ExitReason string

const (
	ExitKillSwitch    ExitReason = "kill_switch"
	ExitStopLoss      ExitReason = "stop_loss"
	ExitTarget        ExitReason = "target"
	ExitEOD           ExitReason = "eod"
	ExitMaxHold       ExitReason = "max_hold"
	ExitOppositeCross ExitReason = "opposite_crossover"
	// ExitPricingFailure marks the conservative fallback close at the last
	// known premium when the simulator cannot produce an exit price.
	ExitPricingFailure ExitReason = "pricing_failure"
)

// TradeRecord is the immutable closed-trade summary appended to the audit
// trail. ExitReason is always one of the defined exit taxonomy values.
type TradeRecord struct {
	Position   Position   `json:"position"`
	ExitTime   time.Time  `json:"exit_time"`
	ExitSpot   float64    `json:"exit_spot"`
	ExitPrice  float64    `json:"exit_price"`
	ExitReason ExitReason `json:"exit_reason"`
	PnL        float64    `json:"pnl"`
	PnLR       float64    `json:"pnl_r"`
}

// RiskState is the per-trading-day risk snapshot. Owned by the risk manager;
// reset exactly once at the first candle of each new trading day.
type RiskState struct {
	TradingDay       string  `json:"trading_day"`
	TradesToday      int     `json:"trades_today"`
	DailyPnLR        float64 `json:"daily_pnl_r"`
	KillSwitchActive bool    `json:"kill_switch_active"`
	KillSwitchReason string  `json:"kill_switch_reason,omitempty"`
}

type EventType string

const (
	EventSignalEvaluated   EventType = "SIGNAL_EVALUATED"
	EventPositionOpened    EventType = "POSITION_OPENED"
	EventPositionClosed    EventType = "POSITION_CLOSED"
	EventKillSwitchTripped EventType = "KILL_SWITCH_TRIPPED"
	EventKillSwitchReset   EventType = "KILL_SWITCH_RESET"
)

// Event is one engine output. Exactly one of Filter, Position, Trade is set
// depending on Type; Reason carries the kill-switch trip reason.
type Event struct {
	Type     EventType     `json:"type"`
	At       time.Time     `json:"at"`
	Filter   *FilterResult `json:"filter,omitempty"`
	Position *Position     `json:"position,omitempty"`
	Trade    *TradeRecord  `json:"trade,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

// DaySummary aggregates one trading day's closed trades.
type DaySummary struct {
	Day        string  `json:"day"`
	Trades     int     `json:"trades"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	PnL        float64 `json:"pnl"`
	PnLR       float64 `json:"pnl_r"`
	WinRate    float64 `json:"win_rate"`
	KillSwitch bool    `json:"kill_switch_triggered"`
}
