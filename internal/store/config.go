package store

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Account struct {
		Capital      float64 `yaml:"capital"`
		RiskPerTrade float64 `yaml:"risk_per_trade"`
	} `yaml:"account"`
	Risk struct {
		MaxDailyTrades   int     `yaml:"max_daily_trades"`
		MaxDailyLossR    float64 `yaml:"max_daily_loss_r"`
		MaxOpenPositions int     `yaml:"max_open_positions"`
	} `yaml:"risk"`
	Indicators struct {
		EMAFastPeriod int `yaml:"ema_fast_period"`
		EMASlowPeriod int `yaml:"ema_slow_period"`
		DEMAPeriod    int `yaml:"dema_period"`
		ATRPeriod     int `yaml:"atr_period"`
	} `yaml:"indicators"`
	Stops struct {
		SLATRMult      float64 `yaml:"sl_atr_mult"`
		TargetATRMult  float64 `yaml:"target_atr_mult"`
		MaxHoldMinutes int     `yaml:"max_hold_minutes"`
	} `yaml:"stops"`
	Session struct {
		Timezone           string `yaml:"timezone"`
		EntryStart         string `yaml:"entry_start"`
		EntryEndNormal     string `yaml:"entry_end_normal"`
		EntryEndExpiry     string `yaml:"entry_end_expiry"`
		OpenExclusionStart string `yaml:"open_exclusion_start"`
		OpenExclusionEnd   string `yaml:"open_exclusion_end"`
		EODCutoff          string `yaml:"eod_cutoff"`
		ExpiryWeekday      string `yaml:"expiry_weekday"`
	} `yaml:"session"`
	Options struct {
		StrikeInterval  float64 `yaml:"strike_interval"`
		LotSize         int     `yaml:"lot_size"`
		Slippage        float64 `yaml:"slippage"`
		Volatility      float64 `yaml:"volatility"`
		TimeValueFactor float64 `yaml:"time_value_factor"`
	} `yaml:"options"`
	Feed struct {
		Source          string `yaml:"source"` // KITE or REPLAY
		InstrumentToken int    `yaml:"instrument_token"`
		From            string `yaml:"from"` // YYYY-MM-DD
		To              string `yaml:"to"`
	} `yaml:"feed"`
}

var weekdays = map[string]time.Weekday{
	"SUNDAY": time.Sunday, "MONDAY": time.Monday, "TUESDAY": time.Tuesday,
	"WEDNESDAY": time.Wednesday, "THURSDAY": time.Thursday,
	"FRIDAY": time.Friday, "SATURDAY": time.Saturday,
}

func (c *Config) Validate() error {
	if c.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive, got %.2f", c.Account.Capital)
	}
	if c.Account.RiskPerTrade <= 0 || c.Account.RiskPerTrade > 1 {
		return fmt.Errorf("account.risk_per_trade must be in (0,1], got %.4f", c.Account.RiskPerTrade)
	}
	if c.Risk.MaxDailyTrades <= 0 {
		return fmt.Errorf("risk.max_daily_trades must be positive, got %d", c.Risk.MaxDailyTrades)
	}
	if c.Risk.MaxDailyLossR <= 0 {
		return fmt.Errorf("risk.max_daily_loss_r must be positive, got %.2f", c.Risk.MaxDailyLossR)
	}
	if c.Risk.MaxOpenPositions <= 0 {
		return fmt.Errorf("risk.max_open_positions must be positive, got %d", c.Risk.MaxOpenPositions)
	}
	for name, p := range map[string]int{
		"indicators.ema_fast_period": c.Indicators.EMAFastPeriod,
		"indicators.ema_slow_period": c.Indicators.EMASlowPeriod,
		"indicators.dema_period":     c.Indicators.DEMAPeriod,
		"indicators.atr_period":      c.Indicators.ATRPeriod,
	} {
		if p <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, p)
		}
	}
	if c.Indicators.EMAFastPeriod >= c.Indicators.EMASlowPeriod {
		return fmt.Errorf("ema_fast_period (%d) must be shorter than ema_slow_period (%d)",
			c.Indicators.EMAFastPeriod, c.Indicators.EMASlowPeriod)
	}
	if c.Stops.SLATRMult <= 0 || c.Stops.TargetATRMult <= 0 {
		return fmt.Errorf("stops.sl_atr_mult and stops.target_atr_mult must be positive")
	}
	if c.Stops.MaxHoldMinutes <= 0 {
		return fmt.Errorf("stops.max_hold_minutes must be positive, got %d", c.Stops.MaxHoldMinutes)
	}
	if c.Options.StrikeInterval <= 0 {
		return fmt.Errorf("options.strike_interval must be positive, got %.2f", c.Options.StrikeInterval)
	}
	if c.Options.LotSize <= 0 {
		return fmt.Errorf("options.lot_size must be positive, got %d", c.Options.LotSize)
	}
	if c.Options.Slippage < 0 || c.Options.Slippage >= 1 {
		return fmt.Errorf("options.slippage must be in [0,1), got %.4f", c.Options.Slippage)
	}
	if c.Options.Volatility <= 0 {
		return fmt.Errorf("options.volatility must be positive, got %.4f", c.Options.Volatility)
	}
	if _, err := time.LoadLocation(c.Session.Timezone); err != nil {
		return fmt.Errorf("session.timezone %q: %w", c.Session.Timezone, err)
	}
	for name, v := range map[string]string{
		"session.entry_start":          c.Session.EntryStart,
		"session.entry_end_normal":     c.Session.EntryEndNormal,
		"session.entry_end_expiry":     c.Session.EntryEndExpiry,
		"session.open_exclusion_start": c.Session.OpenExclusionStart,
		"session.open_exclusion_end":   c.Session.OpenExclusionEnd,
		"session.eod_cutoff":           c.Session.EODCutoff,
	} {
		if _, err := ParseMinuteOfDay(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if _, ok := weekdays[strings.ToUpper(c.Session.ExpiryWeekday)]; !ok {
		return fmt.Errorf("session.expiry_weekday %q is not a weekday name", c.Session.ExpiryWeekday)
	}
	return nil
}

// ExpiryWeekday returns the parsed expiry weekday. Call after Validate.
func (c *Config) ExpiryWeekday() time.Weekday {
	return weekdays[strings.ToUpper(c.Session.ExpiryWeekday)]
}

// ParseMinuteOfDay converts "HH:MM" to minutes since midnight.
func ParseMinuteOfDay(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return h*60 + m, nil
}

func applyDefaults(c *Config) {
	if c.Account.Capital == 0 {
		c.Account.Capital = 100000
	}
	if c.Account.RiskPerTrade == 0 {
		c.Account.RiskPerTrade = 0.01
	}
	if c.Risk.MaxDailyTrades == 0 {
		c.Risk.MaxDailyTrades = 2
	}
	if c.Risk.MaxDailyLossR == 0 {
		c.Risk.MaxDailyLossR = 1.0
	}
	if c.Risk.MaxOpenPositions == 0 {
		c.Risk.MaxOpenPositions = 1
	}
	if c.Indicators.EMAFastPeriod == 0 {
		c.Indicators.EMAFastPeriod = 10
	}
	if c.Indicators.EMASlowPeriod == 0 {
		c.Indicators.EMASlowPeriod = 20
	}
	if c.Indicators.DEMAPeriod == 0 {
		c.Indicators.DEMAPeriod = 100
	}
	if c.Indicators.ATRPeriod == 0 {
		c.Indicators.ATRPeriod = 14
	}
	if c.Stops.SLATRMult == 0 {
		c.Stops.SLATRMult = 0.8
	}
	if c.Stops.TargetATRMult == 0 {
		c.Stops.TargetATRMult = 1.6
	}
	if c.Stops.MaxHoldMinutes == 0 {
		c.Stops.MaxHoldMinutes = 30
	}
	if c.Session.Timezone == "" {
		c.Session.Timezone = "Asia/Kolkata"
	}
	if c.Session.EntryStart == "" {
		c.Session.EntryStart = "09:30"
	}
	if c.Session.EntryEndNormal == "" {
		c.Session.EntryEndNormal = "14:45"
	}
	if c.Session.EntryEndExpiry == "" {
		c.Session.EntryEndExpiry = "15:00"
	}
	if c.Session.OpenExclusionStart == "" {
		c.Session.OpenExclusionStart = "09:15"
	}
	if c.Session.OpenExclusionEnd == "" {
		c.Session.OpenExclusionEnd = "09:30"
	}
	if c.Session.EODCutoff == "" {
		c.Session.EODCutoff = "15:15"
	}
	if c.Session.ExpiryWeekday == "" {
		c.Session.ExpiryWeekday = "THURSDAY"
	}
	if c.Options.StrikeInterval == 0 {
		c.Options.StrikeInterval = 50
	}
	if c.Options.LotSize == 0 {
		c.Options.LotSize = 25
	}
	if c.Options.Slippage == 0 {
		c.Options.Slippage = 0.001
	}
	if c.Options.Volatility == 0 {
		c.Options.Volatility = 0.15
	}
	if c.Options.TimeValueFactor == 0 {
		c.Options.TimeValueFactor = 0.05
	}
	if c.Feed.Source == "" {
		c.Feed.Source = "REPLAY"
	}
}

// Default returns a validated config with all defaults applied.
func Default() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
