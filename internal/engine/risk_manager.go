package engine

import (
	"fmt"

	"nifty-options-engine/internal/store"
	"nifty-options-engine/internal/types"
)

// riskManager owns the daily trade count, the daily R-multiple P&L and the
// kill-switch state machine (ARMED -> TRIPPED -> ARMED). It is the single
// writer of RiskState; nothing else aliases it.
type riskManager struct {
	state          types.RiskState
	maxDailyTrades int
	maxDailyLossR  float64
}

func newRiskManager(cfg *store.Config) *riskManager {
	return &riskManager{
		maxDailyTrades: cfg.Risk.MaxDailyTrades,
		maxDailyLossR:  cfg.Risk.MaxDailyLossR,
	}
}

// gateReasons returns one reason per failed risk gate, empty when entry is
// allowed.
func (rm *riskManager) gateReasons() []string {
	var reasons []string
	if rm.state.KillSwitchActive {
		reasons = append(reasons, fmt.Sprintf("kill switch active: %s", rm.state.KillSwitchReason))
	}
	if rm.state.TradesToday >= rm.maxDailyTrades {
		reasons = append(reasons, fmt.Sprintf("daily trade limit reached (%d/%d)", rm.state.TradesToday, rm.maxDailyTrades))
	}
	if rm.state.DailyPnLR <= -rm.maxDailyLossR {
		reasons = append(reasons, fmt.Sprintf("daily loss limit reached (%.2fR <= -%.2fR)", rm.state.DailyPnLR, rm.maxDailyLossR))
	}
	return reasons
}

// reserveEntry consumes one trade slot. Called exactly once per accepted
// entry; no exit path ever calls it.
func (rm *riskManager) reserveEntry() {
	rm.state.TradesToday++
}

// recordExit books a realized R result and trips the kill switch when the
// daily loss threshold is breached. Returns whether this exit tripped it.
func (rm *riskManager) recordExit(pnlR float64) (tripped bool, reason string) {
	rm.state.DailyPnLR += pnlR
	if rm.state.KillSwitchActive {
		return false, ""
	}
	if rm.state.DailyPnLR <= -rm.maxDailyLossR {
		reason = fmt.Sprintf("daily loss limit breached: %.2fR <= -%.2fR", rm.state.DailyPnLR, rm.maxDailyLossR)
		rm.state.KillSwitchActive = true
		rm.state.KillSwitchReason = reason
		return true, reason
	}
	return false, ""
}

// rollDay resets the per-day state at the first candle of a new trading day.
// The reset is unconditional and rearms a manually tripped kill switch too.
func (rm *riskManager) rollDay(day string) (wasTripped bool) {
	wasTripped = rm.state.KillSwitchActive
	rm.state = types.RiskState{TradingDay: day}
	return wasTripped
}

// activate trips the kill switch on administrative request. Idempotent.
func (rm *riskManager) activate(reason string) bool {
	if rm.state.KillSwitchActive {
		return false
	}
	rm.state.KillSwitchActive = true
	rm.state.KillSwitchReason = reason
	return true
}

// reset rearms the kill switch on administrative request. Idempotent.
func (rm *riskManager) reset() bool {
	if !rm.state.KillSwitchActive {
		return false
	}
	rm.state.KillSwitchActive = false
	rm.state.KillSwitchReason = ""
	return true
}

func (rm *riskManager) snapshot() types.RiskState { return rm.state }
