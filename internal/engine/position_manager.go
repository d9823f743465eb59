package engine

import (
	"time"

	"nifty-options-engine/internal/types"
)

// openPosition pairs the immutable position snapshot with the last premium
// the simulator produced for it, kept as the conservative fallback price.
type openPosition struct {
	pos         types.Position
	lastPremium float64
}

// positionManager owns the bounded set of open positions (one under default
// config) and the append-only closed-trade log. Lifecycle: FLAT -> PENDING ->
// OPEN -> CLOSED; PENDING is transient inside a single candle cascade,
// between risk reservation and the simulated fill.
type positionManager struct {
	maxOpen int
	open    []*openPosition
	closed  []types.TradeRecord
	nextID  int
}

func newPositionManager(maxOpen int) *positionManager {
	return &positionManager{maxOpen: maxOpen, nextID: 1}
}

func (pm *positionManager) slotAvailable() bool {
	return len(pm.open) < pm.maxOpen
}

func (pm *positionManager) hasOpen() bool { return len(pm.open) > 0 }

// openNew registers a filled position and returns it with its assigned id.
func (pm *positionManager) openNew(pos types.Position) types.Position {
	pos.ID = pm.nextID
	pm.nextID++
	pm.open = append(pm.open, &openPosition{pos: pos, lastPremium: pos.EntryPrice})
	return pos
}

// openPositions returns a snapshot of the open set; closing during iteration
// is safe.
func (pm *positionManager) openPositions() []*openPosition {
	out := make([]*openPosition, len(pm.open))
	copy(out, pm.open)
	return out
}

func (pm *positionManager) isOpen(op *openPosition) bool {
	for _, o := range pm.open {
		if o == op {
			return true
		}
	}
	return false
}

// close destroys an open position, appending its record to the closed-trade
// log.
func (pm *positionManager) close(op *openPosition, rec types.TradeRecord) {
	for i, o := range pm.open {
		if o == op {
			pm.open = append(pm.open[:i], pm.open[i+1:]...)
			break
		}
	}
	pm.closed = append(pm.closed, rec)
}

func (pm *positionManager) closedTrades() []types.TradeRecord {
	out := make([]types.TradeRecord, len(pm.closed))
	copy(out, pm.closed)
	return out
}

// exitTrigger applies the exit conditions in their total priority order:
// kill-switch > stop-loss/target breach > time-based (EOD) > max-hold-time >
// opposite-crossover. The order makes exit attribution deterministic when
// several triggers coincide on one candle.
func exitTrigger(op *openPosition, premium float64, now time.Time, eod, opposite, killSwitch bool) (types.ExitReason, bool) {
	switch {
	case killSwitch:
		return types.ExitKillSwitch, true
	case premium <= op.pos.StopLoss:
		return types.ExitStopLoss, true
	case premium >= op.pos.Target:
		return types.ExitTarget, true
	case eod:
		return types.ExitEOD, true
	case !now.Before(op.pos.MaxHoldUntil):
		return types.ExitMaxHold, true
	case opposite:
		return types.ExitOppositeCross, true
	}
	return "", false
}
