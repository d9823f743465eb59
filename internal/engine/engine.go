package engine

import (
	"context"
	"fmt"
	"time"

	"nifty-options-engine/internal/logger"
	"nifty-options-engine/internal/store"
	"nifty-options-engine/internal/types"
)

// engine drives the full cascade for one closed candle at a time: day
// rollover, indicator update, exit evaluation, entry evaluation, virtual
// fills. It is single-timeline by construction; callers serialize delivery.
type engine struct {
	cfg       *store.Config
	sess      *session
	ind       *indicatorTracker
	rules     *ruleEvaluator
	risk      *riskManager
	positions *positionManager
	sim       *execSimulator

	bias      types.Bias
	lastStart map[types.Timeframe]time.Time
	lastSpot  float64
	lastTime  time.Time
}

func newEngine(cfg *store.Config) (*engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	sess, err := newSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	e := &engine{
		cfg:       cfg,
		sess:      sess,
		ind:       newIndicatorTracker(cfg),
		risk:      newRiskManager(cfg),
		positions: newPositionManager(cfg.Risk.MaxOpenPositions),
		sim:       newExecSimulator(cfg),
		bias:      types.BiasNeutral,
		lastStart: make(map[types.Timeframe]time.Time),
	}
	e.rules = &ruleEvaluator{sess: sess, risk: e.risk, positions: e.positions}
	return e, nil
}

// FeedCandle processes one closed candle and returns the events it produced,
// in deterministic order. A contract-breaching candle is rejected without
// mutating any state.
func (e *engine) FeedCandle(ctx context.Context, c types.Candle) ([]types.Event, error) {
	if c.Timeframe != types.TF5m && c.Timeframe != types.TF15m {
		return nil, &InvalidCandleError{Timeframe: c.Timeframe, Start: c.Start, Detail: "unknown timeframe"}
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return nil, &InvalidCandleError{Timeframe: c.Timeframe, Start: c.Start, Detail: "non-positive price"}
	}
	if last, ok := e.lastStart[c.Timeframe]; ok && !c.Start.After(last) {
		return nil, &StaleCandleError{Timeframe: c.Timeframe, Last: last, Got: c.Start}
	}

	var events []types.Event

	// Day rollover resets the risk state exactly once per new trading day,
	// regardless of how the kill switch was tripped.
	day := e.sess.dayKey(c.Start)
	if e.risk.snapshot().TradingDay != day {
		if e.risk.rollDay(day) {
			events = append(events, types.Event{Type: types.EventKillSwitchReset, At: c.Start})
			logger.Risk(ctx, "KILL_SWITCH_RESET", "trigger", "new_trading_day", "day", day)
		}
	}

	e.lastStart[c.Timeframe] = c.Start
	e.lastTime = c.End()

	if c.Timeframe == types.TF15m {
		snap := e.ind.update15m(c)
		e.bias = resolveBias(c.Close, snap)
		logger.Debug(ctx, "15m candle processed",
			"close", c.Close, "dema", snap.dema, "dema_ready", snap.demaReady,
			"slope", snap.slope, "slope_ready", snap.slopeReady, "bias", string(e.bias))
		return events, nil
	}

	snap := e.ind.update5m(c)
	e.lastSpot = c.Close
	now := c.End()
	sig := detectCrossover(snap, now)

	events = append(events, e.evaluateExits(ctx, now, c.Close, sig)...)

	warm := snap.pairReady && snap.atrReady
	fr := e.rules.evaluate(now, sig, e.bias, warm)
	events = append(events, types.Event{Type: types.EventSignalEvaluated, At: now, Filter: &fr})
	if sig != nil {
		logger.Signal(ctx, string(sig.Direction), fr.Accepted, fr.Reasons,
			"spot", c.Close, "bias", string(e.bias))
	}

	if fr.Accepted {
		if ev, ok := e.openPosition(ctx, now, c.Close, sig, snap); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

// evaluateExits closes any open position whose highest-priority exit trigger
// fired on this candle. A realized loss that breaches the daily limit trips
// the kill switch and force-closes whatever remains open.
func (e *engine) evaluateExits(ctx context.Context, now time.Time, spot float64, sig *types.Signal) []types.Event {
	var events []types.Event
	eod := e.sess.eodReached(now)
	dte := e.sess.daysToExpiry(now)

	for _, op := range e.positions.openPositions() {
		// A kill-switch trip earlier in this loop may have force-closed it.
		if !e.positions.isOpen(op) {
			continue
		}
		premium, err := e.sim.exitPrice(spot, op.pos.Strike, op.pos.Direction, dte)
		if err != nil {
			// A stuck open position is worse than an approximate exit price:
			// close at the last known premium instead of carrying it.
			logger.ErrorWithErr(ctx, "Exit pricing failed, closing at last known premium", err,
				"position_id", op.pos.ID, "last_premium", op.lastPremium)
			events = append(events, e.closePosition(ctx, op, now, spot, op.lastPremium, types.ExitPricingFailure)...)
			continue
		}
		op.lastPremium = premium

		opposite := sig != nil && opposes(sig.Direction, op.pos.Direction)
		reason, fired := exitTrigger(op, premium, now, eod, opposite, e.risk.snapshot().KillSwitchActive)
		if !fired {
			continue
		}
		events = append(events, e.closePosition(ctx, op, now, spot, premium, reason)...)
	}
	return events
}

// closePosition books the virtual sell fill, records the trade, updates the
// daily R total and cascades a kill-switch trip when the loss limit is hit.
func (e *engine) closePosition(ctx context.Context, op *openPosition, now time.Time, spot, premium float64, reason types.ExitReason) []types.Event {
	pnl, pnlR := e.sim.pnl(op.pos.EntryPrice, premium, op.pos.Lots)
	rec := types.TradeRecord{
		Position:   op.pos,
		ExitTime:   now,
		ExitSpot:   spot,
		ExitPrice:  premium,
		ExitReason: reason,
		PnL:        pnl,
		PnLR:       pnlR,
	}
	e.positions.close(op, rec)
	logger.Trade(ctx, "SELL", string(op.pos.Direction), op.pos.Strike, op.pos.Lots, premium,
		"exit_reason", string(reason), "pnl", pnl, "pnl_r", pnlR)

	events := []types.Event{{Type: types.EventPositionClosed, At: now, Trade: &rec}}
	if tripped, why := e.risk.recordExit(pnlR); tripped {
		logger.Risk(ctx, "KILL_SWITCH_TRIPPED", "reason", why)
		events = append(events, types.Event{Type: types.EventKillSwitchTripped, At: now, Reason: why})
		events = append(events, e.forceCloseAll(ctx, now, spot)...)
	}
	return events
}

// forceCloseAll closes every remaining open position at the best available
// price after a kill-switch trip.
func (e *engine) forceCloseAll(ctx context.Context, now time.Time, spot float64) []types.Event {
	var events []types.Event
	dte := e.sess.daysToExpiry(now)
	for _, op := range e.positions.openPositions() {
		premium, err := e.sim.exitPrice(spot, op.pos.Strike, op.pos.Direction, dte)
		if err != nil {
			premium = op.lastPremium
		}
		events = append(events, e.closePosition(ctx, op, now, spot, premium, types.ExitKillSwitch)...)
	}
	return events
}

// openPosition performs the accepted entry: one atomic risk reservation, the
// simulated buy fill, stop/target placement and sizing. The reported false
// return happens only when the simulator cannot price the entry, in which
// case no state was mutated.
func (e *engine) openPosition(ctx context.Context, now time.Time, spot float64, sig *types.Signal, snap fiveSnapshot) (types.Event, bool) {
	opt := directionToOption(sig.Direction)
	strike := e.sim.selectStrike(spot, opt)
	dte := e.sess.daysToExpiry(now)

	entry, err := e.sim.entryPrice(spot, strike, opt, dte)
	if err != nil {
		logger.ErrorWithErr(ctx, "Entry pricing failed, signal dropped", err,
			"direction", string(sig.Direction), "strike", strike)
		return types.Event{}, false
	}

	stopDistance := e.cfg.Stops.SLATRMult * snap.atr
	pos := types.Position{
		Direction:    opt,
		Strike:       strike,
		EntryTime:    now,
		EntrySpot:    spot,
		EntryPrice:   entry,
		StopLoss:     round2(entry - stopDistance),
		Target:       round2(entry + e.cfg.Stops.TargetATRMult*snap.atr),
		Lots:         e.sim.lots(stopDistance),
		MaxHoldUntil: now.Add(e.sess.maxHold),
	}

	e.risk.reserveEntry()
	pos = e.positions.openNew(pos)
	logger.Trade(ctx, "BUY", string(opt), strike, pos.Lots, entry,
		"stop_loss", pos.StopLoss, "target", pos.Target, "spot", spot)

	return types.Event{Type: types.EventPositionOpened, At: now, Position: &pos}, true
}

// ActivateKillSwitch trips the kill switch between candles and force-closes
// all open positions. Idempotent: a no-op when already tripped.
func (e *engine) ActivateKillSwitch(ctx context.Context, reason string) []types.Event {
	if !e.risk.activate(reason) {
		return nil
	}
	logger.Risk(ctx, "KILL_SWITCH_TRIPPED", "reason", reason, "trigger", "manual")
	events := []types.Event{{Type: types.EventKillSwitchTripped, At: e.lastTime, Reason: reason}}
	if e.lastSpot > 0 {
		events = append(events, e.forceCloseAll(ctx, e.lastTime, e.lastSpot)...)
	}
	return events
}

// ResetKillSwitch rearms the kill switch on administrative request.
// Idempotent: a no-op when already armed.
func (e *engine) ResetKillSwitch(ctx context.Context) []types.Event {
	if !e.risk.reset() {
		return nil
	}
	logger.Risk(ctx, "KILL_SWITCH_RESET", "trigger", "manual")
	return []types.Event{{Type: types.EventKillSwitchReset, At: e.lastTime}}
}

func (e *engine) RiskState() types.RiskState { return e.risk.snapshot() }

func (e *engine) ClosedTrades() []types.TradeRecord { return e.positions.closedTrades() }

// Bias returns the current higher-timeframe bias.
func (e *engine) Bias() types.Bias { return e.bias }
