package engine

import (
	"fmt"
	"time"

	"nifty-options-engine/internal/types"
)

// ruleEvaluator combines the crossover, trend-alignment, time and risk gates
// into one accept/reject decision. It holds no state across evaluations and
// never mutates positions or risk state; the engine acts on the decision.
type ruleEvaluator struct {
	sess      *session
	risk      *riskManager
	positions *positionManager
}

// evaluate runs every gate and records every result, even after an earlier
// gate has failed, so a rejection carries one reason per failed gate.
func (re *ruleEvaluator) evaluate(at time.Time, sig *types.Signal, bias types.Bias, warm bool) types.FilterResult {
	fr := types.FilterResult{At: at}

	// Gate 1: crossover confirmed.
	switch {
	case !warm:
		fr.Reasons = append(fr.Reasons, "insufficient history: indicators warming up")
	case sig == nil:
		fr.Reasons = append(fr.Reasons, "no crossover on this candle")
	default:
		fr.CrossoverConfirmed = true
		fr.Direction = sig.Direction
	}

	// Gate 2: trend alignment. Only meaningful given a signal; its failure
	// reason names both sides.
	if sig != nil {
		want := types.BiasBullish
		if sig.Direction == types.DirectionDown {
			want = types.BiasBearish
		}
		if bias == want {
			fr.TrendAligned = true
		} else {
			fr.Reasons = append(fr.Reasons, fmt.Sprintf("trend not aligned: %s signal with %s bias", sig.Direction, bias))
		}
	}

	// Gate 3: time filter.
	if ok, why := re.sess.entryTimeOK(at); ok {
		fr.TimeOK = true
	} else {
		fr.Reasons = append(fr.Reasons, why)
	}

	// Gate 4: risk gates, including the position slot.
	riskReasons := re.risk.gateReasons()
	if !re.positions.slotAvailable() {
		riskReasons = append(riskReasons, "position slot in use")
	}
	if len(riskReasons) == 0 {
		fr.RiskOK = true
	} else {
		fr.Reasons = append(fr.Reasons, riskReasons...)
	}

	fr.Accepted = fr.CrossoverConfirmed && fr.TrendAligned && fr.TimeOK && fr.RiskOK
	return fr
}
