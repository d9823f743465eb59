package engine

import (
	"time"

	"nifty-options-engine/internal/types"
)

// detectCrossover compares consecutive 5m EMA pairs. Comparisons are strict:
// touching without crossing (either pair containing an equality) produces no
// signal.
func detectCrossover(snap fiveSnapshot, at time.Time) *types.Signal {
	if !snap.pairReady {
		return nil
	}
	var dir types.Direction
	switch {
	case snap.prevFast < snap.prevSlow && snap.currFast > snap.currSlow:
		dir = types.DirectionUp
	case snap.prevFast > snap.prevSlow && snap.currFast < snap.currSlow:
		dir = types.DirectionDown
	default:
		return nil
	}
	return &types.Signal{
		Direction: dir,
		At:        at,
		EMAFast:   snap.currFast,
		EMASlow:   snap.currSlow,
	}
}

// opposes reports whether a crossover direction is the exit trigger for an
// open option position.
func opposes(dir types.Direction, opt types.OptionType) bool {
	return (dir == types.DirectionDown && opt == types.OptionCall) ||
		(dir == types.DirectionUp && opt == types.OptionPut)
}

func directionToOption(dir types.Direction) types.OptionType {
	if dir == types.DirectionDown {
		return types.OptionPut
	}
	return types.OptionCall
}
