package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-options-engine/internal/types"
)

func TestDetectCrossover(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, ist)

	tests := []struct {
		name string
		snap fiveSnapshot
		want types.Direction
		none bool
	}{
		{
			name: "up cross",
			snap: fiveSnapshot{prevFast: 99, prevSlow: 100, currFast: 101, currSlow: 100.5, pairReady: true},
			want: types.DirectionUp,
		},
		{
			name: "down cross",
			snap: fiveSnapshot{prevFast: 101, prevSlow: 100, currFast: 99, currSlow: 99.5, pairReady: true},
			want: types.DirectionDown,
		},
		{
			name: "touch without cross produces nothing",
			snap: fiveSnapshot{prevFast: 99, prevSlow: 100, currFast: 100, currSlow: 100, pairReady: true},
			none: true,
		},
		{
			name: "prior equality produces nothing",
			snap: fiveSnapshot{prevFast: 100, prevSlow: 100, currFast: 101, currSlow: 100, pairReady: true},
			none: true,
		},
		{
			name: "still on same side",
			snap: fiveSnapshot{prevFast: 101, prevSlow: 100, currFast: 102, currSlow: 100.5, pairReady: true},
			none: true,
		},
		{
			name: "warming up",
			snap: fiveSnapshot{prevFast: 99, prevSlow: 100, currFast: 101, currSlow: 100, pairReady: false},
			none: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig := detectCrossover(tc.snap, at)
			if tc.none {
				assert.Nil(t, sig)
				return
			}
			require.NotNil(t, sig)
			assert.Equal(t, tc.want, sig.Direction)
			assert.Equal(t, at, sig.At)
			assert.Equal(t, tc.snap.currFast, sig.EMAFast)
			assert.Equal(t, tc.snap.currSlow, sig.EMASlow)
		})
	}
}

func TestOpposes(t *testing.T) {
	assert.True(t, opposes(types.DirectionDown, types.OptionCall))
	assert.True(t, opposes(types.DirectionUp, types.OptionPut))
	assert.False(t, opposes(types.DirectionUp, types.OptionCall))
	assert.False(t, opposes(types.DirectionDown, types.OptionPut))
}

func TestDirectionToOption(t *testing.T) {
	assert.Equal(t, types.OptionCall, directionToOption(types.DirectionUp))
	assert.Equal(t, types.OptionPut, directionToOption(types.DirectionDown))
}
