package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *session {
	t.Helper()
	s, err := newSession(testConfig())
	require.NoError(t, err)
	return s
}

func TestSessionEntryWindow(t *testing.T) {
	s := newTestSession(t)

	tests := []struct {
		hour, min int
		day       int // offset from monday
		ok        bool
	}{
		{9, 15, 0, false}, // exclusion start
		{9, 29, 0, false}, // inside exclusion
		{9, 30, 0, true},  // window opens as exclusion ends
		{12, 0, 0, true},
		{14, 45, 0, true},  // normal-day close is inclusive
		{14, 46, 0, false},
		{9, 0, 0, false},   // before the session
		{15, 30, 0, false}, // after the session
		{14, 50, 3, true},  // expiry Thursday runs to 15:00
		{15, 0, 3, true},
		{15, 1, 3, false},
	}
	for _, tc := range tests {
		ts := at(monday.AddDate(0, 0, tc.day), tc.hour, tc.min)
		ok, why := s.entryTimeOK(ts)
		assert.Equal(t, tc.ok, ok, "%s: %s", ts, why)
		if !tc.ok {
			assert.NotEmpty(t, why)
		}
	}
}

func TestSessionEOD(t *testing.T) {
	s := newTestSession(t)
	assert.False(t, s.eodReached(at(monday, 15, 14)))
	assert.True(t, s.eodReached(at(monday, 15, 15)))
	assert.True(t, s.eodReached(at(monday, 15, 30)))
}

func TestSessionDaysToExpiry(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, 3.0, s.daysToExpiry(at(monday, 10, 0)))                  // Monday
	assert.Equal(t, 0.0, s.daysToExpiry(at(monday.AddDate(0, 0, 3), 10, 0))) // Thursday itself
	assert.Equal(t, 6.0, s.daysToExpiry(at(monday.AddDate(0, 0, 4), 10, 0))) // Friday rolls to next week
}

func TestSessionDayKey(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, "2024-01-15", s.dayKey(at(monday, 9, 15)))
	assert.Equal(t, "2024-01-16", s.dayKey(at(monday.AddDate(0, 0, 1), 9, 15)))
}
