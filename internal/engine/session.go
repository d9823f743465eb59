package engine

import (
	"fmt"
	"time"

	"nifty-options-engine/internal/store"
)

// session holds the parsed trading-day clock: entry windows, the opening
// exclusion, the EOD cutoff and the weekly expiry anchor. All checks work on
// minutes-of-day in the exchange timezone.
type session struct {
	loc            *time.Location
	entryStart     int
	entryEndNormal int
	entryEndExpiry int
	exclStart      int
	exclEnd        int
	eodCutoff      int
	expiryWeekday  time.Weekday
	maxHold        time.Duration
}

func newSession(cfg *store.Config) (*session, error) {
	loc, err := time.LoadLocation(cfg.Session.Timezone)
	if err != nil {
		return nil, fmt.Errorf("session timezone: %w", err)
	}
	s := &session{
		loc:           loc,
		expiryWeekday: cfg.ExpiryWeekday(),
		maxHold:       time.Duration(cfg.Stops.MaxHoldMinutes) * time.Minute,
	}
	for dst, src := range map[*int]string{
		&s.entryStart:     cfg.Session.EntryStart,
		&s.entryEndNormal: cfg.Session.EntryEndNormal,
		&s.entryEndExpiry: cfg.Session.EntryEndExpiry,
		&s.exclStart:      cfg.Session.OpenExclusionStart,
		&s.exclEnd:        cfg.Session.OpenExclusionEnd,
		&s.eodCutoff:      cfg.Session.EODCutoff,
	} {
		v, err := store.ParseMinuteOfDay(src)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	return s, nil
}

func (s *session) minuteOfDay(t time.Time) int {
	lt := t.In(s.loc)
	return lt.Hour()*60 + lt.Minute()
}

// dayKey identifies the trading day a timestamp belongs to.
func (s *session) dayKey(t time.Time) string {
	return t.In(s.loc).Format("2006-01-02")
}

func (s *session) isExpiryDay(t time.Time) bool {
	return t.In(s.loc).Weekday() == s.expiryWeekday
}

// entryTimeOK checks the decision timestamp against the entry window for the
// day type and the opening exclusion window.
func (s *session) entryTimeOK(t time.Time) (bool, string) {
	m := s.minuteOfDay(t)
	if m >= s.exclStart && m < s.exclEnd {
		return false, fmt.Sprintf("inside opening exclusion window %s", windowString(s.exclStart, s.exclEnd))
	}
	end := s.entryEndNormal
	if s.isExpiryDay(t) {
		end = s.entryEndExpiry
	}
	if m < s.entryStart || m > end {
		return false, fmt.Sprintf("outside entry window %s", windowString(s.entryStart, end))
	}
	return true, ""
}

func (s *session) eodReached(t time.Time) bool {
	return s.minuteOfDay(t) >= s.eodCutoff
}

// daysToExpiry counts whole days from t to the next weekly expiry; zero on
// the expiry day itself.
func (s *session) daysToExpiry(t time.Time) float64 {
	wd := t.In(s.loc).Weekday()
	return float64((int(s.expiryWeekday) - int(wd) + 7) % 7)
}

func windowString(start, end int) string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", start/60, start%60, end/60, end%60)
}
