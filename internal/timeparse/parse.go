// Package timeparse turns human time entry into an absolute point in time.
//
// Recognized grammars, tried in this exact order:
//
//	HH:MM               today at that hour:minute:00
//	HH:MM:SS            today at that hour:minute:second (no date part)
//	YYYY-MM-DD HH:MM    explicit date, hyphen separators
//	DD.MM.YYYY HH:MM    explicit date, dot separators
//
// A failed grammar falls through to the next; if all fail the input is a
// user-entry validation failure, not a system fault.
package timeparse

import (
	"strconv"
	"strings"
	"time"
)

// Grammar identifies which entry format matched. Time-only grammars are
// subject to the next-day rollover rule in Upcoming.
type Grammar int

const (
	GrammarNone Grammar = iota
	GrammarClock
	GrammarClockSeconds
	GrammarDateISO
	GrammarDateDotted
)

// TimeOnly reports whether the grammar carries no explicit date.
func (g Grammar) TimeOnly() bool {
	return g == GrammarClock || g == GrammarClockSeconds
}

// Parse resolves text against the grammars above, in the local timezone.
// ok is false when no grammar matches or a component is out of range.
func Parse(text string) (t time.Time, g Grammar, ok bool) {
	return parseAt(text, time.Now())
}

// parseAt is Parse with an injectable "today" for tests.
func parseAt(text string, today time.Time) (time.Time, Grammar, bool) {
	s := strings.TrimSpace(text)

	switch parts := strings.Split(s, ":"); {
	case len(parts) == 2:
		if h, m, ok := clockFields(parts[0], parts[1], "0"); ok {
			y, mo, d := today.Date()
			return time.Date(y, mo, d, h, m, 0, 0, today.Location()), GrammarClock, true
		}
	case len(parts) == 3 && !strings.Contains(s, " "):
		if h, m, ok := clockFields(parts[0], parts[1], parts[2]); ok {
			sec, _ := strconv.Atoi(parts[2])
			y, mo, d := today.Date()
			return time.Date(y, mo, d, h, m, sec, 0, today.Location()), GrammarClockSeconds, true
		}
	}

	for _, f := range []struct {
		layout  string
		grammar Grammar
	}{
		{"2006-01-02 15:04", GrammarDateISO},
		{"02.01.2006 15:04", GrammarDateDotted},
	} {
		if t, err := time.ParseInLocation(f.layout, s, today.Location()); err == nil {
			return t, f.grammar, true
		}
	}

	return time.Time{}, GrammarNone, false
}

// clockFields validates hour/minute/second ranges explicitly: time.Date
// normalizes out-of-range values instead of rejecting them.
func clockFields(hh, mm, ss string) (hour, minute int, ok bool) {
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	s, err := strconv.Atoi(ss)
	if err != nil || s < 0 || s > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// Upcoming applies the time-only rollover rule: an entry without a date
// that is not strictly in the future (against corrected now) means the next
// occurrence of that time of day, i.e. tomorrow. Inputs with an explicit
// date are returned unchanged.
func Upcoming(t time.Time, g Grammar, now time.Time) time.Time {
	if g.TimeOnly() && !t.After(now) {
		return t.AddDate(0, 0, 1)
	}
	return t
}
