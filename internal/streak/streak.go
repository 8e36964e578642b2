// Package streak implements the daily practice streak state machine.
//
// Advance is a pure function of (state, today): no I/O, no clock reads.
// Callers persist the returned State themselves and are responsible for making
// the load/advance/save cycle atomic per user.
package streak

import "time"

// State is a user's streak as persisted between practice days.
// LastPracticeDate is nil until the first practiced day.
type State struct {
	CurrentStreak    int        `json:"current_streak"`
	MaxStreak        int        `json:"max_streak"`
	LastPracticeDate *time.Time `json:"last_practice_date"`
}

// Transition names the branch Advance takes.
type Transition string

const (
	Started   Transition = "started"   // no previous practice day
	Extended  Transition = "extended"  // practiced yesterday
	Reset     Transition = "reset"     // gap of two or more days
	Unchanged Transition = "unchanged" // already practiced today
	Skewed    Transition = "skewed"    // last practice date is after today
)

// DateOf truncates an instant to its calendar day in loc, returned as
// midnight UTC so dates compare with Equal regardless of zone.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Classify reports which transition Advance would apply.
func Classify(s State, today time.Time) Transition {
	if s.LastPracticeDate == nil {
		return Started
	}
	today = civil(today)
	last := civil(*s.LastPracticeDate)
	yesterday := today.AddDate(0, 0, -1)

	switch {
	case last.Equal(yesterday):
		return Extended
	case last.Before(yesterday):
		return Reset
	case last.Equal(today):
		return Unchanged
	default:
		return Skewed
	}
}

// Advance returns the state after practicing on today. Calling it again with
// the same day returns an identical state. A last practice date in the future
// leaves the state untouched.
func Advance(s State, today time.Time) State {
	today = civil(today)
	next := s

	switch Classify(s, today) {
	case Started:
		next.CurrentStreak = 1
		next.MaxStreak = max(s.MaxStreak, 1)
	case Extended:
		next.CurrentStreak = s.CurrentStreak + 1
		next.MaxStreak = max(s.MaxStreak, next.CurrentStreak)
	case Reset:
		next.CurrentStreak = 1
		next.MaxStreak = max(s.MaxStreak, 1)
	case Unchanged, Skewed:
		return s
	}

	next.LastPracticeDate = &today
	return next
}

// Zero is the state of a user who has never marked a practice day.
func Zero() State {
	return State{}
}
