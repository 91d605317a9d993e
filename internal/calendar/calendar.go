package calendar

import (
	"fmt"
	"time"

	"lendhub-backend/internal/domain"
)

// Policy holds the fixed weekday rules of the lending desk: holds start on
// the handout weekday, end on the return weekday, and a returned unit is
// blocked for a turnaround period before its next handout. Policy is
// immutable and injected; nothing in the engine reads ambient settings.
type Policy struct {
	HandoutWeekday time.Weekday
	ReturnWeekday  time.Weekday
	Turnaround     time.Duration
}

// New builds a Policy from ISO weekday numbers (1 = Monday .. 7 = Sunday)
// and a turnaround in days, as they appear in the configuration.
func New(handoutISO, returnISO, turnaroundDays int) (Policy, error) {
	if handoutISO < 1 || handoutISO > 7 || returnISO < 1 || returnISO > 7 {
		return Policy{}, fmt.Errorf("weekdays must be ISO numbers 1-7, got handout=%d return=%d", handoutISO, returnISO)
	}
	if turnaroundDays < 0 {
		return Policy{}, fmt.Errorf("turnaround must not be negative, got %d", turnaroundDays)
	}
	return Policy{
		HandoutWeekday: time.Weekday(handoutISO % 7),
		ReturnWeekday:  time.Weekday(returnISO % 7),
		Turnaround:     time.Duration(turnaroundDays) * 24 * time.Hour,
	}, nil
}

// Date normalizes t to a calendar date: UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextHandout returns the first date on or after d that falls on the
// handout weekday.
func (p Policy) NextHandout(d time.Time) time.Time {
	d = Date(d)
	diff := (int(p.HandoutWeekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, diff)
}

// OccupiedUntil returns the exclusive end of the occupancy caused by a loan
// or hold due back on due: the unit is blocked through the turnaround and,
// because handouts only happen on the handout weekday, until the next
// handout day after that.
func (p Policy) OccupiedUntil(due time.Time) time.Time {
	return p.NextHandout(Date(due).Add(p.Turnaround))
}

// ValidateRange checks a reservation's date range against the weekday rules.
// The range must be strictly ordered, start on the handout weekday and end
// on the return weekday.
func (p Policy) ValidateRange(from, until time.Time) error {
	from, until = Date(from), Date(until)
	if !from.Before(until) {
		return domain.ErrInvalidRange
	}
	if from.Weekday() != p.HandoutWeekday {
		return domain.ErrInvalidHandoutDay
	}
	if until.Weekday() != p.ReturnWeekday {
		return domain.ErrInvalidReturnDay
	}
	return nil
}

// DaysBetween returns the whole days from a to b at date granularity.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)) / (24 * time.Hour))
}
