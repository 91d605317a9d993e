package availability

import (
	"fmt"
	"time"

	"lendhub-backend/internal/calendar"
	"lendhub-backend/internal/domain"
)

// Snapshot is the consistent read the engine computes over. The caller (the
// availability service) fetches it from the store; the engine itself never
// touches storage and has no side effects.
type Snapshot struct {
	// Units are all units of the queried type.
	Units []domain.Unit
	// Blackouts are the non-rentable status windows of those units.
	Blackouts []domain.StatusWindow
	// Reservations are the type's active, unfulfilled reservations. The
	// engine re-checks overlap and the canceled mark, so over-fetching is
	// harmless.
	Reservations []domain.Reservation
	// Loans are handed-out, not yet returned rentals of the type's units,
	// with extensions folded into DueDate.
	Loans []domain.OpenLoan
}

// Report is the result of an availability query.
type Report struct {
	// PerDay maps each ISO date of the inclusive query window to the number
	// of free units on that day, clamped at zero.
	PerDay map[string]int `json:"per_day"`
	// Available is the free-unit count on the worst day of the window:
	// usable pool minus the maximum single-day consumption, clamped at zero.
	Available int `json:"available"`
	// TotalUsable is the size of the usable pool for this window.
	TotalUsable int `json:"total_usable"`
}

// Engine computes per-day free-unit counts for a resource type over a date
// window, folding in maintenance blackouts, live reservations, open loans
// and the calendar policy's turnaround rules.
type Engine struct {
	cal calendar.Policy
}

func NewEngine(cal calendar.Policy) *Engine {
	return &Engine{cal: cal}
}

// occupancy is one unit-weight consuming interval. The effective end is
// already pushed through turnaround and handout-day alignment, exclusive.
type occupancy struct {
	from  time.Time
	until time.Time
}

// Available computes the report for [from, until], both inclusive calendar
// dates. Dates with time-of-day are normalized to UTC midnight.
func (e *Engine) Available(snap Snapshot, from, until time.Time) (*Report, error) {
	from, until = calendar.Date(from), calendar.Date(until)
	if from.After(until) {
		return nil, fmt.Errorf("availability window: %w", domain.ErrInvalidRange)
	}

	usable := e.usablePool(snap, from, until)

	occ := make([]occupancy, 0, len(snap.Reservations)+len(snap.Loans))
	for i := range snap.Reservations {
		res := &snap.Reservations[i]
		if !res.Active() {
			continue
		}
		if calendar.Date(res.ReservedFrom).After(until) {
			continue
		}
		entry := occupancy{
			from:  calendar.Date(res.ReservedFrom),
			until: e.cal.OccupiedUntil(res.ReservedUntil),
		}
		if !entry.until.After(from) {
			// fully before the window even after turnaround widening
			continue
		}
		for n := 0; n < res.Count; n++ {
			occ = append(occ, entry)
		}
	}
	for _, loan := range snap.Loans {
		if _, ok := usable[loan.UnitID]; !ok {
			continue
		}
		if calendar.Date(loan.HandedOutAt).After(until) {
			continue
		}
		end := e.cal.OccupiedUntil(loan.DueDate)
		// A loan whose post-turnaround occupancy ended before the window
		// starts does not consume capacity.
		if !end.After(from) {
			continue
		}
		occ = append(occ, occupancy{from: calendar.Date(loan.HandedOutAt), until: end})
	}

	total := len(usable)
	perDay := make(map[string]int, calendar.DaysBetween(from, until)+1)
	maxConsumed := 0
	for d := from; !d.After(until); d = d.AddDate(0, 0, 1) {
		consumed := 0
		for _, o := range occ {
			if !o.from.After(d) && d.Before(o.until) {
				consumed++
			}
		}
		if consumed > maxConsumed {
			maxConsumed = consumed
		}
		perDay[d.Format(time.DateOnly)] = clamp(total - consumed)
	}

	return &Report{
		PerDay:      perDay,
		Available:   clamp(total - maxConsumed),
		TotalUsable: total,
	}, nil
}

// usablePool returns the units counted for this window: generally rentable
// and without any non-rentable status window overlapping [from, until]. A
// unit blacked out anywhere in the window is excluded for the whole window,
// not day-sliced.
func (e *Engine) usablePool(snap Snapshot, from, until time.Time) map[int64]struct{} {
	blocked := make(map[int64]struct{})
	for _, w := range snap.Blackouts {
		if !w.Rentable && w.Overlaps(from, until) {
			blocked[w.UnitID] = struct{}{}
		}
	}
	pool := make(map[int64]struct{}, len(snap.Units))
	for _, u := range snap.Units {
		if !u.Rentable {
			continue
		}
		if _, ok := blocked[u.ID]; ok {
			continue
		}
		pool[u.ID] = struct{}{}
	}
	return pool
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
