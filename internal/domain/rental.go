package domain

import "time"

// Rental is a loan of one specific unit against a reservation.
// Lifecycle: assigned (HandedOutAt nil) -> handed out -> returned
// (ReceivedBackAt set). Invariant: HandedOutAt <= ReceivedBackAt when both
// are set, and the unit's type equals the reservation's type.
type Rental struct {
	ID            int64 `json:"id"`
	UnitID        int64 `json:"unit_id"`
	ReservationID int64 `json:"reservation_id"`
	// RentalNumber groups rentals created in one assignment batch.
	RentalNumber      int64      `json:"rental_number"`
	LenderID          *int64     `json:"lender_id,omitempty"`
	ReturnProcessorID *int64     `json:"return_processor_id,omitempty"`
	HandedOutAt       *time.Time `json:"handed_out_at,omitempty"`
	ReceivedBackAt    *time.Time `json:"received_back_at,omitempty"`
	NotifiedAt        *time.Time `json:"notified_at,omitempty"`

	// Extensions are loaded with the rental, newest last.
	Extensions []Extension `json:"extensions,omitempty"`
}

// Open reports whether the unit is out and not yet back.
func (r *Rental) Open() bool {
	return r.HandedOutAt != nil && r.ReceivedBackAt == nil
}

// EffectiveDueDate is the latest extension end, or the reservation's
// reserved_until when no extension exists.
func (r *Rental) EffectiveDueDate(reservedUntil time.Time) time.Time {
	due := reservedUntil
	for _, e := range r.Extensions {
		if e.ExtendedUntil.After(due) {
			due = e.ExtendedUntil
		}
	}
	return due
}

// Extension prolongs a rental. Extensions are append-only; the current due
// date is always the max ExtendedUntil across a rental's extensions.
type Extension struct {
	ID            int64     `json:"id"`
	RentalID      int64     `json:"rental_id"`
	ExtendedFrom  time.Time `json:"extended_from"`
	ExtendedUntil time.Time `json:"extended_until"`
	ExtendedAt    time.Time `json:"extended_at"`
	ExtendedByID  int64     `json:"extended_by_id"`
}

// OpenLoan is the availability engine's view of a handed-out rental: the
// occupied unit and the effective due date with extensions folded in.
type OpenLoan struct {
	RentalID    int64
	UnitID      int64
	HandedOutAt time.Time
	DueDate     time.Time
}
