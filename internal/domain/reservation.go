package domain

import "time"

// Reservation is a soft hold on Count units of a ResourceType for a date
// range. Dates are calendar dates at UTC midnight. Invariant:
// ReservedFrom <= ReservedUntil.
//
// A reservation is fulfilled once at least one rental references it; that
// state is derived from the rentals relation and never stored. Fulfilled and
// canceled reservations no longer consume capacity.
type Reservation struct {
	ID             int64     `json:"id"`
	HolderID       int64     `json:"holder_id"`
	ResourceTypeID int64     `json:"resource_type_id"`
	ReservedAt     time.Time `json:"reserved_at"`
	ReservedFrom   time.Time `json:"reserved_from"`
	ReservedUntil  time.Time `json:"reserved_until"`
	Count          int       `json:"count"`
	// OperationNumber groups the reservations created in one submission.
	OperationNumber int64      `json:"operation_number"`
	CanceledAt      *time.Time `json:"canceled_at,omitempty"`
	// NotifiedAt records when the notifier last mailed about this
	// reservation. The engine ignores it.
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
}

// Active reports whether the reservation still counts: not canceled.
func (r *Reservation) Active() bool {
	return r.CanceledAt == nil
}

// ReservationCandidate is one entry of a bulk reservation submission.
type ReservationCandidate struct {
	ResourceTypeID int64     `json:"resource_type_id"`
	ReservedFrom   time.Time `json:"reserved_from"`
	ReservedUntil  time.Time `json:"reserved_until"`
	Count          int       `json:"count"`
}
