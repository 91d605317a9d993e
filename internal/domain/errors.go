package domain

import "errors"

// Validation and lifecycle failures returned by the services. Handlers map
// them to HTTP status codes, callers test with errors.Is.
var (
	ErrInvalidRange         = errors.New("reserved_from must be before reserved_until")
	ErrInvalidHandoutDay    = errors.New("reservation does not start on a handout day")
	ErrInvalidReturnDay     = errors.New("reservation does not end on a return day")
	ErrDurationExceeded     = errors.New("requested duration exceeds the maximum rent duration")
	ErrInsufficientCapacity = errors.New("not enough units available in the requested period")
	ErrTypeMismatch         = errors.New("unit type does not match the reservation type")
	ErrAlreadyCanceled      = errors.New("reservation is already canceled")
	ErrForbidden            = errors.New("not allowed")
	ErrNotExtendable        = errors.New("rental cannot be extended")
	ErrOutOfWindow          = errors.New("extension requested outside the permitted window")
	ErrCountMismatch        = errors.New("assigned unit count does not match the reserved count")
	ErrNotFound             = errors.New("not found")

	// ErrConflict is returned when a concurrent writer invalidated this
	// operation (serialization failure or unique violation). Safe to retry.
	ErrConflict = errors.New("conflicting concurrent update")
)
