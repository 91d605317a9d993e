package repository

import (
	"context"
	"time"

	"lendhub-backend/internal/domain"
)

type CatalogRepository interface {
	CreateResourceType(ctx context.Context, rt *domain.ResourceType) error
	GetResourceType(ctx context.Context, id int64) (*domain.ResourceType, error)
	ListResourceTypes(ctx context.Context, visibleOnly bool) ([]domain.ResourceType, error)
	UpdateResourceType(ctx context.Context, rt *domain.ResourceType) error
	DeleteResourceType(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, c *domain.Category) error
	ListCategories(ctx context.Context) ([]domain.Category, error)

	CreateUnit(ctx context.Context, u *domain.Unit) error
	GetUnit(ctx context.Context, id int64) (*domain.Unit, error)
	ListUnitsByType(ctx context.Context, typeID int64) ([]domain.Unit, error)
	UpdateUnit(ctx context.Context, u *domain.Unit) error
	DeleteUnit(ctx context.Context, id int64) error

	CreateStatusWindow(ctx context.Context, w *domain.StatusWindow) error
	ListStatusWindowsByType(ctx context.Context, typeID int64) ([]domain.StatusWindow, error)
	DeleteStatusWindow(ctx context.Context, id int64) error
}

type PolicyRepository interface {
	ListTiers(ctx context.Context) ([]domain.PriorityTier, error)
	GetTier(ctx context.Context, id int64) (*domain.PriorityTier, error)
	// ListDurationPoliciesByType returns the type's policies joined with
	// their tier's prio, ordered by prio ascending.
	ListDurationPoliciesByType(ctx context.Context, typeID int64) ([]domain.DurationPolicy, error)
	UpsertDurationPolicy(ctx context.Context, p *domain.DurationPolicy) error
	DeleteDurationPolicy(ctx context.Context, id int64) error
}

type HolderRepository interface {
	Create(ctx context.Context, h *domain.Holder) error
	GetByID(ctx context.Context, id int64) (*domain.Holder, error)
	GetByEmail(ctx context.Context, email string) (*domain.Holder, error)
	Update(ctx context.Context, h *domain.Holder) error
}

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	// ListConsuming returns the type's non-canceled, unfulfilled
	// reservations overlapping [from, until], i.e. the ones that consume
	// capacity.
	ListConsuming(ctx context.Context, typeID int64, from, until time.Time) ([]domain.Reservation, error)
	// FindMergeTarget returns the holder's active, unfulfilled reservation
	// with the exact same type and date range, or nil when none exists.
	FindMergeTarget(ctx context.Context, holderID, typeID int64, from, until time.Time) (*domain.Reservation, error)
	AddCount(ctx context.Context, id int64, delta int) error
	MarkCanceled(ctx context.Context, id int64, at time.Time) error
	NextOperationNumber(ctx context.Context) (int64, error)
	ListByHolder(ctx context.Context, holderID int64, openOnly bool) ([]domain.Reservation, error)
	ListByOperationNumber(ctx context.Context, opNumber int64) ([]domain.Reservation, error)
	// ListStartingOn returns active, not yet notified reservations that
	// begin on the given date.
	ListStartingOn(ctx context.Context, date time.Time) ([]domain.Reservation, error)
	MarkNotified(ctx context.Context, ids []int64, at time.Time) error
}

type RentalRepository interface {
	Create(ctx context.Context, r *domain.Rental) error
	GetByID(ctx context.Context, id int64) (*domain.Rental, error)
	ListByReservation(ctx context.Context, reservationID int64) ([]domain.Rental, error)
	// ListOpenLoansByType returns handed-out, unreturned rentals of the
	// type's units handed out on or before until, extensions folded into
	// the due date.
	ListOpenLoansByType(ctx context.Context, typeID int64, until time.Time) ([]domain.OpenLoan, error)
	// DeletePendingExcept removes the reservation's not-yet-handed-out
	// rentals whose unit is not in keepUnitIDs. An empty keep list removes
	// all pending rentals.
	DeletePendingExcept(ctx context.Context, reservationID int64, keepUnitIDs []int64) error
	CountByReservation(ctx context.Context, reservationID int64) (int, error)
	MarkHandedOut(ctx context.Context, reservationID int64, lenderID int64, at time.Time) error
	// ListOpenByIDs returns the open (handed out, unreturned) rentals among
	// ids.
	ListOpenByIDs(ctx context.Context, ids []int64) ([]domain.Rental, error)
	MarkReturned(ctx context.Context, ids []int64, processorID int64, at time.Time) error
	NextRentalNumber(ctx context.Context) (int64, error)
	AddExtension(ctx context.Context, e *domain.Extension) error
	ClearNotified(ctx context.Context, rentalID int64) error
	// ListOpenDueOn returns open rentals whose effective due date equals
	// the given date; notifiedOnly filters on the notified mark.
	ListOpenDueOn(ctx context.Context, date time.Time, notified bool) ([]domain.Rental, error)
	MarkNotified(ctx context.Context, ids []int64, at time.Time) error
	// FreeUnits returns the type's rentable units that have no open rental
	// and no active blackout on the given day.
	FreeUnits(ctx context.Context, typeID int64, on time.Time) ([]domain.Unit, error)
}

// Store bundles the repositories and provides transaction scope. ExecTx runs
// fn against a store bound to a single transaction with repeatable-read
// isolation; serialization failures are retried a bounded number of times
// and surface as domain.ErrConflict once exhausted.
type Store interface {
	Catalog() CatalogRepository
	Policies() PolicyRepository
	Holders() HolderRepository
	Reservations() ReservationRepository
	Rentals() RentalRepository

	ExecTx(ctx context.Context, fn func(Store) error) error
}
