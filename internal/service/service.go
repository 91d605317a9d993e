package service

import (
	"context"
	"time"

	"lendhub-backend/internal/availability"
	"lendhub-backend/internal/domain"
)

type AuthService interface {
	Signup(ctx context.Context, email, firstName, lastName, password string) (*domain.Holder, error)
	Login(ctx context.Context, email, password string) (string, string, error) // access, refresh
	RefreshToken(ctx context.Context, refresh string) (string, error)
	GetHolder(ctx context.Context, holderID int64) (*domain.Holder, error)
	VerifyHolder(ctx context.Context, holderID int64) error
}

type CatalogService interface {
	CreateCategory(ctx context.Context, c *domain.Category) error
	ListCategories(ctx context.Context) ([]domain.Category, error)

	CreateResourceType(ctx context.Context, rt *domain.ResourceType) error
	GetResourceType(ctx context.Context, id int64) (*domain.ResourceType, error)
	ListResourceTypes(ctx context.Context, visibleOnly bool) ([]domain.ResourceType, error)
	UpdateResourceType(ctx context.Context, rt *domain.ResourceType) error
	DeleteResourceType(ctx context.Context, id int64) error

	CreateUnit(ctx context.Context, u *domain.Unit) error
	ListUnitsByType(ctx context.Context, typeID int64) ([]domain.Unit, error)
	UpdateUnit(ctx context.Context, u *domain.Unit) error
	DeleteUnit(ctx context.Context, id int64) error

	CreateStatusWindow(ctx context.Context, w *domain.StatusWindow) error
	ListStatusWindowsByType(ctx context.Context, typeID int64) ([]domain.StatusWindow, error)
	DeleteStatusWindow(ctx context.Context, id int64) error

	ListTiers(ctx context.Context) ([]domain.PriorityTier, error)
	ListDurationPolicies(ctx context.Context, typeID int64) ([]domain.DurationPolicy, error)
	UpsertDurationPolicy(ctx context.Context, p *domain.DurationPolicy) error
	DeleteDurationPolicy(ctx context.Context, id int64) error
}

type AvailabilityService interface {
	Available(ctx context.Context, typeID int64, from, until time.Time) (*availability.Report, error)
	// MaxRentDuration resolves the duration cap in days for a holder of the
	// given tier prio renting the given type.
	MaxRentDuration(ctx context.Context, typeID int64, tierPrio int) (int, error)
	FreeUnits(ctx context.Context, typeID int64, on time.Time) ([]domain.Unit, error)
}

type ReservationService interface {
	// CreateBatch validates and books all candidates atomically under one
	// operation number. Either every candidate fits or nothing is written.
	CreateBatch(ctx context.Context, holderID int64, candidates []domain.ReservationCandidate) ([]domain.Reservation, error)
	Cancel(ctx context.Context, actorID, reservationID int64) error
	GetReservation(ctx context.Context, id int64) (*domain.Reservation, error)
	ListByHolder(ctx context.Context, holderID int64, openOnly bool) ([]domain.Reservation, error)
	ListByOperationNumber(ctx context.Context, opNumber int64) ([]domain.Reservation, error)
}

type RentalService interface {
	// AssignUnits reconciles the reservation's pending rentals to exactly the
	// given units, keeping the shared rental number stable.
	AssignUnits(ctx context.Context, reservationID int64, unitIDs []int64) ([]domain.Rental, error)
	// HandOut marks all assigned rentals of the reservation as handed out.
	// The assigned count must equal the reserved count.
	HandOut(ctx context.Context, lenderID, reservationID int64) error
	// Return marks the given rentals as received back. Every id must refer to
	// an open rental or the whole batch fails.
	Return(ctx context.Context, processorID int64, rentalIDs []int64) error
	// Extend prolongs the rental by one extension step from its current due
	// date. Ordinary holders may extend their own rentals within a narrow
	// window around the due date, staff within a wider one.
	Extend(ctx context.Context, actorID, rentalID int64) (*domain.Extension, error)
	GetRental(ctx context.Context, id int64) (*domain.Rental, error)
	ListByReservation(ctx context.Context, reservationID int64) ([]domain.Rental, error)
}

type EmailService interface {
	// Scheduled reminders, sent by the notifier jobs.
	SendReservationReminder(ctx context.Context, email, name, typeName string, from, until time.Time, count int) error
	SendDueReminder(ctx context.Context, email, name, unitLabel string, due time.Time) error
	SendMissingReturnNotice(ctx context.Context, email, name, unitLabel string, due time.Time) error

	// Lifecycle mails, sent by the reservation and rental services right
	// after a successful commit. Failures are logged, never surfaced.
	SendReservationConfirmation(ctx context.Context, email, name, typeName string, from, until time.Time, count int) error
	SendCancellationNotice(ctx context.Context, email, name, typeName string, from, until time.Time) error
	SendHandoutReceipt(ctx context.Context, email, name, typeName string, count int, due time.Time) error
	SendExtensionConfirmation(ctx context.Context, email, name, unitLabel string, due time.Time) error
}
