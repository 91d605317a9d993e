package service

import (
	"context"
	"time"

	"lendhub-backend/internal/availability"
	"lendhub-backend/internal/calendar"
	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type availabilityService struct {
	store       repository.Store
	engine      *availability.Engine
	cal         calendar.Policy
	defaultDays int
}

func NewAvailabilityService(store repository.Store, cal calendar.Policy, defaultMaxDurationDays int) AvailabilityService {
	return &availabilityService{
		store:       store,
		engine:      availability.NewEngine(cal),
		cal:         cal,
		defaultDays: defaultMaxDurationDays,
	}
}

func (s *availabilityService) Available(ctx context.Context, typeID int64, from, until time.Time) (*availability.Report, error) {
	snap, err := loadSnapshot(ctx, s.store, s.cal, typeID, from, until)
	if err != nil {
		return nil, err
	}
	return s.engine.Available(snap, from, until)
}

// loadSnapshot fetches the engine's inputs for one resource type. The
// reservation fetch window is widened backwards because turnaround and
// handout-day alignment let an occupancy reach past its reserved_until; a
// reservation that ended shortly before the window can still consume capacity
// inside it. The engine re-checks exact overlap, so over-fetching is safe.
func loadSnapshot(ctx context.Context, store repository.Store, cal calendar.Policy, typeID int64, from, until time.Time) (availability.Snapshot, error) {
	if _, err := store.Catalog().GetResourceType(ctx, typeID); err != nil {
		return availability.Snapshot{}, err
	}

	units, err := store.Catalog().ListUnitsByType(ctx, typeID)
	if err != nil {
		return availability.Snapshot{}, err
	}
	blackouts, err := store.Catalog().ListStatusWindowsByType(ctx, typeID)
	if err != nil {
		return availability.Snapshot{}, err
	}

	lookback := int(cal.Turnaround/(24*time.Hour)) + 7
	reservations, err := store.Reservations().ListConsuming(ctx, typeID, calendar.Date(from).AddDate(0, 0, -lookback), calendar.Date(until))
	if err != nil {
		return availability.Snapshot{}, err
	}
	loans, err := store.Rentals().ListOpenLoansByType(ctx, typeID, calendar.Date(until))
	if err != nil {
		return availability.Snapshot{}, err
	}

	return availability.Snapshot{
		Units:        units,
		Blackouts:    blackouts,
		Reservations: reservations,
		Loans:        loans,
	}, nil
}

func (s *availabilityService) MaxRentDuration(ctx context.Context, typeID int64, tierPrio int) (int, error) {
	policies, err := s.store.Policies().ListDurationPoliciesByType(ctx, typeID)
	if err != nil {
		return 0, err
	}
	return maxRentDuration(policies, tierPrio, s.defaultDays), nil
}

func (s *availabilityService) FreeUnits(ctx context.Context, typeID int64, on time.Time) ([]domain.Unit, error) {
	if _, err := s.store.Catalog().GetResourceType(ctx, typeID); err != nil {
		return nil, err
	}
	return s.store.Rentals().FreeUnits(ctx, typeID, calendar.Date(on))
}
