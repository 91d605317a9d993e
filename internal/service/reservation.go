package service

import (
	"context"
	"fmt"
	"time"

	"lendhub-backend/internal/availability"
	"lendhub-backend/internal/calendar"
	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/repository"
)

type reservationService struct {
	store       repository.Store
	engine      *availability.Engine
	cal         calendar.Policy
	defaultDays int
	mailer      EmailService
	now         func() time.Time
}

func NewReservationService(store repository.Store, cal calendar.Policy, defaultMaxDurationDays int, mailer EmailService, now func() time.Time) ReservationService {
	if now == nil {
		now = time.Now
	}
	return &reservationService{
		store:       store,
		engine:      availability.NewEngine(cal),
		cal:         cal,
		defaultDays: defaultMaxDurationDays,
		mailer:      mailer,
		now:         now,
	}
}

// durationGraceDays is the margin a requested range may run past the
// tier's maximum loan duration before it is rejected.
const durationGraceDays = 7

// batchKey collapses duplicate candidates of one submission.
type batchKey struct {
	typeID      int64
	from, until time.Time
}

func (s *reservationService) CreateBatch(ctx context.Context, holderID int64, candidates []domain.ReservationCandidate) ([]domain.Reservation, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: empty batch", domain.ErrInvalidRange)
	}

	holder, err := s.store.Holders().GetByID(ctx, holderID)
	if err != nil {
		return nil, err
	}

	merged, order := mergeCandidates(candidates)
	for _, key := range order {
		if merged[key] < 1 {
			return nil, fmt.Errorf("%w: count must be positive", domain.ErrInvalidRange)
		}
		if err := s.cal.ValidateRange(key.from, key.until); err != nil {
			return nil, err
		}
	}

	var out []domain.Reservation
	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		out = out[:0]

		// Capacity phase: every candidate is checked against a snapshot of
		// its own window before anything is written. Earlier candidates of
		// the batch count against later ones of the same type, so the whole
		// submission either fits or fails.
		booked := make(map[int64][]domain.Reservation)
		policies := make(map[int64][]domain.DurationPolicy)
		for _, key := range order {
			count := merged[key]

			pols, ok := policies[key.typeID]
			if !ok {
				var err error
				pols, err = tx.Policies().ListDurationPoliciesByType(ctx, key.typeID)
				if err != nil {
					return err
				}
				policies[key.typeID] = pols
			}
			maxDays := maxRentDuration(pols, holder.TierPrio, s.defaultDays)
			if calendar.DaysBetween(key.from, key.until) > maxDays+durationGraceDays {
				return fmt.Errorf("%w: %d days plus %d grace allowed for type %d", domain.ErrDurationExceeded, maxDays, durationGraceDays, key.typeID)
			}

			snap, err := loadSnapshot(ctx, tx, s.cal, key.typeID, key.from, key.until)
			if err != nil {
				return err
			}
			// The engine re-checks overlap, so entries from other windows in
			// the appended batch tail are harmless.
			snap.Reservations = append(snap.Reservations, booked[key.typeID]...)
			report, err := s.engine.Available(snap, key.from, key.until)
			if err != nil {
				return err
			}
			if report.Available < count {
				return fmt.Errorf("%w: type %d has %d free, %d requested", domain.ErrInsufficientCapacity, key.typeID, report.Available, count)
			}
			booked[key.typeID] = append(booked[key.typeID], domain.Reservation{
				ResourceTypeID: key.typeID,
				ReservedFrom:   key.from,
				ReservedUntil:  key.until,
				Count:          count,
			})
		}

		// Write phase.
		opNumber, err := tx.Reservations().NextOperationNumber(ctx)
		if err != nil {
			return err
		}
		for _, key := range order {
			count := merged[key]

			target, err := tx.Reservations().FindMergeTarget(ctx, holderID, key.typeID, key.from, key.until)
			if err != nil {
				return err
			}
			if target != nil {
				if err := tx.Reservations().AddCount(ctx, target.ID, count); err != nil {
					return err
				}
				target.Count += count
				out = append(out, *target)
				continue
			}

			res := domain.Reservation{
				HolderID:        holderID,
				ResourceTypeID:  key.typeID,
				ReservedAt:      s.now().UTC(),
				ReservedFrom:    key.from,
				ReservedUntil:   key.until,
				Count:           count,
				OperationNumber: opNumber,
			}
			if err := tx.Reservations().Create(ctx, &res); err != nil {
				return err
			}
			out = append(out, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("reservation batch created", "holder_id", holderID, "entries", len(out))
	s.sendConfirmations(ctx, holder, out)
	return out, nil
}

// sendConfirmations mails the holder one confirmation per booked entry. Mail
// failures only get logged; the booking stands either way.
func (s *reservationService) sendConfirmations(ctx context.Context, holder *domain.Holder, reservations []domain.Reservation) {
	for i := range reservations {
		res := &reservations[i]
		rt, err := s.store.Catalog().GetResourceType(ctx, res.ResourceTypeID)
		if err != nil {
			logger.Error("Failed to load resource type for confirmation", "reservation_id", res.ID, "error", err)
			continue
		}
		err = s.mailer.SendReservationConfirmation(ctx, holder.Email, holder.FirstName, rt.Name, res.ReservedFrom, res.ReservedUntil, res.Count)
		if err != nil {
			logger.Error("Failed to send reservation confirmation", "reservation_id", res.ID, "error", err)
		}
	}
}

// mergeCandidates folds duplicate (type, range) entries into one, keeping the
// first-seen order.
func mergeCandidates(candidates []domain.ReservationCandidate) (map[batchKey]int, []batchKey) {
	merged := make(map[batchKey]int, len(candidates))
	order := make([]batchKey, 0, len(candidates))
	for _, c := range candidates {
		key := batchKey{
			typeID: c.ResourceTypeID,
			from:   calendar.Date(c.ReservedFrom),
			until:  calendar.Date(c.ReservedUntil),
		}
		if _, seen := merged[key]; !seen {
			order = append(order, key)
		}
		merged[key] += c.Count
	}
	return merged, order
}

func (s *reservationService) Cancel(ctx context.Context, actorID, reservationID int64) error {
	actor, err := s.store.Holders().GetByID(ctx, actorID)
	if err != nil {
		return err
	}

	var res *domain.Reservation
	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		r, err := tx.Reservations().GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if !r.Active() {
			return domain.ErrAlreadyCanceled
		}
		if r.HolderID != actorID && !actor.Staff {
			return domain.ErrForbidden
		}
		rentals, err := tx.Rentals().ListByReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		for _, rt := range rentals {
			if rt.HandedOutAt != nil {
				return fmt.Errorf("%w: units already handed out", domain.ErrForbidden)
			}
		}
		// Assigned but not yet handed-out rentals fall away with the hold.
		if err := tx.Rentals().DeletePendingExcept(ctx, reservationID, nil); err != nil {
			return err
		}
		res = r
		return tx.Reservations().MarkCanceled(ctx, reservationID, s.now().UTC())
	})
	if err != nil {
		return err
	}
	s.sendCancellationNotice(ctx, res)
	return nil
}

func (s *reservationService) sendCancellationNotice(ctx context.Context, res *domain.Reservation) {
	holder, err := s.store.Holders().GetByID(ctx, res.HolderID)
	if err != nil {
		logger.Error("Failed to load holder for cancellation notice", "reservation_id", res.ID, "error", err)
		return
	}
	rt, err := s.store.Catalog().GetResourceType(ctx, res.ResourceTypeID)
	if err != nil {
		logger.Error("Failed to load resource type for cancellation notice", "reservation_id", res.ID, "error", err)
		return
	}
	err = s.mailer.SendCancellationNotice(ctx, holder.Email, holder.FirstName, rt.Name, res.ReservedFrom, res.ReservedUntil)
	if err != nil {
		logger.Error("Failed to send cancellation notice", "reservation_id", res.ID, "error", err)
	}
}

func (s *reservationService) GetReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	return s.store.Reservations().GetByID(ctx, id)
}

func (s *reservationService) ListByHolder(ctx context.Context, holderID int64, openOnly bool) ([]domain.Reservation, error) {
	return s.store.Reservations().ListByHolder(ctx, holderID, openOnly)
}

func (s *reservationService) ListByOperationNumber(ctx context.Context, opNumber int64) ([]domain.Reservation, error) {
	return s.store.Reservations().ListByOperationNumber(ctx, opNumber)
}
