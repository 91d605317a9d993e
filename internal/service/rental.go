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

// ExtensionRules bounds the self-service extension window. A rental may be
// extended while its due date lies between today and the limit, exclusive of
// overdue rentals; each extension adds StepDays to the current due date.
type ExtensionRules struct {
	OrdinaryLimitDays int
	StaffLimitDays    int
	StepDays          int
}

type rentalService struct {
	store  repository.Store
	engine *availability.Engine
	cal    calendar.Policy
	rules  ExtensionRules
	mailer EmailService
	now    func() time.Time
}

func NewRentalService(store repository.Store, cal calendar.Policy, rules ExtensionRules, mailer EmailService, now func() time.Time) RentalService {
	if now == nil {
		now = time.Now
	}
	return &rentalService{
		store:  store,
		engine: availability.NewEngine(cal),
		cal:    cal,
		rules:  rules,
		mailer: mailer,
		now:    now,
	}
}

func (s *rentalService) AssignUnits(ctx context.Context, reservationID int64, unitIDs []int64) ([]domain.Rental, error) {
	unitIDs = dedupe(unitIDs)

	var out []domain.Rental
	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		res, err := tx.Reservations().GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if !res.Active() {
			return domain.ErrAlreadyCanceled
		}

		for _, unitID := range unitIDs {
			unit, err := tx.Catalog().GetUnit(ctx, unitID)
			if err != nil {
				return err
			}
			if unit.ResourceTypeID != res.ResourceTypeID {
				return fmt.Errorf("%w: unit %d", domain.ErrTypeMismatch, unitID)
			}
		}

		existing, err := tx.Rentals().ListByReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		rentalNumber := int64(0)
		assigned := make(map[int64]bool, len(existing))
		for _, rt := range existing {
			rentalNumber = rt.RentalNumber
			assigned[rt.UnitID] = true
		}
		if rentalNumber == 0 {
			rentalNumber, err = tx.Rentals().NextRentalNumber(ctx)
			if err != nil {
				return err
			}
		}

		// Reconcile: drop pending rentals that fell out of the selection,
		// create the newly selected ones. Handed-out rentals are never
		// touched here.
		if err := tx.Rentals().DeletePendingExcept(ctx, reservationID, unitIDs); err != nil {
			return err
		}
		for _, unitID := range unitIDs {
			if assigned[unitID] {
				continue
			}
			rt := domain.Rental{
				UnitID:        unitID,
				ReservationID: reservationID,
				RentalNumber:  rentalNumber,
			}
			if err := tx.Rentals().Create(ctx, &rt); err != nil {
				return err
			}
		}

		out, err = tx.Rentals().ListByReservation(ctx, reservationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *rentalService) HandOut(ctx context.Context, lenderID, reservationID int64) error {
	var res *domain.Reservation
	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		r, err := tx.Reservations().GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if !r.Active() {
			return domain.ErrAlreadyCanceled
		}
		assigned, err := tx.Rentals().CountByReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if assigned != r.Count {
			return fmt.Errorf("%w: %d assigned, %d reserved", domain.ErrCountMismatch, assigned, r.Count)
		}
		res = r
		return tx.Rentals().MarkHandedOut(ctx, reservationID, lenderID, s.now().UTC())
	})
	if err != nil {
		return err
	}
	logger.Info("reservation handed out", "reservation_id", reservationID, "lender_id", lenderID)
	s.sendHandoutReceipt(ctx, res)
	return nil
}

func (s *rentalService) sendHandoutReceipt(ctx context.Context, res *domain.Reservation) {
	holder, err := s.store.Holders().GetByID(ctx, res.HolderID)
	if err != nil {
		logger.Error("Failed to load holder for handout receipt", "reservation_id", res.ID, "error", err)
		return
	}
	rt, err := s.store.Catalog().GetResourceType(ctx, res.ResourceTypeID)
	if err != nil {
		logger.Error("Failed to load resource type for handout receipt", "reservation_id", res.ID, "error", err)
		return
	}
	err = s.mailer.SendHandoutReceipt(ctx, holder.Email, holder.FirstName, rt.Name, res.Count, res.ReservedUntil)
	if err != nil {
		logger.Error("Failed to send handout receipt", "reservation_id", res.ID, "error", err)
	}
}

func (s *rentalService) Return(ctx context.Context, processorID int64, rentalIDs []int64) error {
	rentalIDs = dedupe(rentalIDs)
	if len(rentalIDs) == 0 {
		return fmt.Errorf("%w: empty return batch", domain.ErrNotFound)
	}

	return s.store.ExecTx(ctx, func(tx repository.Store) error {
		open, err := tx.Rentals().ListOpenByIDs(ctx, rentalIDs)
		if err != nil {
			return err
		}
		if len(open) != len(rentalIDs) {
			return fmt.Errorf("%w: %d of %d rentals are open", domain.ErrNotFound, len(open), len(rentalIDs))
		}
		return tx.Rentals().MarkReturned(ctx, rentalIDs, processorID, s.now().UTC())
	})
}

func (s *rentalService) Extend(ctx context.Context, actorID, rentalID int64) (*domain.Extension, error) {
	actor, err := s.store.Holders().GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var ext domain.Extension
	var res *domain.Reservation
	var unitID int64
	err = s.store.ExecTx(ctx, func(tx repository.Store) error {
		rt, err := tx.Rentals().GetByID(ctx, rentalID)
		if err != nil {
			return err
		}
		if !rt.Open() {
			return domain.ErrNotExtendable
		}
		unitID = rt.UnitID
		res, err = tx.Reservations().GetByID(ctx, rt.ReservationID)
		if err != nil {
			return err
		}
		if res.HolderID != actorID && !actor.Staff {
			return domain.ErrForbidden
		}

		due := calendar.Date(rt.EffectiveDueDate(res.ReservedUntil))
		today := calendar.Date(s.now())
		daysLeft := calendar.DaysBetween(today, due)
		limit := s.rules.OrdinaryLimitDays
		if actor.Staff {
			limit = s.rules.StaffLimitDays
		}
		if daysLeft < 0 || daysLeft > limit {
			return fmt.Errorf("%w: due in %d days, window is 0-%d", domain.ErrOutOfWindow, daysLeft, limit)
		}

		// The unit stays out for another step, so the days between its
		// turnaround slot and the new due date must still have a free unit.
		// The extended rental itself does not count against that window.
		extFrom := due.Add(s.cal.Turnaround)
		extUntil := due.AddDate(0, 0, s.rules.StepDays)
		snap, err := loadSnapshot(ctx, tx, s.cal, res.ResourceTypeID, extFrom, extUntil)
		if err != nil {
			return err
		}
		loans := snap.Loans[:0]
		for _, loan := range snap.Loans {
			if loan.RentalID != rentalID {
				loans = append(loans, loan)
			}
		}
		snap.Loans = loans
		report, err := s.engine.Available(snap, extFrom, extUntil)
		if err != nil {
			return err
		}
		if report.Available < 1 {
			return fmt.Errorf("%w: no free unit until %s", domain.ErrNotExtendable, extUntil.Format(time.DateOnly))
		}

		ext = domain.Extension{
			RentalID:      rentalID,
			ExtendedFrom:  due,
			ExtendedUntil: due.AddDate(0, 0, s.rules.StepDays),
			ExtendedAt:    s.now().UTC(),
			ExtendedByID:  actorID,
		}
		if err := tx.Rentals().AddExtension(ctx, &ext); err != nil {
			return err
		}
		// An extended rental is due later, so a sent due-reminder no longer
		// applies.
		return tx.Rentals().ClearNotified(ctx, rentalID)
	})
	if err != nil {
		return nil, err
	}
	s.sendExtensionConfirmation(ctx, res, unitID, ext.ExtendedUntil)
	return &ext, nil
}

func (s *rentalService) sendExtensionConfirmation(ctx context.Context, res *domain.Reservation, unitID int64, due time.Time) {
	holder, err := s.store.Holders().GetByID(ctx, res.HolderID)
	if err != nil {
		logger.Error("Failed to load holder for extension confirmation", "reservation_id", res.ID, "error", err)
		return
	}
	unit, err := s.store.Catalog().GetUnit(ctx, unitID)
	if err != nil {
		logger.Error("Failed to load unit for extension confirmation", "unit_id", unitID, "error", err)
		return
	}
	rt, err := s.store.Catalog().GetResourceType(ctx, unit.ResourceTypeID)
	if err != nil {
		logger.Error("Failed to load resource type for extension confirmation", "unit_id", unitID, "error", err)
		return
	}
	err = s.mailer.SendExtensionConfirmation(ctx, holder.Email, holder.FirstName, unit.Label(rt.PrefixIdentifier), due)
	if err != nil {
		logger.Error("Failed to send extension confirmation", "unit_id", unitID, "error", err)
	}
}

func (s *rentalService) GetRental(ctx context.Context, id int64) (*domain.Rental, error) {
	return s.store.Rentals().GetByID(ctx, id)
}

func (s *rentalService) ListByReservation(ctx context.Context, reservationID int64) ([]domain.Rental, error) {
	return s.store.Rentals().ListByReservation(ctx, reservationID)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
