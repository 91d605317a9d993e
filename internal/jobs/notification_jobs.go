package jobs

import (
	"context"
	"time"

	"lendhub-backend/internal/calendar"
	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/logger"
)

// SendReservationReminders mails every holder whose reservation starts
// tomorrow and marks the reservations so they are not mailed twice.
func (jr *JobRunner) SendReservationReminders() {
	jr.runWithRecovery("SendReservationReminders", func() {
		ctx := context.Background()
		tomorrow := calendar.Date(jr.now()).AddDate(0, 0, 1)

		reservations, err := jr.store.Reservations().ListStartingOn(ctx, tomorrow)
		if err != nil {
			logger.Error("Failed to list upcoming reservations", "error", err)
			return
		}

		var notified []int64
		for i := range reservations {
			res := &reservations[i]
			holder, err := jr.store.Holders().GetByID(ctx, res.HolderID)
			if err != nil {
				logger.Error("Failed to load holder for reminder", "reservation_id", res.ID, "error", err)
				continue
			}
			rt, err := jr.store.Catalog().GetResourceType(ctx, res.ResourceTypeID)
			if err != nil {
				logger.Error("Failed to load resource type for reminder", "reservation_id", res.ID, "error", err)
				continue
			}
			err = jr.email.SendReservationReminder(ctx, holder.Email, holder.FirstName, rt.Name, res.ReservedFrom, res.ReservedUntil, res.Count)
			if err != nil {
				logger.Error("Failed to send reservation reminder", "reservation_id", res.ID, "error", err)
				continue
			}
			notified = append(notified, res.ID)
		}

		if err := jr.store.Reservations().MarkNotified(ctx, notified, jr.now().UTC()); err != nil {
			logger.Error("Failed to mark reservations notified", "error", err)
		}
		logger.Info("Reservation reminders sent", "count", len(notified))
	})
}

// SendDueReminders mails holders whose loans are due back in two days.
func (jr *JobRunner) SendDueReminders() {
	jr.runWithRecovery("SendDueReminders", func() {
		ctx := context.Background()
		due := calendar.Date(jr.now()).AddDate(0, 0, 2)

		rentals, err := jr.store.Rentals().ListOpenDueOn(ctx, due, false)
		if err != nil {
			logger.Error("Failed to list rentals due for reminder", "error", err)
			return
		}

		var notified []int64
		for i := range rentals {
			rt := &rentals[i]
			if err := jr.sendRentalMail(ctx, rt, due, false); err != nil {
				continue
			}
			notified = append(notified, rt.ID)
		}

		if err := jr.store.Rentals().MarkNotified(ctx, notified, jr.now().UTC()); err != nil {
			logger.Error("Failed to mark rentals notified", "error", err)
		}
		logger.Info("Due reminders sent", "count", len(notified))
	})
}

// SendMissingReturnNotices mails holders whose loan was due back yesterday
// and is still out, regardless of whether a due reminder went out before.
func (jr *JobRunner) SendMissingReturnNotices() {
	jr.runWithRecovery("SendMissingReturnNotices", func() {
		ctx := context.Background()
		due := calendar.Date(jr.now()).AddDate(0, 0, -1)

		sent := 0
		for _, notified := range []bool{false, true} {
			rentals, err := jr.store.Rentals().ListOpenDueOn(ctx, due, notified)
			if err != nil {
				logger.Error("Failed to list overdue rentals", "error", err)
				return
			}
			for i := range rentals {
				if err := jr.sendRentalMail(ctx, &rentals[i], due, true); err != nil {
					continue
				}
				sent++
			}
		}
		logger.Info("Missing return notices sent", "count", sent)
	})
}

// sendRentalMail resolves the holder and unit label of a rental and sends
// either a due reminder or a missing-return notice.
func (jr *JobRunner) sendRentalMail(ctx context.Context, rt *domain.Rental, due time.Time, missing bool) error {
	res, err := jr.store.Reservations().GetByID(ctx, rt.ReservationID)
	if err != nil {
		logger.Error("Failed to load reservation for rental mail", "rental_id", rt.ID, "error", err)
		return err
	}
	holder, err := jr.store.Holders().GetByID(ctx, res.HolderID)
	if err != nil {
		logger.Error("Failed to load holder for rental mail", "rental_id", rt.ID, "error", err)
		return err
	}
	unit, err := jr.store.Catalog().GetUnit(ctx, rt.UnitID)
	if err != nil {
		logger.Error("Failed to load unit for rental mail", "rental_id", rt.ID, "error", err)
		return err
	}
	resType, err := jr.store.Catalog().GetResourceType(ctx, unit.ResourceTypeID)
	if err != nil {
		logger.Error("Failed to load resource type for rental mail", "rental_id", rt.ID, "error", err)
		return err
	}

	label := unit.Label(resType.PrefixIdentifier)
	if missing {
		err = jr.email.SendMissingReturnNotice(ctx, holder.Email, holder.FirstName, label, due)
	} else {
		err = jr.email.SendDueReminder(ctx, holder.Email, holder.FirstName, label, due)
	}
	if err != nil {
		logger.Error("Failed to send rental mail", "rental_id", rt.ID, "error", err)
	}
	return err
}
