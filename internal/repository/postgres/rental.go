package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type rentalRepository struct {
	q DBTX
}

func NewRentalRepository(q DBTX) repository.RentalRepository {
	return &rentalRepository{q: q}
}

const rentalColumns = `id, unit_id, reservation_id, rental_number, lender_id, return_processor_id, handed_out_at, received_back_at, notified_at`

func scanRental(s interface{ Scan(...any) error }) (*domain.Rental, error) {
	r := &domain.Rental{}
	err := s.Scan(&r.ID, &r.UnitID, &r.ReservationID, &r.RentalNumber, &r.LenderID, &r.ReturnProcessorID, &r.HandedOutAt, &r.ReceivedBackAt, &r.NotifiedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	// The type check mirrors the domain invariant: a rental's unit must
	// belong to the reservation's resource type.
	query := `INSERT INTO rentals (unit_id, reservation_id, rental_number, lender_id)
	          SELECT $1, $2, $3, $4
	          WHERE (SELECT u.resource_type_id FROM units u WHERE u.id = $1)
	              = (SELECT res.resource_type_id FROM reservations res WHERE res.id = $2)
	          RETURNING id`
	err := r.q.QueryRowContext(ctx, query, rt.UnitID, rt.ReservationID, rt.RentalNumber, rt.LenderID).Scan(&rt.ID)
	if err != nil {
		if mapped := mapError(err); mapped == domain.ErrNotFound {
			return domain.ErrTypeMismatch
		}
		return mapError(err)
	}
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1`, id)
	rt, err := scanRental(row)
	if err != nil {
		return nil, mapError(err)
	}
	if err := r.loadExtensions(ctx, rt); err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *rentalRepository) loadExtensions(ctx context.Context, rt *domain.Rental) error {
	query := `SELECT id, rental_id, extended_from, extended_until, extended_at, extended_by_id
	          FROM extensions WHERE rental_id = $1 ORDER BY extended_until`
	rows, err := r.q.QueryContext(ctx, query, rt.ID)
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.Extension
		if err := rows.Scan(&e.ID, &e.RentalID, &e.ExtendedFrom, &e.ExtendedUntil, &e.ExtendedAt, &e.ExtendedByID); err != nil {
			return err
		}
		rt.Extensions = append(rt.Extensions, e)
	}
	return rows.Err()
}

func (r *rentalRepository) ListByReservation(ctx context.Context, reservationID int64) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE reservation_id = $1 ORDER BY id`
	return r.list(ctx, query, reservationID)
}

func (r *rentalRepository) ListOpenLoansByType(ctx context.Context, typeID int64, until time.Time) ([]domain.OpenLoan, error) {
	query := `SELECT rt.id, rt.unit_id, rt.handed_out_at,
	                 COALESCE(MAX(e.extended_until), res.reserved_until) AS due_date
	          FROM rentals rt
	          JOIN units u ON u.id = rt.unit_id
	          JOIN reservations res ON res.id = rt.reservation_id
	          LEFT JOIN extensions e ON e.rental_id = rt.id
	          WHERE u.resource_type_id = $1
	            AND rt.handed_out_at IS NOT NULL AND rt.handed_out_at <= $2
	            AND rt.received_back_at IS NULL
	          GROUP BY rt.id, rt.unit_id, rt.handed_out_at, res.reserved_until`
	rows, err := r.q.QueryContext(ctx, query, typeID, until)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var loans []domain.OpenLoan
	for rows.Next() {
		var l domain.OpenLoan
		if err := rows.Scan(&l.RentalID, &l.UnitID, &l.HandedOutAt, &l.DueDate); err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func (r *rentalRepository) DeletePendingExcept(ctx context.Context, reservationID int64, keepUnitIDs []int64) error {
	// pq.Array(nil) lands as SQL NULL, and `<> ALL(NULL)` matches no row at
	// all; an empty keep list has to reach postgres as '{}'.
	if keepUnitIDs == nil {
		keepUnitIDs = []int64{}
	}
	query := `DELETE FROM rentals
	          WHERE reservation_id = $1 AND handed_out_at IS NULL
	            AND unit_id <> ALL($2)`
	_, err := r.q.ExecContext(ctx, query, reservationID, pq.Array(keepUnitIDs))
	return mapError(err)
}

func (r *rentalRepository) CountByReservation(ctx context.Context, reservationID int64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT count(*) FROM rentals WHERE reservation_id = $1`, reservationID).Scan(&n)
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *rentalRepository) MarkHandedOut(ctx context.Context, reservationID int64, lenderID int64, at time.Time) error {
	query := `UPDATE rentals SET handed_out_at = $1, lender_id = $2 WHERE reservation_id = $3 AND handed_out_at IS NULL`
	_, err := r.q.ExecContext(ctx, query, at, lenderID, reservationID)
	return mapError(err)
}

func (r *rentalRepository) ListOpenByIDs(ctx context.Context, ids []int64) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE id = ANY($1) AND handed_out_at IS NOT NULL AND received_back_at IS NULL`
	return r.list(ctx, query, pq.Array(ids))
}

func (r *rentalRepository) MarkReturned(ctx context.Context, ids []int64, processorID int64, at time.Time) error {
	query := `UPDATE rentals SET received_back_at = $1, return_processor_id = $2
	          WHERE id = ANY($3) AND received_back_at IS NULL`
	_, err := r.q.ExecContext(ctx, query, at, processorID, pq.Array(ids))
	return mapError(err)
}

func (r *rentalRepository) NextRentalNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COALESCE(MAX(rental_number), 0) + 1 FROM rentals`).Scan(&n)
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *rentalRepository) AddExtension(ctx context.Context, e *domain.Extension) error {
	query := `INSERT INTO extensions (rental_id, extended_from, extended_until, extended_at, extended_by_id)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.q.QueryRowContext(ctx, query, e.RentalID, e.ExtendedFrom, e.ExtendedUntil, e.ExtendedAt, e.ExtendedByID).Scan(&e.ID)
	return mapError(err)
}

func (r *rentalRepository) ClearNotified(ctx context.Context, rentalID int64) error {
	_, err := r.q.ExecContext(ctx, `UPDATE rentals SET notified_at = NULL WHERE id = $1`, rentalID)
	return mapError(err)
}

func (r *rentalRepository) ListOpenDueOn(ctx context.Context, date time.Time, notified bool) ([]domain.Rental, error) {
	notifiedCond := `rt.notified_at IS NULL`
	if notified {
		notifiedCond = `rt.notified_at IS NOT NULL`
	}
	query := `SELECT ` + rentalColumns + ` FROM rentals rt
	          JOIN reservations res ON res.id = rt.reservation_id
	          WHERE rt.handed_out_at IS NOT NULL AND rt.received_back_at IS NULL
	            AND ` + notifiedCond + `
	            AND COALESCE((SELECT MAX(e.extended_until) FROM extensions e WHERE e.rental_id = rt.id), res.reserved_until) = $1`
	return r.list(ctx, query, date)
}

func (r *rentalRepository) MarkNotified(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.ExecContext(ctx, `UPDATE rentals SET notified_at = $1 WHERE id = ANY($2)`, at, pq.Array(ids))
	return mapError(err)
}

func (r *rentalRepository) FreeUnits(ctx context.Context, typeID int64, on time.Time) ([]domain.Unit, error) {
	query := `SELECT u.id, u.resource_type_id, u.internal_identifier, u.inventory_number, u.rentable
	          FROM units u
	          WHERE u.resource_type_id = $1 AND u.rentable = TRUE
	            AND NOT EXISTS (
	                SELECT 1 FROM status_windows w
	                WHERE w.unit_id = u.id AND w.rentable = FALSE
	                  AND w.from_date <= $2 AND w.until_date >= $2)
	            AND NOT EXISTS (
	                SELECT 1 FROM rentals rt
	                WHERE rt.unit_id = u.id AND rt.received_back_at IS NULL
	                  AND rt.handed_out_at IS NOT NULL)
	          ORDER BY u.internal_identifier`
	rows, err := r.q.QueryContext(ctx, query, typeID, on)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var units []domain.Unit
	for rows.Next() {
		var u domain.Unit
		if err := rows.Scan(&u.ID, &u.ResourceTypeID, &u.InternalIdentifier, &u.InventoryNumber, &u.Rentable); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (r *rentalRepository) list(ctx context.Context, query string, args ...any) ([]domain.Rental, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	return out, rows.Err()
}
