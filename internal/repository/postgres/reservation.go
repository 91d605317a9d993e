package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type reservationRepository struct {
	q DBTX
}

func NewReservationRepository(q DBTX) repository.ReservationRepository {
	return &reservationRepository{q: q}
}

const reservationColumns = `id, holder_id, resource_type_id, reserved_at, reserved_from, reserved_until, count, operation_number, canceled_at, notified_at`

func scanReservation(s interface{ Scan(...any) error }) (*domain.Reservation, error) {
	r := &domain.Reservation{}
	err := s.Scan(&r.ID, &r.HolderID, &r.ResourceTypeID, &r.ReservedAt, &r.ReservedFrom, &r.ReservedUntil, &r.Count, &r.OperationNumber, &r.CanceledAt, &r.NotifiedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	query := `INSERT INTO reservations (holder_id, resource_type_id, reserved_at, reserved_from, reserved_until, count, operation_number)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.q.QueryRowContext(ctx, query, res.HolderID, res.ResourceTypeID, res.ReservedAt, res.ReservedFrom, res.ReservedUntil, res.Count, res.OperationNumber).Scan(&res.ID)
	return mapError(err)
}

func (r *reservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	res, err := scanReservation(row)
	if err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

func (r *reservationRepository) ListConsuming(ctx context.Context, typeID int64, from, until time.Time) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r
	          WHERE r.resource_type_id = $1
	            AND r.reserved_from <= $3 AND r.reserved_until >= $2
	            AND r.canceled_at IS NULL
	            AND NOT EXISTS (SELECT 1 FROM rentals rt WHERE rt.reservation_id = r.id)`
	return r.list(ctx, query, typeID, from, until)
}

func (r *reservationRepository) FindMergeTarget(ctx context.Context, holderID, typeID int64, from, until time.Time) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r
	          WHERE r.holder_id = $1 AND r.resource_type_id = $2
	            AND r.reserved_from = $3 AND r.reserved_until = $4
	            AND r.canceled_at IS NULL
	            AND NOT EXISTS (SELECT 1 FROM rentals rt WHERE rt.reservation_id = r.id)
	          LIMIT 1`
	row := r.q.QueryRowContext(ctx, query, holderID, typeID, from, until)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

func (r *reservationRepository) AddCount(ctx context.Context, id int64, delta int) error {
	res, err := r.q.ExecContext(ctx, `UPDATE reservations SET count = count + $1 WHERE id = $2`, delta, id)
	if err != nil {
		return mapError(err)
	}
	return requireRows(res)
}

func (r *reservationRepository) MarkCanceled(ctx context.Context, id int64, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE reservations SET canceled_at = $1 WHERE id = $2 AND canceled_at IS NULL`, at, id)
	if err != nil {
		return mapError(err)
	}
	return requireRows(res)
}

func (r *reservationRepository) NextOperationNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COALESCE(MAX(operation_number), 0) + 1 FROM reservations`).Scan(&n)
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *reservationRepository) ListByHolder(ctx context.Context, holderID int64, openOnly bool) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r WHERE r.holder_id = $1`
	if openOnly {
		query += ` AND r.canceled_at IS NULL
		           AND NOT EXISTS (SELECT 1 FROM rentals rt WHERE rt.reservation_id = r.id AND rt.handed_out_at IS NOT NULL)`
	}
	query += ` ORDER BY r.reserved_from`
	return r.list(ctx, query, holderID)
}

func (r *reservationRepository) ListByOperationNumber(ctx context.Context, opNumber int64) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r WHERE r.operation_number = $1 ORDER BY r.id`
	return r.list(ctx, query, opNumber)
}

func (r *reservationRepository) ListStartingOn(ctx context.Context, date time.Time) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r
	          WHERE r.reserved_from = $1 AND r.canceled_at IS NULL AND r.notified_at IS NULL`
	return r.list(ctx, query, date)
}

func (r *reservationRepository) MarkNotified(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.ExecContext(ctx, `UPDATE reservations SET notified_at = $1 WHERE id = ANY($2)`, at, pq.Array(ids))
	return mapError(err)
}

func (r *reservationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
