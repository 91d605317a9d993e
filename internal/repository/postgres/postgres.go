package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repository works
// inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements repository.Store over PostgreSQL.
type Store struct {
	db *sql.DB

	catalog      repository.CatalogRepository
	policies     repository.PolicyRepository
	holders      repository.HolderRepository
	reservations repository.ReservationRepository
	rentals      repository.RentalRepository
}

func NewStore(db *sql.DB) *Store {
	s := &Store{db: db}
	s.bind(db)
	return s
}

func (s *Store) bind(q DBTX) {
	s.catalog = NewCatalogRepository(q)
	s.policies = NewPolicyRepository(q)
	s.holders = NewHolderRepository(q)
	s.reservations = NewReservationRepository(q)
	s.rentals = NewRentalRepository(q)
}

func (s *Store) Catalog() repository.CatalogRepository          { return s.catalog }
func (s *Store) Policies() repository.PolicyRepository          { return s.policies }
func (s *Store) Holders() repository.HolderRepository           { return s.holders }
func (s *Store) Reservations() repository.ReservationRepository { return s.reservations }
func (s *Store) Rentals() repository.RentalRepository           { return s.rentals }

// txRetries bounds the optimistic retries on serialization failure.
const txRetries = 3

// ExecTx runs fn in a repeatable-read transaction. Serialization and
// deadlock aborts are retried; once the retries are exhausted, and for
// unique violations immediately, the error surfaces as domain.ErrConflict
// so the caller can decide to retry the whole operation.
func (s *Store) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	var lastErr error
	for attempt := 0; attempt < txRetries; attempt++ {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}

		txStore := &Store{db: s.db}
		txStore.bind(tx)

		err = fn(txStore)
		if err == nil {
			err = tx.Commit()
			if err == nil {
				return nil
			}
		} else {
			_ = tx.Rollback()
		}

		if isSerializationFailure(err) {
			logger.Warn("transaction aborted by concurrent writer, retrying", "attempt", attempt+1, "error", err)
			lastErr = err
			continue
		}
		return mapError(err)
	}
	return fmt.Errorf("%w: %v", domain.ErrConflict, lastErr)
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

// mapError translates driver-level failures into the domain's error kinds.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Detail)
	}
	return err
}
