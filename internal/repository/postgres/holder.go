package postgres

import (
	"context"
	"time"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type holderRepository struct {
	q DBTX
}

func NewHolderRepository(q DBTX) repository.HolderRepository {
	return &holderRepository{q: q}
}

const holderColumns = `h.id, h.email, h.first_name, h.last_name, h.password_hash, h.tier_id, t.prio, h.staff, h.verified, h.created_on`

func (r *holderRepository) Create(ctx context.Context, h *domain.Holder) error {
	query := `INSERT INTO holders (email, first_name, last_name, password_hash, tier_id, staff, verified, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.q.QueryRowContext(ctx, query, h.Email, h.FirstName, h.LastName, h.PasswordHash, h.TierID, h.Staff, h.Verified, time.Now().UTC()).Scan(&h.ID)
	return mapError(err)
}

func (r *holderRepository) GetByID(ctx context.Context, id int64) (*domain.Holder, error) {
	h := &domain.Holder{}
	query := `SELECT ` + holderColumns + ` FROM holders h JOIN priority_tiers t ON t.id = h.tier_id WHERE h.id = $1`
	err := r.q.QueryRowContext(ctx, query, id).
		Scan(&h.ID, &h.Email, &h.FirstName, &h.LastName, &h.PasswordHash, &h.TierID, &h.TierPrio, &h.Staff, &h.Verified, &h.CreatedOn)
	if err != nil {
		return nil, mapError(err)
	}
	return h, nil
}

func (r *holderRepository) GetByEmail(ctx context.Context, email string) (*domain.Holder, error) {
	h := &domain.Holder{}
	query := `SELECT ` + holderColumns + ` FROM holders h JOIN priority_tiers t ON t.id = h.tier_id WHERE h.email = $1`
	err := r.q.QueryRowContext(ctx, query, email).
		Scan(&h.ID, &h.Email, &h.FirstName, &h.LastName, &h.PasswordHash, &h.TierID, &h.TierPrio, &h.Staff, &h.Verified, &h.CreatedOn)
	if err != nil {
		return nil, mapError(err)
	}
	return h, nil
}

func (r *holderRepository) Update(ctx context.Context, h *domain.Holder) error {
	query := `UPDATE holders SET email=$1, first_name=$2, last_name=$3, password_hash=$4, tier_id=$5, staff=$6, verified=$7 WHERE id=$8`
	res, err := r.q.ExecContext(ctx, query, h.Email, h.FirstName, h.LastName, h.PasswordHash, h.TierID, h.Staff, h.Verified, h.ID)
	if err != nil {
		return mapError(err)
	}
	return requireRows(res)
}
