package postgres

import (
	"context"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type policyRepository struct {
	q DBTX
}

func NewPolicyRepository(q DBTX) repository.PolicyRepository {
	return &policyRepository{q: q}
}

func (r *policyRepository) ListTiers(ctx context.Context) ([]domain.PriorityTier, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, prio, name, COALESCE(description, '') FROM priority_tiers ORDER BY prio`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var tiers []domain.PriorityTier
	for rows.Next() {
		var t domain.PriorityTier
		if err := rows.Scan(&t.ID, &t.Prio, &t.Name, &t.Description); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (r *policyRepository) GetTier(ctx context.Context, id int64) (*domain.PriorityTier, error) {
	t := &domain.PriorityTier{}
	err := r.q.QueryRowContext(ctx, `SELECT id, prio, name, COALESCE(description, '') FROM priority_tiers WHERE id = $1`, id).
		Scan(&t.ID, &t.Prio, &t.Name, &t.Description)
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (r *policyRepository) ListDurationPoliciesByType(ctx context.Context, typeID int64) ([]domain.DurationPolicy, error) {
	query := `SELECT p.id, p.tier_id, t.prio, p.resource_type_id, p.duration_days
	          FROM duration_policies p JOIN priority_tiers t ON t.id = p.tier_id
	          WHERE p.resource_type_id = $1 ORDER BY t.prio`
	rows, err := r.q.QueryContext(ctx, query, typeID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var policies []domain.DurationPolicy
	for rows.Next() {
		var p domain.DurationPolicy
		if err := rows.Scan(&p.ID, &p.TierID, &p.TierPrio, &p.ResourceTypeID, &p.DurationDays); err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

func (r *policyRepository) UpsertDurationPolicy(ctx context.Context, p *domain.DurationPolicy) error {
	query := `INSERT INTO duration_policies (tier_id, resource_type_id, duration_days)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (tier_id, resource_type_id) DO UPDATE SET duration_days = EXCLUDED.duration_days
	          RETURNING id`
	err := r.q.QueryRowContext(ctx, query, p.TierID, p.ResourceTypeID, p.DurationDays).Scan(&p.ID)
	return mapError(err)
}

func (r *policyRepository) DeleteDurationPolicy(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM duration_policies WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRows(res)
}
