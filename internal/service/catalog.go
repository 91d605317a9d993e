package service

import (
	"context"
	"fmt"

	"lendhub-backend/internal/calendar"
	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type catalogService struct {
	store repository.Store
}

func NewCatalogService(store repository.Store) CatalogService {
	return &catalogService{store: store}
}

func (s *catalogService) CreateCategory(ctx context.Context, c *domain.Category) error {
	if c.Name == "" {
		return fmt.Errorf("category name is required")
	}
	return s.store.Catalog().CreateCategory(ctx, c)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store.Catalog().ListCategories(ctx)
}

func (s *catalogService) CreateResourceType(ctx context.Context, rt *domain.ResourceType) error {
	if rt.Name == "" {
		return fmt.Errorf("resource type name is required")
	}
	return s.store.Catalog().CreateResourceType(ctx, rt)
}

func (s *catalogService) GetResourceType(ctx context.Context, id int64) (*domain.ResourceType, error) {
	return s.store.Catalog().GetResourceType(ctx, id)
}

func (s *catalogService) ListResourceTypes(ctx context.Context, visibleOnly bool) ([]domain.ResourceType, error) {
	return s.store.Catalog().ListResourceTypes(ctx, visibleOnly)
}

func (s *catalogService) UpdateResourceType(ctx context.Context, rt *domain.ResourceType) error {
	return s.store.Catalog().UpdateResourceType(ctx, rt)
}

func (s *catalogService) DeleteResourceType(ctx context.Context, id int64) error {
	return s.store.Catalog().DeleteResourceType(ctx, id)
}

func (s *catalogService) CreateUnit(ctx context.Context, u *domain.Unit) error {
	if _, err := s.store.Catalog().GetResourceType(ctx, u.ResourceTypeID); err != nil {
		return err
	}
	return s.store.Catalog().CreateUnit(ctx, u)
}

func (s *catalogService) ListUnitsByType(ctx context.Context, typeID int64) ([]domain.Unit, error) {
	return s.store.Catalog().ListUnitsByType(ctx, typeID)
}

func (s *catalogService) UpdateUnit(ctx context.Context, u *domain.Unit) error {
	return s.store.Catalog().UpdateUnit(ctx, u)
}

func (s *catalogService) DeleteUnit(ctx context.Context, id int64) error {
	return s.store.Catalog().DeleteUnit(ctx, id)
}

func (s *catalogService) CreateStatusWindow(ctx context.Context, w *domain.StatusWindow) error {
	from, until := calendar.Date(w.FromDate), calendar.Date(w.UntilDate)
	if from.After(until) {
		return fmt.Errorf("status window: %w", domain.ErrInvalidRange)
	}
	w.FromDate, w.UntilDate = from, until
	if _, err := s.store.Catalog().GetUnit(ctx, w.UnitID); err != nil {
		return err
	}
	return s.store.Catalog().CreateStatusWindow(ctx, w)
}

func (s *catalogService) ListStatusWindowsByType(ctx context.Context, typeID int64) ([]domain.StatusWindow, error) {
	return s.store.Catalog().ListStatusWindowsByType(ctx, typeID)
}

func (s *catalogService) DeleteStatusWindow(ctx context.Context, id int64) error {
	return s.store.Catalog().DeleteStatusWindow(ctx, id)
}

func (s *catalogService) ListTiers(ctx context.Context) ([]domain.PriorityTier, error) {
	return s.store.Policies().ListTiers(ctx)
}

func (s *catalogService) ListDurationPolicies(ctx context.Context, typeID int64) ([]domain.DurationPolicy, error) {
	return s.store.Policies().ListDurationPoliciesByType(ctx, typeID)
}

func (s *catalogService) UpsertDurationPolicy(ctx context.Context, p *domain.DurationPolicy) error {
	if p.DurationDays <= 0 {
		return fmt.Errorf("duration policy: %w", domain.ErrInvalidRange)
	}
	if _, err := s.store.Policies().GetTier(ctx, p.TierID); err != nil {
		return err
	}
	return s.store.Policies().UpsertDurationPolicy(ctx, p)
}

func (s *catalogService) DeleteDurationPolicy(ctx context.Context, id int64) error {
	return s.store.Policies().DeleteDurationPolicy(ctx, id)
}
