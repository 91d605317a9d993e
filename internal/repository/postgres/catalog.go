package postgres

import (
	"context"
	"database/sql"
	"time"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type catalogRepository struct {
	q DBTX
}

func NewCatalogRepository(q DBTX) repository.CatalogRepository {
	return &catalogRepository{q: q}
}

func (r *catalogRepository) CreateResourceType(ctx context.Context, rt *domain.ResourceType) error {
	query := `INSERT INTO resource_types (category_id, name, short_description, description, manufacturer, prefix_identifier, visible, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.q.QueryRowContext(ctx, query, rt.CategoryID, rt.Name, rt.ShortDescription, rt.Description, rt.Manufacturer, rt.PrefixIdentifier, rt.Visible, time.Now().UTC()).Scan(&rt.ID)
	return mapError(err)
}

func (r *catalogRepository) GetResourceType(ctx context.Context, id int64) (*domain.ResourceType, error) {
	rt := &domain.ResourceType{}
	query := `SELECT id, category_id, name, short_description, description, manufacturer, prefix_identifier, visible, created_on
	          FROM resource_types WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).Scan(&rt.ID, &rt.CategoryID, &rt.Name, &rt.ShortDescription, &rt.Description, &rt.Manufacturer, &rt.PrefixIdentifier, &rt.Visible, &rt.CreatedOn)
	if err != nil {
		return nil, mapError(err)
	}
	return rt, nil
}

func (r *catalogRepository) ListResourceTypes(ctx context.Context, visibleOnly bool) ([]domain.ResourceType, error) {
	query := `SELECT id, category_id, name, short_description, description, manufacturer, prefix_identifier, visible, created_on
	          FROM resource_types`
	if visibleOnly {
		query += ` WHERE visible = TRUE`
	}
	query += ` ORDER BY category_id, name`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var types []domain.ResourceType
	for rows.Next() {
		var rt domain.ResourceType
		if err := rows.Scan(&rt.ID, &rt.CategoryID, &rt.Name, &rt.ShortDescription, &rt.Description, &rt.Manufacturer, &rt.PrefixIdentifier, &rt.Visible, &rt.CreatedOn); err != nil {
			return nil, err
		}
		types = append(types, rt)
	}
	return types, rows.Err()
}

func (r *catalogRepository) UpdateResourceType(ctx context.Context, rt *domain.ResourceType) error {
	query := `UPDATE resource_types SET category_id=$1, name=$2, short_description=$3, description=$4, manufacturer=$5, prefix_identifier=$6, visible=$7 WHERE id=$8`
	res, err := r.q.ExecContext(ctx, query, rt.CategoryID, rt.Name, rt.ShortDescription, rt.Description, rt.Manufacturer, rt.PrefixIdentifier, rt.Visible, rt.ID)
	if err != nil {
		return mapError(err)
	}
	return requireRows(res)
}

func (r *catalogRepository) DeleteResourceType(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM resource_types WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRows(res)
}

func (r *catalogRepository) CreateCategory(ctx context.Context, c *domain.Category) error {
	err := r.q.QueryRowContext(ctx, `INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`, c.Name, c.Description).Scan(&c.ID)
	return mapError(err)
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *catalogRepository) CreateUnit(ctx context.Context, u *domain.Unit) error {
	query := `INSERT INTO units (resource_type_id, internal_identifier, inventory_number, rentable)
	          VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.q.QueryRowContext(ctx, query, u.ResourceTypeID, u.InternalIdentifier, u.InventoryNumber, u.Rentable).Scan(&u.ID)
	return mapError(err)
}

func (r *catalogRepository) GetUnit(ctx context.Context, id int64) (*domain.Unit, error) {
	u := &domain.Unit{}
	query := `SELECT id, resource_type_id, internal_identifier, inventory_number, rentable FROM units WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.ResourceTypeID, &u.InternalIdentifier, &u.InventoryNumber, &u.Rentable)
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *catalogRepository) ListUnitsByType(ctx context.Context, typeID int64) ([]domain.Unit, error) {
	query := `SELECT id, resource_type_id, internal_identifier, inventory_number, rentable
	          FROM units WHERE resource_type_id = $1 ORDER BY internal_identifier`
	rows, err := r.q.QueryContext(ctx, query, typeID)
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

func (r *catalogRepository) UpdateUnit(ctx context.Context, u *domain.Unit) error {
	query := `UPDATE units SET internal_identifier=$1, inventory_number=$2, rentable=$3 WHERE id=$4`
	res, err := r.q.ExecContext(ctx, query, u.InternalIdentifier, u.InventoryNumber, u.Rentable, u.ID)
	if err != nil {
		return mapError(err)
	}
	return requireRows(res)
}

func (r *catalogRepository) DeleteUnit(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM units WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRows(res)
}

func (r *catalogRepository) CreateStatusWindow(ctx context.Context, w *domain.StatusWindow) error {
	query := `INSERT INTO status_windows (unit_id, reason, from_date, until_date, rentable)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.q.QueryRowContext(ctx, query, w.UnitID, w.Reason, w.FromDate, w.UntilDate, w.Rentable).Scan(&w.ID)
	return mapError(err)
}

func (r *catalogRepository) ListStatusWindowsByType(ctx context.Context, typeID int64) ([]domain.StatusWindow, error) {
	query := `SELECT w.id, w.unit_id, w.reason, w.from_date, w.until_date, w.rentable
	          FROM status_windows w JOIN units u ON u.id = w.unit_id
	          WHERE u.resource_type_id = $1`
	rows, err := r.q.QueryContext(ctx, query, typeID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var windows []domain.StatusWindow
	for rows.Next() {
		var w domain.StatusWindow
		if err := rows.Scan(&w.ID, &w.UnitID, &w.Reason, &w.FromDate, &w.UntilDate, &w.Rentable); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (r *catalogRepository) DeleteStatusWindow(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM status_windows WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRows(res)
}

// requireRows turns a zero-row write into ErrNotFound.
func requireRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
