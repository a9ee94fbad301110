package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shreeji-gems/diamond-api/internal/models"
)

// ReferenceRepository handles persistence for one reference table. The same
// implementation backs colors, clarities, shapes, statuses, payment statuses
// and employees; only the table name differs.
type ReferenceRepository struct {
	db    *sqlx.DB
	table string
}

// NewReferenceRepository creates a repository bound to a reference table.
func NewReferenceRepository(db *sqlx.DB, table string) *ReferenceRepository {
	return &ReferenceRepository{db: db, table: table}
}

// Table returns the bound table name.
func (r *ReferenceRepository) Table() string {
	return r.table
}

// List returns entries matching the filter with a total count.
func (r *ReferenceRepository) List(ctx context.Context, filter models.ReferenceFilter) ([]models.Reference, int, error) {
	base := fmt.Sprintf("FROM %s WHERE 1=1", r.table)
	var args []interface{}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	switch filter.Status {
	case models.ActiveFilterActive:
		base += " AND active = TRUE"
	case models.ActiveFilterDeactive:
		base += " AND active = FALSE"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, active, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)
	var items []models.Reference
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.table, err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.table, err)
	}

	return items, total, nil
}

// All returns every entry, active first, for select population.
func (r *ReferenceRepository) All(ctx context.Context) ([]models.Reference, error) {
	query := fmt.Sprintf("SELECT id, name, active, created_at, updated_at FROM %s ORDER BY active DESC, name ASC", r.table)
	var items []models.Reference
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list all %s: %w", r.table, err)
	}
	return items, nil
}

// FindByID returns one entry by id.
func (r *ReferenceRepository) FindByID(ctx context.Context, id string) (*models.Reference, error) {
	query := fmt.Sprintf("SELECT id, name, active, created_at, updated_at FROM %s WHERE id = $1", r.table)
	var item models.Reference
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ExistsByName checks name uniqueness, optionally excluding one id.
func (r *ReferenceRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE LOWER(name) = LOWER($1)", r.table)
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check %s name: %w", r.table, err)
	}
	return true, nil
}

// Create persists a new entry.
func (r *ReferenceRepository) Create(ctx context.Context, item *models.Reference) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	query := fmt.Sprintf("INSERT INTO %s (id, name, active, created_at, updated_at) VALUES (:id, :name, :active, :created_at, :updated_at)", r.table)
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create %s: %w", r.table, err)
	}
	return nil
}

// Update persists name and active changes.
func (r *ReferenceRepository) Update(ctx context.Context, item *models.Reference) error {
	item.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf("UPDATE %s SET name = :name, active = :active, updated_at = :updated_at WHERE id = :id", r.table)
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	return nil
}

// Delete removes an entry.
func (r *ReferenceRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete %s: %w", r.table, err)
	}
	return nil
}
