package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shreeji-gems/diamond-api/internal/models"
)

// PartyRepository handles persistence for trading parties.
type PartyRepository struct {
	db *sqlx.DB
}

// NewPartyRepository creates a new repository instance.
func NewPartyRepository(db *sqlx.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

const partyColumns = "id, name, active, kapan_numbers, created_at, updated_at"

// List returns parties matching the filter with a total count.
func (r *PartyRepository) List(ctx context.Context, filter models.ReferenceFilter) ([]models.Party, int, error) {
	base := "FROM parties WHERE 1=1"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", partyColumns, base, size, offset)
	var parties []models.Party
	if err := r.db.SelectContext(ctx, &parties, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list parties: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count parties: %w", err)
	}

	return parties, total, nil
}

// All returns every party, active first, for select population.
func (r *PartyRepository) All(ctx context.Context) ([]models.Party, error) {
	query := fmt.Sprintf("SELECT %s FROM parties ORDER BY active DESC, name ASC", partyColumns)
	var parties []models.Party
	if err := r.db.SelectContext(ctx, &parties, query); err != nil {
		return nil, fmt.Errorf("list all parties: %w", err)
	}
	return parties, nil
}

// FindByID returns a party by id.
func (r *PartyRepository) FindByID(ctx context.Context, id string) (*models.Party, error) {
	query := fmt.Sprintf("SELECT %s FROM parties WHERE id = $1", partyColumns)
	var party models.Party
	if err := r.db.GetContext(ctx, &party, query, id); err != nil {
		return nil, err
	}
	return &party, nil
}

// FindByIDs returns the parties with the given ids, preserving no particular order.
func (r *PartyRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Party, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM parties WHERE id = ANY($1)", partyColumns)
	var parties []models.Party
	if err := r.db.SelectContext(ctx, &parties, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find parties: %w", err)
	}
	return parties, nil
}

// ExistsByName checks name uniqueness, optionally excluding one id.
func (r *PartyRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM parties WHERE LOWER(name) = LOWER($1)"
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
		return false, fmt.Errorf("check party name: %w", err)
	}
	return true, nil
}

// Create persists a new party.
func (r *PartyRepository) Create(ctx context.Context, party *models.Party) error {
	if party.ID == "" {
		party.ID = uuid.NewString()
	}
	if party.KapanNumbers == nil {
		party.KapanNumbers = pq.StringArray{}
	}
	now := time.Now().UTC()
	if party.CreatedAt.IsZero() {
		party.CreatedAt = now
	}
	party.UpdatedAt = now

	const query = `INSERT INTO parties (id, name, active, kapan_numbers, created_at, updated_at) VALUES (:id, :name, :active, :kapan_numbers, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, party); err != nil {
		return fmt.Errorf("create party: %w", err)
	}
	return nil
}

// Update persists name, active and kapan list changes.
func (r *PartyRepository) Update(ctx context.Context, party *models.Party) error {
	party.UpdatedAt = time.Now().UTC()
	const query = `UPDATE parties SET name = :name, active = :active, kapan_numbers = :kapan_numbers, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, party); err != nil {
		return fmt.Errorf("update party: %w", err)
	}
	return nil
}

// AddKapanNumber records a kapan number on the party unless already present.
func (r *PartyRepository) AddKapanNumber(ctx context.Context, partyID, kapanNumber string) error {
	const query = `UPDATE parties SET kapan_numbers = array_append(kapan_numbers, $1), updated_at = $2 WHERE id = $3 AND NOT ($1 = ANY(kapan_numbers))`
	if _, err := r.db.ExecContext(ctx, query, kapanNumber, time.Now().UTC(), partyID); err != nil {
		return fmt.Errorf("add kapan number: %w", err)
	}
	return nil
}

// Delete removes a party record.
func (r *PartyRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM parties WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	return nil
}

// CountLots returns the number of lots referencing the party.
func (r *PartyRepository) CountLots(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM diamond_lots WHERE party_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count party lots: %w", err)
	}
	return count, nil
}
