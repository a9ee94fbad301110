package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shreeji-gems/diamond-api/internal/models"
)

// RateRepository handles persistence for party rate tiers and their histories.
type RateRepository struct {
	db *sqlx.DB
}

// NewRateRepository creates a new repository instance.
func NewRateRepository(db *sqlx.DB) *RateRepository {
	return &RateRepository{db: db}
}

// ListByParty returns the party's tiers ordered by starting value, each with
// its rate history newest first.
func (r *RateRepository) ListByParty(ctx context.Context, partyID string) ([]models.RateTier, error) {
	const tierQuery = `SELECT id, party_id, starting_value, ending_value, created_at, updated_at
        FROM rate_tiers WHERE party_id = $1 ORDER BY starting_value ASC`
	var tiers []models.RateTier
	if err := r.db.SelectContext(ctx, &tiers, tierQuery, partyID); err != nil {
		return nil, fmt.Errorf("list rate tiers: %w", err)
	}
	if len(tiers) == 0 {
		return []models.RateTier{}, nil
	}

	const itemQuery = `SELECT i.id, i.tier_id, i.rate, i.date, i.created_at
        FROM rate_items i JOIN rate_tiers t ON t.id = i.tier_id
        WHERE t.party_id = $1 ORDER BY i.date DESC, i.created_at DESC`
	var items []models.RateItem
	if err := r.db.SelectContext(ctx, &items, itemQuery, partyID); err != nil {
		return nil, fmt.Errorf("list rate items: %w", err)
	}

	byTier := make(map[string][]models.RateItem, len(tiers))
	for _, item := range items {
		byTier[item.TierID] = append(byTier[item.TierID], item)
	}
	for i := range tiers {
		tiers[i].Items = byTier[tiers[i].ID]
		if tiers[i].Items == nil {
			tiers[i].Items = []models.RateItem{}
		}
	}
	return tiers, nil
}

// FindTier returns one tier without its items.
func (r *RateRepository) FindTier(ctx context.Context, id string) (*models.RateTier, error) {
	const query = `SELECT id, party_id, starting_value, ending_value, created_at, updated_at FROM rate_tiers WHERE id = $1`
	var tier models.RateTier
	if err := r.db.GetContext(ctx, &tier, query, id); err != nil {
		return nil, err
	}
	return &tier, nil
}

// FindItem returns one history entry.
func (r *RateRepository) FindItem(ctx context.Context, id string) (*models.RateItem, error) {
	const query = `SELECT id, tier_id, rate, date, created_at FROM rate_items WHERE id = $1`
	var item models.RateItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// OverlappingTierExists reports whether the party already has a tier whose
// range intersects [start, end), optionally excluding one tier id.
func (r *RateRepository) OverlappingTierExists(ctx context.Context, partyID string, start, end float64, excludeID string) (bool, error) {
	query := `SELECT 1 FROM rate_tiers WHERE party_id = $1 AND starting_value < $3 AND ending_value > $2`
	args := []interface{}{partyID, start, end}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check tier overlap: %w", err)
	}
	return true, nil
}

// CreateTier inserts the tier and its first history entry in one transaction.
func (r *RateRepository) CreateTier(ctx context.Context, tier *models.RateTier, first *models.RateItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create tier: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if tier.ID == "" {
		tier.ID = uuid.NewString()
	}
	tier.CreatedAt = now
	tier.UpdatedAt = now

	const tierInsert = `INSERT INTO rate_tiers (id, party_id, starting_value, ending_value, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)`
	if _, err := tx.ExecContext(ctx, tierInsert, tier.ID, tier.PartyID, tier.StartingValue, tier.EndingValue, now); err != nil {
		return fmt.Errorf("insert rate tier: %w", err)
	}

	if first.ID == "" {
		first.ID = uuid.NewString()
	}
	first.TierID = tier.ID
	first.CreatedAt = now

	const itemInsert = `INSERT INTO rate_items (id, tier_id, rate, date, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, itemInsert, first.ID, first.TierID, first.Rate, first.Date, now); err != nil {
		return fmt.Errorf("insert rate item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create tier: %w", err)
	}
	tier.Items = []models.RateItem{*first}
	return nil
}

// UpdateTier persists range changes on a tier.
func (r *RateRepository) UpdateTier(ctx context.Context, tier *models.RateTier) error {
	tier.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rate_tiers SET starting_value = $1, ending_value = $2, updated_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, tier.StartingValue, tier.EndingValue, tier.UpdatedAt, tier.ID); err != nil {
		return fmt.Errorf("update rate tier: %w", err)
	}
	return nil
}

// AddItem appends a dated rate entry to a tier's history.
func (r *RateRepository) AddItem(ctx context.Context, item *models.RateItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO rate_items (id, tier_id, rate, date, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, item.ID, item.TierID, item.Rate, item.Date, item.CreatedAt); err != nil {
		return fmt.Errorf("add rate item: %w", err)
	}
	return nil
}

// UpdateItem edits one history entry in place.
func (r *RateRepository) UpdateItem(ctx context.Context, item *models.RateItem) error {
	const query = `UPDATE rate_items SET rate = $1, date = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, item.Rate, item.Date, item.ID); err != nil {
		return fmt.Errorf("update rate item: %w", err)
	}
	return nil
}

// DeleteItem removes one history entry.
func (r *RateRepository) DeleteItem(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rate_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete rate item: %w", err)
	}
	return nil
}

// CountItems returns the size of a tier's history.
func (r *RateRepository) CountItems(ctx context.Context, tierID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM rate_items WHERE tier_id = $1`, tierID); err != nil {
		return 0, fmt.Errorf("count rate items: %w", err)
	}
	return count, nil
}

// DeleteTier removes a tier together with its history.
func (r *RateRepository) DeleteTier(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tier: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM rate_items WHERE tier_id = $1`, id); err != nil {
		return fmt.Errorf("delete tier items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rate_tiers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete rate tier: %w", err)
	}
	return tx.Commit()
}

// ResolveRate returns the newest rate whose tier range covers the weight for
// the party, or sql.ErrNoRows when no tier matches.
func (r *RateRepository) ResolveRate(ctx context.Context, partyID string, weight float64) (float64, error) {
	const query = `SELECT i.rate FROM rate_tiers t JOIN rate_items i ON i.tier_id = t.id
        WHERE t.party_id = $1 AND t.starting_value <= $2 AND t.ending_value > $2
        ORDER BY i.date DESC, i.created_at DESC LIMIT 1`
	var rate float64
	if err := r.db.GetContext(ctx, &rate, query, partyID, weight); err != nil {
		return 0, err
	}
	return rate, nil
}
