package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shreeji-gems/diamond-api/internal/models"
)

// LotRepository handles persistence for the diamond lot ledger.
type LotRepository struct {
	db *sqlx.DB
}

// NewLotRepository creates a new repository instance.
func NewLotRepository(db *sqlx.DB) *LotRepository {
	return &LotRepository{db: db}
}

const lotSelect = `SELECT d.id, d.party_id, d.date, d.unique_id, d.kapan_number, d.pkt_number,
        d.issue_weight, d.expected_weight, d.polish_weight, d.hpht_weight,
        d.shape_id, d.color_id, d.clarity_id, d.status_id, d.payment_status_id,
        d.polish_date, d.hpht_date, d.rate, d.amount, d.remark, d.created_by, d.created_at, d.updated_at,
        p.name AS party_name, sh.name AS shape_name, co.name AS color_name, cl.name AS clarity_name,
        st.name AS status_name, ps.name AS payment_status_name`

const lotJoins = ` FROM diamond_lots d
        JOIN parties p ON p.id = d.party_id
        LEFT JOIN shapes sh ON sh.id = d.shape_id
        LEFT JOIN colors co ON co.id = d.color_id
        LEFT JOIN clarities cl ON cl.id = d.clarity_id
        LEFT JOIN statuses st ON st.id = d.status_id
        LEFT JOIN payment_statuses ps ON ps.id = d.payment_status_id`

// lotConditions translates a filter into a WHERE tail and positional args.
func lotConditions(filter models.LotFilter) (string, []interface{}) {
	clause := " WHERE 1=1"
	var args []interface{}

	if len(filter.PartyIDs) > 0 {
		clause += fmt.Sprintf(" AND d.party_id = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(filter.PartyIDs))
	}
	if len(filter.StatusIDs) > 0 {
		clause += fmt.Sprintf(" AND d.status_id = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(filter.StatusIDs))
	}
	if len(filter.PaymentStatusIDs) > 0 {
		clause += fmt.Sprintf(" AND d.payment_status_id = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(filter.PaymentStatusIDs))
	}
	if len(filter.KapanNumbers) > 0 {
		clause += fmt.Sprintf(" AND d.kapan_number = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(filter.KapanNumbers))
	}
	if filter.Search != "" {
		clause += fmt.Sprintf(" AND CAST(d.unique_id AS TEXT) LIKE $%d", len(args)+1)
		args = append(args, filter.Search+"%")
	}
	if filter.StartDate != nil {
		clause += fmt.Sprintf(" AND d.date >= $%d", len(args)+1)
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		clause += fmt.Sprintf(" AND d.date <= $%d", len(args)+1)
		args = append(args, *filter.EndDate)
	}

	return clause, args
}

// lotOrder maps the single active sort toggle to an ORDER BY clause. With no
// toggle active the ledger orders by unique id ascending.
func lotOrder(s models.LotSort) string {
	direction := func(d models.SortDirection) string {
		if d == models.SortDesc {
			return "DESC"
		}
		return "ASC"
	}
	switch {
	case s.Date.Active():
		return fmt.Sprintf(" ORDER BY d.date %s NULLS LAST, d.unique_id ASC", direction(s.Date))
	case s.PolishDate.Active():
		return fmt.Sprintf(" ORDER BY d.polish_date %s NULLS LAST, d.unique_id ASC", direction(s.PolishDate))
	case s.HPHTDate.Active():
		return fmt.Sprintf(" ORDER BY d.hpht_date %s NULLS LAST, d.unique_id ASC", direction(s.HPHTDate))
	case s.UniqueID.Active():
		return fmt.Sprintf(" ORDER BY d.unique_id %s", direction(s.UniqueID))
	default:
		return " ORDER BY d.unique_id ASC"
	}
}

// List returns one page of ledger rows for the filter.
func (r *LotRepository) List(ctx context.Context, filter models.LotFilter) ([]models.LotRecord, error) {
	clause, args := lotConditions(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	record := filter.Record
	if record <= 0 {
		record = 20
	}
	offset := (page - 1) * record

	query := lotSelect + lotJoins + clause + lotOrder(filter.Sort) + fmt.Sprintf(" LIMIT %d OFFSET %d", record, offset)
	var rows []models.LotRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return rows, nil
}

// ListAll returns the whole filtered selection, bounded by limit, for exports.
func (r *LotRepository) ListAll(ctx context.Context, filter models.LotFilter, limit int) ([]models.LotRecord, error) {
	clause, args := lotConditions(filter)
	query := lotSelect + lotJoins + clause + lotOrder(filter.Sort)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	var rows []models.LotRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list lots for export: %w", err)
	}
	return rows, nil
}

// Totals computes selection-wide aggregates for the filter.
func (r *LotRepository) Totals(ctx context.Context, filter models.LotFilter) (*models.LotTotals, error) {
	clause, args := lotConditions(filter)
	query := `SELECT COUNT(*) AS total_items,
        COALESCE(SUM(d.issue_weight), 0) AS total_issue_weight,
        COALESCE(SUM(d.expected_weight), 0) AS total_expected_weight,
        COALESCE(SUM(d.polish_weight), 0) AS total_polish_weight,
        COALESCE(SUM(d.hpht_weight), 0) AS total_hpht_weight,
        COALESCE(SUM(d.amount), 0) AS total_amount
        FROM diamond_lots d` + clause

	var totals models.LotTotals
	if err := r.db.GetContext(ctx, &totals, query, args...); err != nil {
		return nil, fmt.Errorf("lot totals: %w", err)
	}
	return &totals, nil
}

// FindByID returns a lot by primary id.
func (r *LotRepository) FindByID(ctx context.Context, id string) (*models.DiamondLot, error) {
	const query = `SELECT id, party_id, date, unique_id, kapan_number, pkt_number,
        issue_weight, expected_weight, polish_weight, hpht_weight,
        shape_id, color_id, clarity_id, status_id, payment_status_id,
        polish_date, hpht_date, rate, amount, remark, created_by, created_at, updated_at
        FROM diamond_lots WHERE id = $1`
	var lot models.DiamondLot
	if err := r.db.GetContext(ctx, &lot, query, id); err != nil {
		return nil, err
	}
	return &lot, nil
}

// FindByUniqueID returns the ledger row carrying the sequential display id.
func (r *LotRepository) FindByUniqueID(ctx context.Context, uniqueID int64) (*models.LotRecord, error) {
	query := lotSelect + lotJoins + " WHERE d.unique_id = $1"
	var row models.LotRecord
	if err := r.db.GetContext(ctx, &row, query, uniqueID); err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateBatch inserts one lot per item inside a single transaction, assigning
// consecutive unique ids starting after the current maximum.
func (r *LotRepository) CreateBatch(ctx context.Context, partyID, kapanNumber string, items []models.LotItemInput, createdBy *string) ([]models.DiamondLot, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create lots: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// READ COMMITTED lets two transactions read the same MAX, so unique id
	// assignment is serialised behind a tx-scoped advisory lock.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('diamond_lots'))`); err != nil {
		return nil, fmt.Errorf("lock unique id assignment: %w", err)
	}

	var maxUniqueID int64
	if err := tx.GetContext(ctx, &maxUniqueID, `SELECT COALESCE(MAX(unique_id), 0) FROM diamond_lots`); err != nil {
		return nil, fmt.Errorf("next unique id: %w", err)
	}

	now := time.Now().UTC()
	created := make([]models.DiamondLot, 0, len(items))
	const insert = `INSERT INTO diamond_lots
        (id, party_id, date, unique_id, kapan_number, pkt_number, issue_weight, expected_weight, shape_id, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

	for i, item := range items {
		lot := models.DiamondLot{
			ID:             uuid.NewString(),
			PartyID:        partyID,
			Date:           item.Date,
			UniqueID:       maxUniqueID + int64(i) + 1,
			KapanNumber:    kapanNumber,
			PKTNumber:      item.PKTNumber,
			IssueWeight:    item.IssueWeight,
			ExpectedWeight: item.ExpectedWeight,
			ShapeID:        item.ShapeID,
			CreatedBy:      createdBy,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if _, err := tx.ExecContext(ctx, insert,
			lot.ID, lot.PartyID, lot.Date, lot.UniqueID, lot.KapanNumber, lot.PKTNumber,
			lot.IssueWeight, lot.ExpectedWeight, lot.ShapeID, lot.CreatedBy, now,
		); err != nil {
			return nil, fmt.Errorf("insert lot: %w", err)
		}
		created = append(created, lot)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create lots: %w", err)
	}
	return created, nil
}

// UpdateFields applies a partial column update to one lot. Callers validate
// the column names; the map is ordered here so the statement is deterministic.
func (r *LotRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	columns := make([]string, 0, len(fields))
	for column := range fields {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+2)
	for _, column := range columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, fields[column])
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE diamond_lots SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("update lot %s: %w", id, errNoRowsAffected)
	}
	return nil
}

var errNoRowsAffected = fmt.Errorf("no rows affected")
