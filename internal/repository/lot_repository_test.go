package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreeji-gems/diamond-api/internal/models"
)

func newLotMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func lotColumns() []string {
	return []string{
		"id", "party_id", "date", "unique_id", "kapan_number", "pkt_number",
		"issue_weight", "expected_weight", "polish_weight", "hpht_weight",
		"shape_id", "color_id", "clarity_id", "status_id", "payment_status_id",
		"polish_date", "hpht_date", "rate", "amount", "remark", "created_by", "created_at", "updated_at",
		"party_name", "shape_name", "color_name", "clarity_name", "status_name", "payment_status_name",
	}
}

func addLotRow(rows *sqlmock.Rows, uniqueID int64) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		"lot-1", "party-1", now, uniqueID, "K-101", "P-1",
		10.5, 5.25, nil, nil,
		"shape-1", nil, nil, nil, nil,
		nil, nil, nil, nil, nil, nil, now, now,
		"Shreeji Gems", "Round", nil, nil, nil, nil,
	)
}

func TestLotConditionsEmptyFilter(t *testing.T) {
	clause, args := lotConditions(models.LotFilter{})
	assert.Equal(t, " WHERE 1=1", clause)
	assert.Empty(t, args)
}

func TestLotConditionsAllFilters(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	clause, args := lotConditions(models.LotFilter{
		PartyIDs:         []string{"p1", "p2"},
		StatusIDs:        []string{"s1"},
		PaymentStatusIDs: []string{"ps1"},
		KapanNumbers:     []string{"K-1"},
		Search:           "12",
		StartDate:        &start,
		EndDate:          &end,
	})

	assert.Contains(t, clause, "d.party_id = ANY($1)")
	assert.Contains(t, clause, "d.status_id = ANY($2)")
	assert.Contains(t, clause, "d.payment_status_id = ANY($3)")
	assert.Contains(t, clause, "d.kapan_number = ANY($4)")
	assert.Contains(t, clause, "CAST(d.unique_id AS TEXT) LIKE $5")
	assert.Contains(t, clause, "d.date >= $6")
	assert.Contains(t, clause, "d.date <= $7")
	assert.Len(t, args, 7)
	assert.Equal(t, "12%", args[4])
}

func TestLotOrder(t *testing.T) {
	cases := []struct {
		name string
		sort models.LotSort
		want string
	}{
		{"default", models.LotSort{}, " ORDER BY d.unique_id ASC"},
		{"unique id desc", models.LotSort{UniqueID: models.SortDesc}, " ORDER BY d.unique_id DESC"},
		{"date asc", models.LotSort{Date: models.SortAsc}, " ORDER BY d.date ASC NULLS LAST, d.unique_id ASC"},
		{"polish date desc", models.LotSort{PolishDate: models.SortDesc}, " ORDER BY d.polish_date DESC NULLS LAST, d.unique_id ASC"},
		{"hpht date asc", models.LotSort{HPHTDate: models.SortAsc}, " ORDER BY d.hpht_date ASC NULLS LAST, d.unique_id ASC"},
		{"explicit default strings", models.LotSort{UniqueID: models.SortDefault, Date: models.SortDefault}, " ORDER BY d.unique_id ASC"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, lotOrder(tc.sort))
		})
	}
}

func TestLotRepositoryListDefaultsPaging(t *testing.T) {
	db, mock, cleanup := newLotMock(t)
	defer cleanup()
	repo := NewLotRepository(db)

	mock.ExpectQuery("SELECT d.id, d.party_id(?s:.+)ORDER BY d.unique_id ASC LIMIT 20 OFFSET 0").
		WillReturnRows(addLotRow(sqlmock.NewRows(lotColumns()), 1))

	rows, err := repo.List(context.Background(), models.LotFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].UniqueID)
	assert.Equal(t, "Shreeji Gems", rows[0].PartyName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLotRepositoryListSecondPage(t *testing.T) {
	db, mock, cleanup := newLotMock(t)
	defer cleanup()
	repo := NewLotRepository(db)

	mock.ExpectQuery("SELECT d.id(?s:.+)LIMIT 10 OFFSET 10").
		WillReturnRows(sqlmock.NewRows(lotColumns()))

	rows, err := repo.List(context.Background(), models.LotFilter{Page: 2, Record: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLotRepositoryTotals(t *testing.T) {
	db, mock, cleanup := newLotMock(t)
	defer cleanup()
	repo := NewLotRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total_items`).
		WillReturnRows(sqlmock.NewRows([]string{
			"total_items", "total_issue_weight", "total_expected_weight",
			"total_polish_weight", "total_hpht_weight", "total_amount",
		}).AddRow(42, 120.5, 60.25, 55.1, 50.0, 123456.78))

	totals, err := repo.Totals(context.Background(), models.LotFilter{})
	require.NoError(t, err)
	assert.Equal(t, 42, totals.TotalItems)
	assert.InDelta(t, 123456.78, totals.TotalAmount, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLotRepositoryFindByUniqueID(t *testing.T) {
	db, mock, cleanup := newLotMock(t)
	defer cleanup()
	repo := NewLotRepository(db)

	mock.ExpectQuery("SELECT d.id(?s:.+)WHERE d.unique_id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(addLotRow(sqlmock.NewRows(lotColumns()), 7))

	row, err := repo.FindByUniqueID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), row.UniqueID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLotRepositoryCreateBatchAssignsSequentialIDs(t *testing.T) {
	db, mock, cleanup := newLotMock(t)
	defer cleanup()
	repo := NewLotRepository(db)

	items := []models.LotItemInput{
		{PKTNumber: "P-1", IssueWeight: 10, ExpectedWeight: 5, ShapeID: "shape-1", Date: time.Now()},
		{PKTNumber: "P-2", IssueWeight: 12, ExpectedWeight: 6, ShapeID: "shape-1", Date: time.Now()},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext('diamond_lots'))")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(unique_id), 0) FROM diamond_lots")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(41))
	mock.ExpectExec("INSERT INTO diamond_lots").
		WithArgs(sqlmock.AnyArg(), "party-1", sqlmock.AnyArg(), int64(42), "K-101", "P-1", 10.0, 5.0, "shape-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO diamond_lots").
		WithArgs(sqlmock.AnyArg(), "party-1", sqlmock.AnyArg(), int64(43), "K-101", "P-2", 12.0, 6.0, "shape-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	created, err := repo.CreateBatch(context.Background(), "party-1", "K-101", items, nil)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, int64(42), created[0].UniqueID)
	assert.Equal(t, int64(43), created[1].UniqueID)
	assert.Equal(t, "K-101", created[0].KapanNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLotRepositoryCreateBatchRollsBackOnInsertError(t *testing.T) {
	db, mock, cleanup := newLotMock(t)
	defer cleanup()
	repo := NewLotRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext('diamond_lots'))")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(unique_id), 0) FROM diamond_lots")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
	mock.ExpectExec("INSERT INTO diamond_lots").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.CreateBatch(context.Background(), "party-1", "K-101", []models.LotItemInput{
		{PKTNumber: "P-1", IssueWeight: 10, ExpectedWeight: 5, ShapeID: "shape-1", Date: time.Now()},
	}, nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLotRepositoryUpdateFieldsOrdersColumns(t *testing.T) {
	db, mock, cleanup := newLotMock(t)
	defer cleanup()
	repo := NewLotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE diamond_lots SET amount = $1, polish_weight = $2, rate = $3, updated_at = $4 WHERE id = $5")).
		WithArgs(262.5, 5.25, 50.0, sqlmock.AnyArg(), "lot-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateFields(context.Background(), "lot-1", map[string]interface{}{
		"rate":          50.0,
		"polish_weight": 5.25,
		"amount":        262.5,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLotRepositoryUpdateFieldsNoRows(t *testing.T) {
	db, mock, cleanup := newLotMock(t)
	defer cleanup()
	repo := NewLotRepository(db)

	mock.ExpectExec("UPDATE diamond_lots SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateFields(context.Background(), "missing", map[string]interface{}{"remark": "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoRowsAffected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLotRepositoryUpdateFieldsEmptyMapIsNoop(t *testing.T) {
	db, mock, cleanup := newLotMock(t)
	defer cleanup()
	repo := NewLotRepository(db)

	err := repo.UpdateFields(context.Background(), "lot-1", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
