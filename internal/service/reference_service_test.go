package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreeji-gems/diamond-api/internal/models"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
)

type mockReferenceRepo struct {
	table     string
	items     map[string]*models.Reference
	all       []models.Reference
	listTotal int
	nameTaken bool
	created   *models.Reference
	updated   *models.Reference
	deletedID string
}

func (m *mockReferenceRepo) Table() string { return m.table }

func (m *mockReferenceRepo) List(ctx context.Context, filter models.ReferenceFilter) ([]models.Reference, int, error) {
	return m.all, m.listTotal, nil
}

func (m *mockReferenceRepo) All(ctx context.Context) ([]models.Reference, error) {
	return m.all, nil
}

func (m *mockReferenceRepo) FindByID(ctx context.Context, id string) (*models.Reference, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (m *mockReferenceRepo) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	return m.nameTaken, nil
}

func (m *mockReferenceRepo) Create(ctx context.Context, item *models.Reference) error {
	item.ID = "ref-new"
	m.created = item
	return nil
}

func (m *mockReferenceRepo) Update(ctx context.Context, item *models.Reference) error {
	m.updated = item
	return nil
}

func (m *mockReferenceRepo) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	return nil
}

func TestReferenceServiceListNormalisesPagination(t *testing.T) {
	repo := &mockReferenceRepo{table: "colors", listTotal: 23}
	svc := NewReferenceService(repo, nil, nil, nil)

	items, pagination, err := svc.List(context.Background(), ReferenceListRequest{})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 10, pagination.PageSize)
	assert.Equal(t, 23, pagination.TotalCount)
	assert.Equal(t, 3, pagination.TotalPages)
}

func TestReferenceServiceListRejectsBadStatus(t *testing.T) {
	svc := NewReferenceService(&mockReferenceRepo{table: "colors"}, nil, nil, nil)

	_, _, err := svc.List(context.Background(), ReferenceListRequest{Status: "Archived"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReferenceServiceCreateInvalidatesCache(t *testing.T) {
	repo := &mockReferenceRepo{table: "colors"}
	invalidated := 0
	svc := NewReferenceService(repo, nil, nil, func(context.Context) { invalidated++ })

	item, err := svc.Create(context.Background(), ReferenceCreateRequest{Name: "Fancy Yellow"})
	require.NoError(t, err)
	assert.True(t, item.Active)
	assert.Equal(t, 1, invalidated)
}

func TestReferenceServiceCreateDuplicateName(t *testing.T) {
	repo := &mockReferenceRepo{table: "colors", nameTaken: true}
	svc := NewReferenceService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), ReferenceCreateRequest{Name: "Fancy Yellow"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestReferenceServiceUpdateTogglesActive(t *testing.T) {
	repo := &mockReferenceRepo{
		table: "employees",
		items: map[string]*models.Reference{"ref-1": {ID: "ref-1", Name: "Rajesh", Active: true}},
	}
	svc := NewReferenceService(repo, nil, nil, nil)

	inactive := false
	item, err := svc.Update(context.Background(), "ref-1", ReferenceUpdateRequest{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, item.Active)
	assert.Equal(t, "Rajesh", item.Name)
}

func TestReferenceServiceUpdateMissingEntry(t *testing.T) {
	svc := NewReferenceService(&mockReferenceRepo{table: "shapes"}, nil, nil, nil)

	name := "Oval"
	_, err := svc.Update(context.Background(), "ref-404", ReferenceUpdateRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReferenceServiceDelete(t *testing.T) {
	repo := &mockReferenceRepo{
		table: "statuses",
		items: map[string]*models.Reference{"ref-1": {ID: "ref-1", Name: "Issued"}},
	}
	invalidated := 0
	svc := NewReferenceService(repo, nil, nil, func(context.Context) { invalidated++ })

	require.NoError(t, svc.Delete(context.Background(), "ref-1"))
	assert.Equal(t, "ref-1", repo.deletedID)
	assert.Equal(t, 1, invalidated)
}
