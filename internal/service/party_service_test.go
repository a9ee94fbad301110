package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreeji-gems/diamond-api/internal/models"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
)

type mockPartyRepo struct {
	parties     map[string]*models.Party
	listResult  []models.Party
	listTotal   int
	nameTaken   bool
	lotCount    int
	findErr     error
	kapanCalls  []string
	created     *models.Party
	updated     *models.Party
	deletedID   string
	addKapanErr error
}

func (m *mockPartyRepo) List(ctx context.Context, filter models.ReferenceFilter) ([]models.Party, int, error) {
	return m.listResult, m.listTotal, nil
}

func (m *mockPartyRepo) All(ctx context.Context) ([]models.Party, error) {
	return m.listResult, nil
}

func (m *mockPartyRepo) FindByID(ctx context.Context, id string) (*models.Party, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	party, ok := m.parties[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return party, nil
}

func (m *mockPartyRepo) FindByIDs(ctx context.Context, ids []string) ([]models.Party, error) {
	var out []models.Party
	for _, id := range ids {
		if party, ok := m.parties[id]; ok {
			out = append(out, *party)
		}
	}
	return out, nil
}

func (m *mockPartyRepo) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	return m.nameTaken, nil
}

func (m *mockPartyRepo) Create(ctx context.Context, party *models.Party) error {
	party.ID = "party-new"
	m.created = party
	return nil
}

func (m *mockPartyRepo) Update(ctx context.Context, party *models.Party) error {
	m.updated = party
	return nil
}

func (m *mockPartyRepo) AddKapanNumber(ctx context.Context, partyID, kapanNumber string) error {
	if m.addKapanErr != nil {
		return m.addKapanErr
	}
	m.kapanCalls = append(m.kapanCalls, partyID+":"+kapanNumber)
	return nil
}

func (m *mockPartyRepo) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	return nil
}

func (m *mockPartyRepo) CountLots(ctx context.Context, id string) (int, error) {
	return m.lotCount, nil
}

func activeParty(id, name string, kapans ...string) *models.Party {
	return &models.Party{ID: id, Name: name, Active: true, KapanNumbers: pq.StringArray(kapans)}
}

func TestPartyServiceCreate(t *testing.T) {
	repo := &mockPartyRepo{parties: map[string]*models.Party{}}
	invalidated := 0
	svc := NewPartyService(repo, nil, nil, func(context.Context) { invalidated++ })

	party, err := svc.Create(context.Background(), PartyCreateRequest{Name: "Shreeji Gems"})
	require.NoError(t, err)
	assert.Equal(t, "Shreeji Gems", party.Name)
	assert.True(t, party.Active)
	assert.NotNil(t, party.KapanNumbers)
	assert.Equal(t, 1, invalidated)
}

func TestPartyServiceCreateDuplicateName(t *testing.T) {
	repo := &mockPartyRepo{nameTaken: true}
	svc := NewPartyService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), PartyCreateRequest{Name: "Shreeji Gems"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestPartyServiceUpdateKeepsNameWhenUnchanged(t *testing.T) {
	repo := &mockPartyRepo{
		parties:   map[string]*models.Party{"party-1": activeParty("party-1", "Shreeji Gems")},
		nameTaken: true,
	}
	svc := NewPartyService(repo, nil, nil, nil)

	// Same name must not trip the uniqueness check.
	name := "Shreeji Gems"
	inactive := false
	party, err := svc.Update(context.Background(), "party-1", PartyUpdateRequest{Name: &name, Active: &inactive})
	require.NoError(t, err)
	assert.False(t, party.Active)
}

func TestPartyServiceDeleteGuardedByLots(t *testing.T) {
	repo := &mockPartyRepo{
		parties:  map[string]*models.Party{"party-1": activeParty("party-1", "Shreeji Gems")},
		lotCount: 3,
	}
	svc := NewPartyService(repo, nil, nil, nil)

	err := svc.Delete(context.Background(), "party-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Empty(t, repo.deletedID)
}

func TestPartyServiceDelete(t *testing.T) {
	repo := &mockPartyRepo{
		parties: map[string]*models.Party{"party-1": activeParty("party-1", "Shreeji Gems")},
	}
	invalidated := 0
	svc := NewPartyService(repo, nil, nil, func(context.Context) { invalidated++ })

	err := svc.Delete(context.Background(), "party-1")
	require.NoError(t, err)
	assert.Equal(t, "party-1", repo.deletedID)
	assert.Equal(t, 1, invalidated)
}

func TestPartyServiceKapanNumbersForDeduplicates(t *testing.T) {
	repo := &mockPartyRepo{parties: map[string]*models.Party{
		"party-1": activeParty("party-1", "A", "K-101", "K-102"),
		"party-2": activeParty("party-2", "B", "K-102", "K-201"),
	}}
	svc := NewPartyService(repo, nil, nil, nil)

	union, err := svc.KapanNumbersFor(context.Background(), []string{"party-1", "party-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"K-101", "K-102", "K-201"}, union)
}

func TestPartyServiceKapanNumbersForNoParties(t *testing.T) {
	svc := NewPartyService(&mockPartyRepo{}, nil, nil, nil)

	union, err := svc.KapanNumbersFor(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, union)
	assert.Empty(t, union)
}
