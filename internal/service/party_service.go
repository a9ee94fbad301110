package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/shreeji-gems/diamond-api/internal/models"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
)

type partyRepository interface {
	List(ctx context.Context, filter models.ReferenceFilter) ([]models.Party, int, error)
	All(ctx context.Context) ([]models.Party, error)
	FindByID(ctx context.Context, id string) (*models.Party, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Party, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, party *models.Party) error
	Update(ctx context.Context, party *models.Party) error
	AddKapanNumber(ctx context.Context, partyID, kapanNumber string) error
	Delete(ctx context.Context, id string) error
	CountLots(ctx context.Context, id string) (int, error)
}

// PartyCreateRequest adds one trading party.
type PartyCreateRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=128"`
	Active *bool  `json:"active"`
}

// PartyUpdateRequest edits a party's name or active flag.
type PartyUpdateRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=128"`
	Active *bool   `json:"active"`
}

// PartyService provides CRUD over trading parties plus their kapan history.
type PartyService struct {
	repo       partyRepository
	validator  *validator.Validate
	logger     *zap.Logger
	invalidate Invalidator
}

// NewPartyService constructs a PartyService instance.
func NewPartyService(repo partyRepository, validate *validator.Validate, logger *zap.Logger, invalidate Invalidator) *PartyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if invalidate == nil {
		invalidate = func(context.Context) {}
	}
	return &PartyService{repo: repo, validator: validate, logger: logger, invalidate: invalidate}
}

// List returns a page of parties with pagination metadata.
func (s *PartyService) List(ctx context.Context, req ReferenceListRequest) ([]models.Party, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid list query")
	}
	if !req.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}

	filter := models.ReferenceFilter{
		Search:   req.Search,
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	parties, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parties")
	}
	if parties == nil {
		parties = []models.Party{}
	}
	return parties, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// All returns every party, active first, for select population.
func (s *PartyService) All(ctx context.Context) ([]models.Party, error) {
	parties, err := s.repo.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list all parties")
	}
	if parties == nil {
		parties = []models.Party{}
	}
	return parties, nil
}

// Get returns one party.
func (s *PartyService) Get(ctx context.Context, id string) (*models.Party, error) {
	party, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load party")
	}
	return party, nil
}

// KapanNumbersFor returns the union of kapan numbers recorded on the given
// parties. The ledger's kapan filter select only ever offers this union.
func (s *PartyService) KapanNumbersFor(ctx context.Context, partyIDs []string) ([]string, error) {
	if len(partyIDs) == 0 {
		return []string{}, nil
	}
	parties, err := s.repo.FindByIDs(ctx, partyIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parties")
	}

	seen := make(map[string]struct{})
	union := make([]string, 0)
	for _, party := range parties {
		for _, kapan := range party.KapanNumbers {
			if _, ok := seen[kapan]; ok {
				continue
			}
			seen[kapan] = struct{}{}
			union = append(union, kapan)
		}
	}
	return union, nil
}

// Create adds one party, enforcing case-insensitive name uniqueness.
func (s *PartyService) Create(ctx context.Context, req PartyCreateRequest) (*models.Party, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create payload")
	}

	taken, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check name")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "party name already exists")
	}

	party := &models.Party{Name: req.Name, Active: true, KapanNumbers: pq.StringArray{}}
	if req.Active != nil {
		party.Active = *req.Active
	}
	if err := s.repo.Create(ctx, party); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create party")
	}

	s.invalidate(ctx)
	return party, nil
}

// Update edits a party's name or active state.
func (s *PartyService) Update(ctx context.Context, id string, req PartyUpdateRequest) (*models.Party, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	party, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != party.Name {
		taken, err := s.repo.ExistsByName(ctx, *req.Name, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check name")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "party name already exists")
		}
		party.Name = *req.Name
	}
	if req.Active != nil {
		party.Active = *req.Active
	}

	if err := s.repo.Update(ctx, party); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update party")
	}

	s.invalidate(ctx)
	return party, nil
}

// Delete removes a party unless ledger rows still reference it.
func (s *PartyService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountLots(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count party lots")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "party has diamond lots and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete party")
	}

	s.invalidate(ctx)
	return nil
}
