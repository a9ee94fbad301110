package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shreeji-gems/diamond-api/internal/models"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
)

type referenceRepository interface {
	Table() string
	List(ctx context.Context, filter models.ReferenceFilter) ([]models.Reference, int, error)
	All(ctx context.Context) ([]models.Reference, error)
	FindByID(ctx context.Context, id string) (*models.Reference, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, item *models.Reference) error
	Update(ctx context.Context, item *models.Reference) error
	Delete(ctx context.Context, id string) error
}

// Invalidator is called after any reference mutation so cached aggregates can
// be dropped.
type Invalidator func(ctx context.Context)

// ReferenceListRequest scopes a reference list page.
type ReferenceListRequest struct {
	Search   string              `validate:"max=128"`
	Status   models.ActiveFilter `validate:"omitempty"`
	Page     int                 `validate:"min=0"`
	PageSize int                 `validate:"min=0,max=100"`
}

// ReferenceCreateRequest adds one named entry.
type ReferenceCreateRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=128"`
	Active *bool  `json:"active"`
}

// ReferenceUpdateRequest edits one entry's name or active flag.
type ReferenceUpdateRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=128"`
	Active *bool   `json:"active"`
}

// ReferenceService provides CRUD over one reference table. The same service
// backs every simple resource; only the bound repository differs.
type ReferenceService struct {
	repo       referenceRepository
	validator  *validator.Validate
	logger     *zap.Logger
	invalidate Invalidator
}

// NewReferenceService constructs a ReferenceService instance.
func NewReferenceService(repo referenceRepository, validate *validator.Validate, logger *zap.Logger, invalidate Invalidator) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if invalidate == nil {
		invalidate = func(context.Context) {}
	}
	return &ReferenceService{repo: repo, validator: validate, logger: logger, invalidate: invalidate}
}

// List returns a page of entries with pagination metadata.
func (s *ReferenceService) List(ctx context.Context, req ReferenceListRequest) ([]models.Reference, *models.Pagination, error) {
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
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to list %s", s.repo.Table()))
	}
	if items == nil {
		items = []models.Reference{}
	}

	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// All returns every entry, active first, for select population.
func (s *ReferenceService) All(ctx context.Context) ([]models.Reference, error) {
	items, err := s.repo.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to list all %s", s.repo.Table()))
	}
	if items == nil {
		items = []models.Reference{}
	}
	return items, nil
}

// Get returns one entry.
func (s *ReferenceService) Get(ctx context.Context, id string) (*models.Reference, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s entry", s.repo.Table()))
	}
	return item, nil
}

// Create adds one entry, enforcing case-insensitive name uniqueness.
func (s *ReferenceService) Create(ctx context.Context, req ReferenceCreateRequest) (*models.Reference, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create payload")
	}

	taken, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check name")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "name already exists")
	}

	item := &models.Reference{Name: req.Name, Active: true}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to create %s entry", s.repo.Table()))
	}

	s.invalidate(ctx)
	return item, nil
}

// Update edits name or active state on one entry.
func (s *ReferenceService) Update(ctx context.Context, id string, req ReferenceUpdateRequest) (*models.Reference, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != item.Name {
		taken, err := s.repo.ExistsByName(ctx, *req.Name, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check name")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "name already exists")
		}
		item.Name = *req.Name
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to update %s entry", s.repo.Table()))
	}

	s.invalidate(ctx)
	return item, nil
}

// Delete removes one entry.
func (s *ReferenceService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to delete %s entry", s.repo.Table()))
	}
	s.invalidate(ctx)
	return nil
}
