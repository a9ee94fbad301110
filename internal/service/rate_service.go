package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shreeji-gems/diamond-api/internal/models"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
)

type rateRepository interface {
	ListByParty(ctx context.Context, partyID string) ([]models.RateTier, error)
	FindTier(ctx context.Context, id string) (*models.RateTier, error)
	FindItem(ctx context.Context, id string) (*models.RateItem, error)
	OverlappingTierExists(ctx context.Context, partyID string, start, end float64, excludeID string) (bool, error)
	CreateTier(ctx context.Context, tier *models.RateTier, first *models.RateItem) error
	UpdateTier(ctx context.Context, tier *models.RateTier) error
	AddItem(ctx context.Context, item *models.RateItem) error
	UpdateItem(ctx context.Context, item *models.RateItem) error
	DeleteItem(ctx context.Context, id string) error
	CountItems(ctx context.Context, tierID string) (int, error)
	DeleteTier(ctx context.Context, id string) error
}

// RateTierCreateRequest adds a value range with its first rate entry.
type RateTierCreateRequest struct {
	PartyID       string    `json:"partyId" validate:"required"`
	StartingValue float64   `json:"startingValue" validate:"gte=0"`
	EndingValue   float64   `json:"endingValue" validate:"gt=0"`
	Rate          float64   `json:"rate" validate:"gt=0"`
	Date          time.Time `json:"date" validate:"required"`
}

// RateTierUpdateRequest serves the tier editor's three edit shapes: with only
// rate and date set it appends a history entry; with an item id it edits that
// entry; with range bounds it moves the tier's window.
type RateTierUpdateRequest struct {
	ItemID        *string    `json:"itemId"`
	Rate          *float64   `json:"rate" validate:"omitempty,gt=0"`
	Date          *time.Time `json:"date"`
	StartingValue *float64   `json:"startingValue" validate:"omitempty,gte=0"`
	EndingValue   *float64   `json:"endingValue" validate:"omitempty,gt=0"`
}

// RateService drives per-party rate tiers and their histories.
type RateService struct {
	repo      rateRepository
	parties   partyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRateService constructs a RateService instance.
func NewRateService(repo rateRepository, parties partyRepository, validate *validator.Validate, logger *zap.Logger) *RateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RateService{repo: repo, parties: parties, validator: validate, logger: logger}
}

// ListByParty returns the party's tiers ordered by starting value.
func (s *RateService) ListByParty(ctx context.Context, partyID string) ([]models.RateTier, error) {
	if partyID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "partyId is required")
	}
	if _, err := s.parties.FindByID(ctx, partyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "party not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load party")
	}

	tiers, err := s.repo.ListByParty(ctx, partyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rate tiers")
	}
	return tiers, nil
}

// CreateTier adds a tier whose range may not overlap an existing one.
func (s *RateService) CreateTier(ctx context.Context, req RateTierCreateRequest) (*models.RateTier, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tier payload")
	}
	if req.StartingValue >= req.EndingValue {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startingValue must be below endingValue")
	}

	if _, err := s.parties.FindByID(ctx, req.PartyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "party not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load party")
	}

	overlap, err := s.repo.OverlappingTierExists(ctx, req.PartyID, req.StartingValue, req.EndingValue, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tier overlap")
	}
	if overlap {
		return nil, appErrors.Clone(appErrors.ErrConflict, "tier range overlaps an existing tier")
	}

	tier := &models.RateTier{
		PartyID:       req.PartyID,
		StartingValue: req.StartingValue,
		EndingValue:   req.EndingValue,
	}
	first := &models.RateItem{Rate: req.Rate, Date: req.Date}
	if err := s.repo.CreateTier(ctx, tier, first); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tier")
	}
	return tier, nil
}

// UpdateTier dispatches the editor's three edit shapes against one tier.
func (s *RateService) UpdateTier(ctx context.Context, tierID string, req RateTierUpdateRequest) (*models.RateTier, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tier update payload")
	}

	tier, err := s.repo.FindTier(ctx, tierID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rate tier not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tier")
	}

	switch {
	case req.ItemID != nil:
		if req.Rate == nil || req.Date == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "item edits need rate and date")
		}
		item, err := s.repo.FindItem(ctx, *req.ItemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "rate entry not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rate entry")
		}
		if item.TierID != tier.ID {
			return nil, appErrors.Clone(appErrors.ErrConflict, "rate entry belongs to another tier")
		}
		item.Rate = *req.Rate
		item.Date = *req.Date
		if err := s.repo.UpdateItem(ctx, item); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rate entry")
		}

	case req.Rate != nil && req.Date != nil:
		item := &models.RateItem{TierID: tier.ID, Rate: *req.Rate, Date: *req.Date}
		if err := s.repo.AddItem(ctx, item); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append rate entry")
		}

	case req.StartingValue != nil || req.EndingValue != nil:
		if req.StartingValue != nil {
			tier.StartingValue = *req.StartingValue
		}
		if req.EndingValue != nil {
			tier.EndingValue = *req.EndingValue
		}
		if tier.StartingValue >= tier.EndingValue {
			return nil, appErrors.Clone(appErrors.ErrValidation, "startingValue must be below endingValue")
		}
		overlap, err := s.repo.OverlappingTierExists(ctx, tier.PartyID, tier.StartingValue, tier.EndingValue, tier.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tier overlap")
		}
		if overlap {
			return nil, appErrors.Clone(appErrors.ErrConflict, "tier range overlaps an existing tier")
		}
		if err := s.repo.UpdateTier(ctx, tier); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tier")
		}

	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}

	tiers, err := s.repo.ListByParty(ctx, tier.PartyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload tiers")
	}
	for i := range tiers {
		if tiers[i].ID == tier.ID {
			return &tiers[i], nil
		}
	}
	return tier, nil
}

// DeleteItem removes one history entry. A tier always keeps at least one.
func (s *RateService) DeleteItem(ctx context.Context, itemID string) error {
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "rate entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rate entry")
	}

	count, err := s.repo.CountItems(ctx, item.TierID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rate entries")
	}
	if count <= 1 {
		return appErrors.Clone(appErrors.ErrConflict, "a tier must keep at least one rate entry")
	}

	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rate entry")
	}
	return nil
}

// DeleteTier removes a tier together with its history.
func (s *RateService) DeleteTier(ctx context.Context, tierID string) error {
	if _, err := s.repo.FindTier(ctx, tierID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "rate tier not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tier")
	}
	if err := s.repo.DeleteTier(ctx, tierID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete tier")
	}
	return nil
}
