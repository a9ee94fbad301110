package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shreeji-gems/diamond-api/internal/models"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
)

type lotRepository interface {
	List(ctx context.Context, filter models.LotFilter) ([]models.LotRecord, error)
	ListAll(ctx context.Context, filter models.LotFilter, limit int) ([]models.LotRecord, error)
	Totals(ctx context.Context, filter models.LotFilter) (*models.LotTotals, error)
	FindByID(ctx context.Context, id string) (*models.DiamondLot, error)
	FindByUniqueID(ctx context.Context, uniqueID int64) (*models.LotRecord, error)
	CreateBatch(ctx context.Context, partyID, kapanNumber string, items []models.LotItemInput, createdBy *string) ([]models.DiamondLot, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}

type rateResolver interface {
	ResolveRate(ctx context.Context, partyID string, weight float64) (float64, error)
}

// LotListRequest scopes one ledger page. The sort toggles are exclusive: at
// most one may be asc or desc, the rest must be default.
type LotListRequest struct {
	Sort             models.LotSort `json:"sort"`
	PartyIDs         []string       `json:"partyIds"`
	StatusIDs        []string       `json:"statusIds"`
	PaymentStatusIDs []string       `json:"paymentStatusIds"`
	KapanNumbers     []string       `json:"kapanNumbers"`
	Search           string         `json:"search"`
	StartDate        *time.Time     `json:"startDate"`
	EndDate          *time.Time     `json:"endDate"`
	Page             int            `json:"page"`
	Record           int            `json:"record"`
}

// LotCreateRequest issues a batch of lots under one party and kapan number.
type LotCreateRequest struct {
	PartyID     string                `json:"partyId" validate:"required"`
	KapanNumber string                `json:"kapanNumber" validate:"required,min=1,max=64"`
	Items       []models.LotItemInput `json:"items" validate:"required,min=1,dive"`
}

// LotUpdateRequest is one inline cell edit. Exactly the set fields change;
// everything else on the row stays as it is.
type LotUpdateRequest struct {
	Date            *time.Time `json:"date"`
	PKTNumber       *string    `json:"pktNumber" validate:"omitempty,min=1,max=64"`
	IssueWeight     *float64   `json:"issueWeight" validate:"omitempty,gt=0"`
	ExpectedWeight  *float64   `json:"expectedWeight" validate:"omitempty,gt=0"`
	PolishWeight    *float64   `json:"polishWeight" validate:"omitempty,gt=0"`
	HPHTWeight      *float64   `json:"hphtWeight" validate:"omitempty,gt=0"`
	ShapeID         *string    `json:"shapeId"`
	ColorID         *string    `json:"colorId"`
	ClarityID       *string    `json:"clarityId"`
	StatusID        *string    `json:"statusId"`
	PaymentStatusID *string    `json:"paymentStatusId"`
	PolishDate      *time.Time `json:"polishDate"`
	HPHTDate        *time.Time `json:"hphtDate"`
	Rate            *float64   `json:"rate" validate:"omitempty,gte=0"`
	Remark          *string    `json:"remark" validate:"omitempty,max=512"`
	CreatedBy       *string    `json:"createdBy"`
}

// LotService drives the diamond lot ledger.
type LotService struct {
	repo      lotRepository
	parties   partyRepository
	rates     rateResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLotService constructs a LotService instance.
func NewLotService(repo lotRepository, parties partyRepository, rates rateResolver, validate *validator.Validate, logger *zap.Logger) *LotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LotService{repo: repo, parties: parties, rates: rates, validator: validate, logger: logger}
}

// List returns one ledger page with selection-wide totals. The kapan filter is
// pruned server side so it never selects beyond the chosen parties.
func (s *LotService) List(ctx context.Context, req LotListRequest) (*models.LotPage, error) {
	if err := validateSort(req.Sort); err != nil {
		return nil, err
	}

	kapans, err := s.pruneKapans(ctx, req.PartyIDs, req.KapanNumbers)
	if err != nil {
		return nil, err
	}

	record := req.Record
	if record <= 0 {
		record = 20
	}

	filter := models.LotFilter{
		Sort:             req.Sort,
		PartyIDs:         req.PartyIDs,
		StatusIDs:        req.StatusIDs,
		PaymentStatusIDs: req.PaymentStatusIDs,
		KapanNumbers:     kapans,
		Search:           normalizeSearch(req.Search),
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Page:             req.Page,
		Record:           record,
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lots")
	}
	if rows == nil {
		rows = []models.LotRecord{}
	}

	totals, err := s.repo.Totals(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute lot totals")
	}

	totalPages := 0
	if totals.TotalItems > 0 {
		totalPages = (totals.TotalItems + record - 1) / record
	}

	return &models.LotPage{Data: rows, LotTotals: *totals, TotalPages: totalPages}, nil
}

// GetByUniqueID looks up a single ledger row by its sequential display id.
func (s *LotService) GetByUniqueID(ctx context.Context, uniqueID int64) (*models.LotRecord, error) {
	if uniqueID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "uniqueId must be positive")
	}
	row, err := s.repo.FindByUniqueID(ctx, uniqueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lot")
	}
	return row, nil
}

// Create issues one lot per item under the party's kapan number. The kapan
// number is recorded on the party so the filter select can offer it later.
func (s *LotService) Create(ctx context.Context, req LotCreateRequest) ([]models.DiamondLot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lot payload")
	}
	for _, item := range req.Items {
		if item.PKTNumber == "" || item.IssueWeight <= 0 || item.ExpectedWeight <= 0 || item.ShapeID == "" || item.Date.IsZero() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "each item needs pkt number, weights, shape and date")
		}
	}

	party, err := s.parties.FindByID(ctx, req.PartyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "party not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load party")
	}
	if !party.Active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "party is inactive")
	}

	var createdBy *string
	if userID := userIDFrom(ctx); userID != "" {
		createdBy = &userID
	}

	lots, err := s.repo.CreateBatch(ctx, party.ID, req.KapanNumber, req.Items, createdBy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lots")
	}

	if err := s.parties.AddKapanNumber(ctx, party.ID, req.KapanNumber); err != nil {
		s.logger.Warn("failed to record kapan number on party",
			zap.String("party_id", party.ID), zap.String("kapan", req.KapanNumber), zap.Error(err))
	}

	return lots, nil
}

// Update applies an inline cell edit and keeps the amount column consistent:
// whenever rate and polish weight are both known the amount is their product,
// rounded to two decimals. A missing rate is resolved from the party's tiers
// by polish weight.
func (s *LotService) Update(ctx context.Context, id string, req LotUpdateRequest) (*models.DiamondLot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	lot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lot")
	}

	fields := map[string]interface{}{}
	setTime := func(column string, value *time.Time, dest **time.Time) {
		if value != nil {
			fields[column] = *value
			*dest = value
		}
	}
	setString := func(column string, value *string, dest **string) {
		if value != nil {
			fields[column] = *value
			*dest = value
		}
	}
	setFloat := func(column string, value *float64, dest **float64) {
		if value != nil {
			fields[column] = *value
			*dest = value
		}
	}

	if req.Date != nil {
		fields["date"] = *req.Date
		lot.Date = *req.Date
	}
	if req.PKTNumber != nil {
		fields["pkt_number"] = *req.PKTNumber
		lot.PKTNumber = *req.PKTNumber
	}
	if req.IssueWeight != nil {
		fields["issue_weight"] = *req.IssueWeight
		lot.IssueWeight = *req.IssueWeight
	}
	if req.ExpectedWeight != nil {
		fields["expected_weight"] = *req.ExpectedWeight
		lot.ExpectedWeight = *req.ExpectedWeight
	}
	if req.ShapeID != nil {
		fields["shape_id"] = *req.ShapeID
		lot.ShapeID = *req.ShapeID
	}
	setFloat("polish_weight", req.PolishWeight, &lot.PolishWeight)
	setFloat("hpht_weight", req.HPHTWeight, &lot.HPHTWeight)
	setString("color_id", req.ColorID, &lot.ColorID)
	setString("clarity_id", req.ClarityID, &lot.ClarityID)
	setString("status_id", req.StatusID, &lot.StatusID)
	setString("payment_status_id", req.PaymentStatusID, &lot.PaymentStatusID)
	setTime("polish_date", req.PolishDate, &lot.PolishDate)
	setTime("hpht_date", req.HPHTDate, &lot.HPHTDate)
	setFloat("rate", req.Rate, &lot.Rate)
	setString("remark", req.Remark, &lot.Remark)
	setString("created_by", req.CreatedBy, &lot.CreatedBy)

	if len(fields) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no editable field in payload")
	}

	if req.Rate != nil || req.PolishWeight != nil {
		s.recomputeAmount(ctx, lot, fields)
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lot")
	}

	lot.UpdatedAt = time.Now().UTC()
	return lot, nil
}

// recomputeAmount fills rate from the party's tiers when absent and derives
// the amount whenever rate and polish weight are both known.
func (s *LotService) recomputeAmount(ctx context.Context, lot *models.DiamondLot, fields map[string]interface{}) {
	if lot.Rate == nil && lot.PolishWeight != nil && s.rates != nil {
		rate, err := s.rates.ResolveRate(ctx, lot.PartyID, *lot.PolishWeight)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("rate resolution failed", zap.String("lot_id", lot.ID), zap.Error(err))
			}
		} else {
			lot.Rate = &rate
			fields["rate"] = rate
		}
	}

	if lot.Rate != nil && lot.PolishWeight != nil {
		amount := math.Round(*lot.Rate**lot.PolishWeight*100) / 100
		lot.Amount = &amount
		fields["amount"] = amount
	}
}

// Export returns the whole filtered selection, ordered as displayed.
func (s *LotService) Export(ctx context.Context, req LotListRequest, limit int) ([]models.LotRecord, *models.LotTotals, error) {
	if err := validateSort(req.Sort); err != nil {
		return nil, nil, err
	}
	kapans, err := s.pruneKapans(ctx, req.PartyIDs, req.KapanNumbers)
	if err != nil {
		return nil, nil, err
	}

	filter := models.LotFilter{
		Sort:             req.Sort,
		PartyIDs:         req.PartyIDs,
		StatusIDs:        req.StatusIDs,
		PaymentStatusIDs: req.PaymentStatusIDs,
		KapanNumbers:     kapans,
		Search:           normalizeSearch(req.Search),
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	}

	rows, err := s.repo.ListAll(ctx, filter, limit)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export rows")
	}
	totals, err := s.repo.Totals(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute export totals")
	}
	return rows, totals, nil
}

// pruneKapans drops kapan selections not backed by the chosen parties. With no
// party selected the kapan filter cannot apply at all.
func (s *LotService) pruneKapans(ctx context.Context, partyIDs, kapans []string) ([]string, error) {
	if len(kapans) == 0 {
		return nil, nil
	}
	if len(partyIDs) == 0 {
		return nil, nil
	}

	parties, err := s.parties.FindByIDs(ctx, partyIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parties for kapan filter")
	}

	allowed := make(map[string]struct{})
	for _, party := range parties {
		for _, kapan := range party.KapanNumbers {
			allowed[kapan] = struct{}{}
		}
	}

	pruned := make([]string, 0, len(kapans))
	for _, kapan := range kapans {
		if _, ok := allowed[kapan]; ok {
			pruned = append(pruned, kapan)
		}
	}
	return pruned, nil
}

// normalizeSearch strips the grid's display prefix: rows render as
// KD<uniqueId>, so users paste terms like "KD12" or "KD-12" back into the
// search box. The stored unique id is numeric.
func normalizeSearch(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && strings.EqualFold(s[:2], "KD") {
		s = strings.TrimPrefix(s[2:], "-")
	}
	return strings.TrimSpace(s)
}

func validateSort(s models.LotSort) error {
	for _, direction := range []models.SortDirection{s.UniqueID, s.Date, s.PolishDate, s.HPHTDate} {
		if !direction.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, "sort direction must be asc, desc or default")
		}
	}
	active := 0
	for _, direction := range []models.SortDirection{s.UniqueID, s.Date, s.PolishDate, s.HPHTDate} {
		if direction.Active() {
			active++
		}
	}
	if active > 1 {
		return appErrors.ErrAmbiguousSort
	}
	return nil
}
