package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shreeji-gems/diamond-api/internal/models"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
)

const masterDataCacheKey = "masterdata:v1"

// MasterData is the aggregated select-population payload: every reference
// list the dashboard's dropdowns need, fetched in one round trip.
type MasterData struct {
	Colors          []models.Reference `json:"colors"`
	Clarities       []models.Reference `json:"clarities"`
	Shapes          []models.Reference `json:"shapes"`
	Statuses        []models.Reference `json:"statuses"`
	PaymentStatuses []models.Reference `json:"paymentStatuses"`
	Employees       []models.Reference `json:"employees"`
	Parties         []models.Party     `json:"parties"`
	Users           []models.Option    `json:"users"`
}

// MasterDataService assembles and caches the aggregate payload. Any reference
// mutation invalidates the cached copy.
type MasterDataService struct {
	colors          *ReferenceService
	clarities       *ReferenceService
	shapes          *ReferenceService
	statuses        *ReferenceService
	paymentStatuses *ReferenceService
	employees       *ReferenceService
	parties         *PartyService
	auth            *AuthService
	redis           *redis.Client
	metrics         *MetricsService
	ttl             time.Duration
	logger          *zap.Logger
}

// NewMasterDataService constructs a MasterDataService instance. The redis
// client may be nil, in which case every call assembles the payload fresh.
func NewMasterDataService(
	colors, clarities, shapes, statuses, paymentStatuses, employees *ReferenceService,
	parties *PartyService,
	auth *AuthService,
	redisClient *redis.Client,
	metrics *MetricsService,
	ttl time.Duration,
	logger *zap.Logger,
) *MasterDataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MasterDataService{
		colors:          colors,
		clarities:       clarities,
		shapes:          shapes,
		statuses:        statuses,
		paymentStatuses: paymentStatuses,
		employees:       employees,
		parties:         parties,
		auth:            auth,
		redis:           redisClient,
		metrics:         metrics,
		ttl:             ttl,
		logger:          logger,
	}
}

// Get returns the aggregate payload, serving the cached copy when present.
func (s *MasterDataService) Get(ctx context.Context) (*MasterData, error) {
	if s.redis != nil {
		start := time.Now()
		raw, err := s.redis.Get(ctx, masterDataCacheKey).Bytes()
		if err == nil {
			var cached MasterData
			if err := json.Unmarshal(raw, &cached); err == nil {
				s.metrics.RecordCacheOperation(true, time.Since(start))
				return &cached, nil
			}
			s.logger.Warn("master data cache payload corrupt", zap.Error(err))
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("master data cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false, time.Since(start))
	}

	data, err := s.assemble(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		start := time.Now()
		if raw, err := json.Marshal(data); err == nil {
			if err := s.redis.Set(ctx, masterDataCacheKey, raw, s.ttl).Err(); err != nil {
				s.logger.Warn("master data cache write failed", zap.Error(err))
			}
		}
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	return data, nil
}

// Invalidate drops the cached payload. Reference services call this after
// every mutation.
func (s *MasterDataService) Invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, masterDataCacheKey).Err(); err != nil {
		s.logger.Warn("master data cache invalidate failed", zap.Error(err))
	}
}

func (s *MasterDataService) assemble(ctx context.Context) (*MasterData, error) {
	colors, err := s.colors.All(ctx)
	if err != nil {
		return nil, err
	}
	clarities, err := s.clarities.All(ctx)
	if err != nil {
		return nil, err
	}
	shapes, err := s.shapes.All(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.statuses.All(ctx)
	if err != nil {
		return nil, err
	}
	paymentStatuses, err := s.paymentStatuses.All(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := s.employees.All(ctx)
	if err != nil {
		return nil, err
	}
	parties, err := s.parties.All(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.auth.Users(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	options := make([]models.Option, 0, len(users))
	for _, user := range users {
		options = append(options, models.Option{Value: user.ID, Label: user.UserName})
	}

	return &MasterData{
		Colors:          colors,
		Clarities:       clarities,
		Shapes:          shapes,
		Statuses:        statuses,
		PaymentStatuses: paymentStatuses,
		Employees:       employees,
		Parties:         parties,
		Users:           options,
	}, nil
}
