package locations

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/upb/logistics-assistant/models"
	"github.com/upb/logistics-assistant/repositories"
	"github.com/upb/logistics-assistant/services"
)

const (
	DefaultTopLimit = 10
	MinTopLimit     = 1
	MaxTopLimit     = 100
)

// Service serves read-only lookups over location_metrics
type Service struct {
	repo   repositories.LocationMetricRepository
	logger *zap.Logger
}

// NewService creates a new locations service
func NewService(repo repositories.LocationMetricRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Top returns the locations with the most trips, busiest first
func (s *Service) Top(ctx context.Context, limit int) ([]models.LocationMetric, error) {
	if limit < MinTopLimit || limit > MaxTopLimit {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "limit out of range", nil).
			WithDetail("limit", "limit must be between 1 and 100")
	}

	metrics, err := s.repo.Top(ctx, limit)
	if err != nil {
		s.logger.Error("failed to load top locations", zap.Int("limit", limit), zap.Error(err))
		return nil, services.WrapInternal(services.ErrDatabaseError.Message, err)
	}
	return metrics, nil
}

// Get returns the metrics of a single location
func (s *Service) Get(ctx context.Context, locationID int64) (*models.LocationMetric, error) {
	m, err := s.repo.GetByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrLocationNotFound
		}
		s.logger.Error("failed to load location", zap.Int64("location_id", locationID), zap.Error(err))
		return nil, services.WrapInternal(services.ErrDatabaseError.Message, err)
	}
	return m, nil
}
