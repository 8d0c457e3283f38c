// Package pointsservice exposes streak settings reads/updates and scoring.
package pointsservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	pointsdomain "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/domain"
	pointsdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/infrastructure/repositories"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

// Service reads and mutates streak settings and scores activities.
type Service interface {
	// GetSettings returns the persisted settings, substituting the defaults
	// when nothing is stored or the stored payload fails validation.
	// It is read on every points computation; there is no caching beyond
	// the request lifetime.
	GetSettings(ctx context.Context) (pointsdomain.Settings, error)
	// UpdateSettings validates and persists new settings.
	UpdateSettings(ctx context.Context, settings pointsdomain.Settings) error
	// Score applies the current settings to one activity.
	Score(ctx context.Context, name sharedtypes.ActivityName, basePoints sharedtypes.Points, streakLength sharedtypes.StreakLength) (sharedtypes.ProcessedActivity, error)
}

// PointsService implements Service.
type PointsService struct {
	repo    pointsdb.Repository
	logger  *slog.Logger
	metrics observability.Metrics
	tracer  trace.Tracer
}

// NewPointsService creates a new PointsService.
func NewPointsService(
	repo pointsdb.Repository,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
) *PointsService {
	return &PointsService{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

func (s *PointsService) GetSettings(ctx context.Context) (pointsdomain.Settings, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "GetSettings", "points")
	defer func() {
		s.metrics.RecordOperationDuration(ctx, "GetSettings", "points", time.Since(start))
	}()

	settings, found, err := s.repo.Get(ctx, nil)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load streak settings, using defaults",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		s.metrics.RecordOperationFailure(ctx, "GetSettings", "points")
		return pointsdomain.DefaultSettings(), nil
	}
	if !found {
		return pointsdomain.DefaultSettings(), nil
	}

	if err := settings.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Persisted streak settings failed validation, using defaults",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		return pointsdomain.DefaultSettings(), nil
	}

	s.metrics.RecordOperationSuccess(ctx, "GetSettings", "points")
	return settings, nil
}

func (s *PointsService) UpdateSettings(ctx context.Context, settings pointsdomain.Settings) error {
	ctx, span := s.tracer.Start(ctx, "UpdateStreakSettings")
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, "UpdateSettings", "points")

	if err := settings.Validate(); err != nil {
		s.metrics.RecordOperationFailure(ctx, "UpdateSettings", "points")
		return fmt.Errorf("invalid streak settings: %w", err)
	}

	if err := s.repo.Put(ctx, nil, settings); err != nil {
		s.metrics.RecordOperationFailure(ctx, "UpdateSettings", "points")
		return fmt.Errorf("UpdateSettings: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "UpdateSettings", "points")
	s.logger.InfoContext(ctx, "Streak settings updated",
		attr.ExtractCorrelationID(ctx),
		attr.Int("bonus1_threshold", settings.Thresholds.Bonus1),
		attr.Int("bonus2_threshold", settings.Thresholds.Bonus2),
		attr.Int("multiplier_threshold", settings.Thresholds.Multiplier),
	)
	return nil
}

func (s *PointsService) Score(ctx context.Context, name sharedtypes.ActivityName, basePoints sharedtypes.Points, streakLength sharedtypes.StreakLength) (sharedtypes.ProcessedActivity, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return sharedtypes.ProcessedActivity{}, err
	}
	return pointsdomain.ComputePoints(name, basePoints, streakLength, settings), nil
}

var _ Service = (*PointsService)(nil)
