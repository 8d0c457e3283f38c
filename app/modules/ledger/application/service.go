// Package ledgerservice orchestrates the submission pipeline: date
// resolution, streak lookup, scoring, encoding, and the row upsert.
package ledgerservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
	pointsservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/application"
	streakservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/streak/application"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/results"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

// LedgerService implements Service.
type LedgerService struct {
	repo    ledgerdb.Repository
	catalog catalogservice.Service
	points  pointsservice.Service
	streaks streakservice.Service
	logger  *slog.Logger
	metrics observability.Metrics
	tracer  trace.Tracer
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	repo ledgerdb.Repository,
	catalog catalogservice.Service,
	points pointsservice.Service,
	streaks streakservice.Service,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
) *LedgerService {
	return &LedgerService{
		repo:    repo,
		catalog: catalog,
		points:  points,
		streaks: streaks,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *LedgerService,
	ctx context.Context,
	operationName string,
	identity sharedtypes.Identity,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("identity", identity.String()),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, "ledger")

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, "ledger", time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.Identity("identity", identity),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, "ledger")
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Identity("identity", identity),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, "ledger")
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Identity("identity", identity),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.metrics.RecordOperationSuccess(ctx, operationName, "ledger")
	}

	return result, nil
}

// ClearLedger deletes every ledger row.
func (s *LedgerService) ClearLedger(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "ClearLedger")
	defer span.End()

	n, err := s.repo.ClearAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("ClearLedger: %w", err)
	}

	s.logger.InfoContext(ctx, "Ledger cleared",
		attr.ExtractCorrelationID(ctx),
		attr.Int("rows_deleted", int(n)),
	)
	return n, nil
}

var _ Service = (*LedgerService)(nil)
