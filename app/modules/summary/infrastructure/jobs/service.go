// Package summaryjobs schedules weekly digest deliveries on River.
package summaryjobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/eventbus"
	householddb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/household/infrastructure/repositories"
	summaryservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/summary/application"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/utils"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/mailer"
)

// QueueService schedules and cancels digest jobs.
type QueueService interface {
	// ScheduleWeeklyDigest schedules one household's digest at the given time.
	ScheduleWeeklyDigest(ctx context.Context, householdID sharedtypes.HouseholdID, reference string, at time.Time) error
	// CancelHouseholdJobs cancels pending digest jobs for a household.
	CancelHouseholdJobs(ctx context.Context, householdID sharedtypes.HouseholdID) error
	// GetScheduledJobs lists pending digest jobs for a household.
	GetScheduledJobs(ctx context.Context, householdID sharedtypes.HouseholdID) ([]JobInfo, error)
	// HealthCheck verifies the queue backend is reachable.
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service runs the digest queue on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	db      *bun.DB
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewService creates the digest queue service. River needs its own pgx pool;
// the bun handle is used only for job-table queries.
func NewService(
	ctx context.Context,
	bunDB *bun.DB,
	dsn string,
	summary summaryservice.Service,
	household householddb.Repository,
	mail mailer.Mailer,
	eventBus eventbus.EventBus,
	helpers utils.Helpers,
	logger *slog.Logger,
	metrics observability.Metrics,
) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("component", "digest_queue"),
	)

	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewWeeklyDigestWorker(summary, household, mail, eventBus, helpers, ctxLogger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			"digest":           {MaxWorkers: 5},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	ctxLogger.InfoContext(ctx, "Digest queue service initialized")

	return &Service{
		client:  riverClient,
		pool:    pool,
		db:      bunDB,
		logger:  ctxLogger,
		metrics: metrics,
	}, nil
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.logger.InfoContext(ctx, "Digest queue started")
	return nil
}

// Stop stops the River client and releases the pool.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()
	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.logger.InfoContext(ctx, "Digest queue stopped")
	return nil
}

// ScheduleWeeklyDigest schedules one household's digest. Duplicate scheduling
// for the same household and reference is suppressed by args uniqueness.
func (s *Service) ScheduleWeeklyDigest(ctx context.Context, householdID sharedtypes.HouseholdID, reference string, at time.Time) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_weekly_digest", "river")
	defer func() {
		s.metrics.RecordOperationDuration(ctx, "schedule_weekly_digest", "river", time.Since(start))
	}()

	job := WeeklyDigestJob{
		HouseholdID: householdID.String(),
		Reference:   reference,
	}

	opts := &river.InsertOpts{
		Queue: "digest",
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	}
	if at.After(time.Now()) {
		opts.ScheduledAt = at
	}

	result, err := s.client.Insert(ctx, job, opts)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "schedule_weekly_digest", "river")
		return fmt.Errorf("failed to schedule weekly digest: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_weekly_digest", "river")
	s.logger.InfoContext(ctx, "Weekly digest scheduled",
		attr.Household("household_id", householdID),
		attr.String("reference", reference),
		attr.Int("job_id", int(result.Job.ID)),
	)
	return nil
}

// CancelHouseholdJobs cancels pending digest jobs for a household.
func (s *Service) CancelHouseholdJobs(ctx context.Context, householdID sharedtypes.HouseholdID) error {
	s.metrics.RecordOperationAttempt(ctx, "cancel_household_jobs", "river")

	type riverJobRow struct {
		ID int64 `bun:"id"`
	}

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id").
		Where("kind = ?", "weekly_digest").
		Where("state IN (?, ?)", "available", "scheduled").
		Where("args->>'household_id' = ?", householdID.String()).
		Scan(ctx, &jobs)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "cancel_household_jobs", "river")
		return fmt.Errorf("failed to query jobs for cancellation: %w", err)
	}

	cancelled := 0
	for _, job := range jobs {
		if _, err := s.client.JobCancel(ctx, job.ID); err != nil {
			s.logger.WarnContext(ctx, "Failed to cancel digest job",
				attr.Household("household_id", householdID),
				attr.Int("job_id", int(job.ID)),
				attr.Error(err),
			)
			continue
		}
		cancelled++
	}

	s.metrics.RecordOperationSuccess(ctx, "cancel_household_jobs", "river")
	s.logger.InfoContext(ctx, "Digest jobs cancelled",
		attr.Household("household_id", householdID),
		attr.Int("found", len(jobs)),
		attr.Int("cancelled", cancelled),
	)
	return nil
}

// GetScheduledJobs lists digest jobs for a household, soonest first.
func (s *Service) GetScheduledJobs(ctx context.Context, householdID sharedtypes.HouseholdID) ([]JobInfo, error) {
	type riverJobRow struct {
		ID          int64      `bun:"id"`
		Kind        string     `bun:"kind"`
		State       string     `bun:"state"`
		ScheduledAt *time.Time `bun:"scheduled_at"`
		CreatedAt   time.Time  `bun:"created_at"`
		Attempt     int16      `bun:"attempt"`
		MaxAttempts int16      `bun:"max_attempts"`
	}

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "scheduled_at", "created_at", "attempt", "max_attempts").
		Where("kind = ?", "weekly_digest").
		Where("args->>'household_id' = ?", householdID.String()).
		Order("scheduled_at ASC NULLS LAST", "created_at ASC").
		Scan(ctx, &jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled jobs: %w", err)
	}

	result := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		scheduledAt := ""
		if job.ScheduledAt != nil {
			scheduledAt = job.ScheduledAt.Format(time.RFC3339)
		}
		result[i] = JobInfo{
			ID:          job.ID,
			Kind:        job.Kind,
			HouseholdID: householdID.String(),
			State:       job.State,
			ScheduledAt: scheduledAt,
			CreatedAt:   job.CreatedAt.Format(time.RFC3339),
			Attempt:     int(job.Attempt),
			MaxAttempts: int(job.MaxAttempts),
		}
	}
	return result, nil
}

// HealthCheck verifies the job table is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("river client is nil")
	}

	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	if err != nil {
		return fmt.Errorf("queue health check failed: %w", err)
	}
	return nil
}
