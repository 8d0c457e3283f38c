// Package summary assembles the aggregation module and the digest queue.
package summary

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/eventbus"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/events"
	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	householddb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/household/infrastructure/repositories"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
	summaryservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/summary/application"
	summaryjobs "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/summary/infrastructure/jobs"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/utils"
	"github.com/Hearth-Ledger-Club/hearth-bot/config"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/cache"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/dates"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/mailer"
)

// Module is the summary module: the aggregator plus the digest job queue.
type Module struct {
	SummaryService summaryservice.Service
	Queue          summaryjobs.QueueService
	config         *config.Config
	observability  observability.Observability
	cancelFunc     context.CancelFunc
}

// NewSummaryModule creates the summary module. It registers a handler that
// turns digest request events into queued River jobs.
func NewSummaryModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	ledger ledgerdb.Repository,
	household householddb.Repository,
	catalog catalogservice.Service,
	cacheStore cache.Store,
	mail mailer.Mailer,
	eventBus eventbus.EventBus,
	router *message.Router,
	helpers utils.Helpers,
) (*Module, error) {
	service := summaryservice.NewSummaryService(
		ledger, catalog, cacheStore,
		obs.Logger, obs.Metrics, obs.Tracer,
	)

	queue, err := summaryjobs.NewService(
		ctx, db, cfg.Postgres.DSN,
		service, household, mail, eventBus, helpers,
		obs.Logger, obs.Metrics,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create digest queue: %w", err)
	}

	router.AddNoPublisherHandler(
		"summary."+events.WeeklyDigestRequestedV1,
		events.WeeklyDigestRequestedV1,
		eventBus.Subscriber(),
		func(msg *message.Message) error {
			var payload events.WeeklyDigestRequestedPayloadV1
			if err := helpers.UnmarshalPayload(msg, &payload); err != nil {
				obs.Logger.Error("Failed to unmarshal digest request",
					attr.String("message_id", msg.UUID),
					attr.Error(err),
				)
				// Poison message; drop rather than redeliver.
				return nil
			}

			reference := payload.Reference
			if reference == "" {
				reference = dates.YMD(time.Now())
			}
			return queue.ScheduleWeeklyDigest(msg.Context(), payload.HouseholdID, reference, time.Now())
		},
	)

	// Back-dated submissions can land inside a window that was already cached
	// as closed; evict it so the next aggregation rereads the ledger.
	router.AddNoPublisherHandler(
		"summary."+events.ActivitySubmissionProcessedV1,
		events.ActivitySubmissionProcessedV1,
		eventBus.Subscriber(),
		func(msg *message.Message) error {
			var payload events.ActivitySubmissionProcessedPayloadV1
			if err := helpers.UnmarshalPayload(msg, &payload); err != nil {
				obs.Logger.Error("Failed to unmarshal processed submission",
					attr.String("message_id", msg.UUID),
					attr.Error(err),
				)
				return nil
			}

			day, err := dates.ParseYMD(payload.Date)
			if err != nil {
				obs.Logger.Error("Processed submission carries an unparseable date",
					attr.String("date", payload.Date),
					attr.Error(err),
				)
				return nil
			}

			service.InvalidateWindow(msg.Context(), day)
			return nil
		},
	)

	return &Module{
		SummaryService: service,
		Queue:          queue,
		config:         cfg,
		observability:  obs,
	}, nil
}

// Run starts the digest queue and keeps the module alive until the context is
// cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.observability.Logger.InfoContext(ctx, "Starting summary module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.Queue.Start(ctx); err != nil {
		m.observability.Logger.Error("Failed to start digest queue", attr.Error(err))
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := m.Queue.Stop(stopCtx); err != nil {
		m.observability.Logger.Error("Failed to stop digest queue", attr.Error(err))
	}

	m.observability.Logger.Info("Summary module stopped")
}

func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
