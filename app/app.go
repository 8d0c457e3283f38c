// Package app wires configuration, storage, transport, and the modules into
// one runnable application.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/uptrace/bun"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/api"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/eventbus"
	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	catalogdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/infrastructure/repositories"
	householddb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/household/infrastructure/repositories"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
	pointsservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/application"
	pointsdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/infrastructure/repositories"
	streakservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/streak/application"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/modules/summary"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/utils"
	"github.com/Hearth-Ledger-Club/hearth-bot/config"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/cache"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/db/bundb"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/mailer"
)

// App is the assembled application.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router
	Cache         cache.Store
	LedgerModule  *ledger.Module
	SummaryModule *summary.Module
	APIServer     *api.Server

	natsConn *nc.Conn
	helpers  utils.Helpers
}

// NewApp builds the full application graph.
func NewApp(ctx context.Context, cfg *config.Config, obs *observability.Observability) (*App, error) {
	logger := obs.Logger

	db, err := bundb.NewBunDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	bus, err := eventbus.New(ctx, cfg.NATS.URL, logger, "hearth-bot")
	if err != nil {
		return nil, fmt.Errorf("failed to connect event bus: %w", err)
	}

	// Separate plain connection for the JetStream KV cache tier.
	natsConn, err := nc.Connect(cfg.NATS.URL,
		nc.RetryOnFailedConnect(true),
		nc.Timeout(10*time.Second),
	)
	if err != nil {
		logger.WarnContext(ctx, "NATS KV connection failed, cache runs local-only", attr.Error(err))
		natsConn = nil
	}

	cacheStore, err := cache.New(ctx, natsConn, cache.Config{
		Bucket:     cfg.Cache.Bucket,
		TTL:        cfg.Cache.TTL,
		OpTimeout:  cfg.Cache.OpTimeout,
		KeyVersion: cfg.Cache.KeyVersion,
	}, logger, obs.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}

	helpers := utils.NewHelpers()

	// Repositories.
	ledgerRepo := &ledgerdb.LedgerDBImpl{DB: db}
	catalogRepo := &catalogdb.CatalogDBImpl{DB: db}
	settingsRepo := &pointsdb.SettingsDBImpl{DB: db}
	householdRepo := &householddb.HouseholdDBImpl{DB: db}

	// Core services shared across modules.
	catalogSvc := catalogservice.NewCatalogService(catalogRepo, cacheStore, logger, obs.Metrics, obs.Tracer)
	pointsSvc := pointsservice.NewPointsService(settingsRepo, logger, obs.Metrics, obs.Tracer)
	streakSvc := streakservice.NewStreakService(ledgerRepo, householdRepo, catalogSvc, logger, obs.Metrics, obs.Tracer)

	ledgerModule, err := ledger.NewLedgerModule(
		ctx, cfg, *obs,
		ledgerRepo, catalogSvc, pointsSvc, streakSvc,
		bus, router, helpers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger module: %w", err)
	}

	mail := mailer.New(ctx, cfg.Mail, logger)

	summaryModule, err := summary.NewSummaryModule(
		ctx, cfg, *obs, db,
		ledgerRepo, householdRepo, catalogSvc,
		cacheStore, mail, bus, router, helpers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create summary module: %w", err)
	}

	apiServer := api.NewServer(
		cfg, logger,
		ledgerModule.LedgerService,
		summaryModule.SummaryService,
		streakSvc, pointsSvc, catalogSvc,
		householdRepo, summaryModule.Queue,
		bus, helpers,
	)

	return &App{
		Config:        cfg,
		Observability: obs,
		DB:            db,
		EventBus:      bus,
		Router:        router,
		Cache:         cacheStore,
		LedgerModule:  ledgerModule,
		SummaryModule: summaryModule,
		APIServer:     apiServer,
		natsConn:      natsConn,
		helpers:       helpers,
	}, nil
}

// Run starts the router, the modules, and the API listener, then blocks until
// the context is cancelled.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger

	var wg sync.WaitGroup

	wg.Add(1)
	go app.LedgerModule.Run(ctx, &wg)

	wg.Add(1)
	go app.SummaryModule.Run(ctx, &wg)

	go func() {
		if err := app.Router.Run(ctx); err != nil {
			logger.Error("Watermill router stopped", attr.Error(err))
		}
	}()

	go func() {
		if err := app.APIServer.Start(); err != nil {
			logger.Error("API server stopped", attr.Error(err))
		}
	}()

	logger.InfoContext(ctx, "hearth-bot running")

	<-ctx.Done()
	wg.Wait()
	return nil
}

// Close releases every resource in reverse dependency order.
func (app *App) Close() error {
	logger := app.Observability.Logger

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.APIServer.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop API server", attr.Error(err))
	}

	_ = app.LedgerModule.Close()
	_ = app.SummaryModule.Close()

	if err := app.Router.Close(); err != nil {
		logger.Error("Failed to close watermill router", attr.Error(err))
	}

	if err := app.EventBus.Close(); err != nil {
		logger.Error("Failed to close event bus", attr.Error(err))
	}

	if app.natsConn != nil {
		app.natsConn.Close()
	}

	if err := app.DB.Close(); err != nil {
		logger.Error("Failed to close database", attr.Error(err))
	}

	return nil
}
