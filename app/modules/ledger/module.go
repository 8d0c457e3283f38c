// Package ledger assembles the ledger module: service, handlers, and router.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/eventbus"
	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	ledgerservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/application"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
	ledgerrouter "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/router"
	pointsservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/application"
	streakservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/streak/application"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/utils"
	"github.com/Hearth-Ledger-Club/hearth-bot/config"
)

// Module is the ledger module.
type Module struct {
	EventBus      eventbus.EventBus
	LedgerService ledgerservice.Service
	LedgerRouter  *ledgerrouter.LedgerRouter
	config        *config.Config
	observability observability.Observability
	cancelFunc    context.CancelFunc
	helper        utils.Helpers
}

// NewLedgerModule creates the ledger module and configures its router.
func NewLedgerModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	repo ledgerdb.Repository,
	catalog catalogservice.Service,
	points pointsservice.Service,
	streaks streakservice.Service,
	eventBus eventbus.EventBus,
	router *message.Router,
	helpers utils.Helpers,
) (*Module, error) {
	service := ledgerservice.NewLedgerService(
		repo, catalog, points, streaks,
		obs.Logger, obs.Metrics, obs.Tracer,
	)

	moduleRouter := ledgerrouter.NewLedgerRouter(
		obs.Logger, router, eventBus, eventBus, cfg, helpers, obs.Tracer, obs.Registry,
	)

	if err := moduleRouter.Configure(ctx, service, obs.Metrics); err != nil {
		return nil, fmt.Errorf("failed to configure ledger router: %w", err)
	}

	return &Module{
		EventBus:      eventBus,
		LedgerService: service,
		LedgerRouter:  moduleRouter,
		config:        cfg,
		observability: obs,
		helper:        helpers,
	}, nil
}

// Run keeps the module alive until the context is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.observability.Logger.InfoContext(ctx, "Starting ledger module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.observability.Logger.Info("Ledger module stopped")
}

func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
