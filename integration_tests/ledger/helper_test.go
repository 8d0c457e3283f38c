package ledgerintegrationtests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	catalogdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/infrastructure/repositories"
	householddb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/household/infrastructure/repositories"
	ledgerservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/application"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
	pointsservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/application"
	pointsdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/infrastructure/repositories"
	streakservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/streak/application"
	summaryservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/summary/application"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/cache"
)

// TestDeps wires the full service stack against the shared test database.
type TestDeps struct {
	Ctx        context.Context
	DB         *bun.DB
	LedgerRepo *ledgerdb.LedgerDBImpl
	Ledger     *ledgerservice.LedgerService
	Summary    *summaryservice.SummaryService
	Streaks    *streakservice.StreakService
	Catalog    *catalogservice.CatalogService
}

// setupDeps truncates all tables, seeds the catalog, and builds the services
// over the real repositories with a local-only cache.
func setupDeps(t *testing.T, defs []catalogdb.ActivityDefinition) TestDeps {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, testEnv.TruncateAll(ctx))

	db := testEnv.DB
	obs := observability.NewNoOp()

	store, err := cache.New(ctx, nil, cache.Config{
		Bucket:     "test",
		TTL:        time.Minute,
		OpTimeout:  time.Second,
		KeyVersion: "v1",
	}, obs.Logger, obs.Metrics)
	require.NoError(t, err)

	catalogRepo := &catalogdb.CatalogDBImpl{DB: db}
	ledgerRepo := &ledgerdb.LedgerDBImpl{DB: db}
	householdRepo := &householddb.HouseholdDBImpl{DB: db}
	settingsRepo := &pointsdb.SettingsDBImpl{DB: db}

	require.NoError(t, catalogRepo.ReplaceAll(ctx, nil, defs))

	catalog := catalogservice.NewCatalogService(catalogRepo, store, obs.Logger, obs.Metrics, obs.Tracer)
	points := pointsservice.NewPointsService(settingsRepo, obs.Logger, obs.Metrics, obs.Tracer)
	streaks := streakservice.NewStreakService(ledgerRepo, householdRepo, catalog, obs.Logger, obs.Metrics, obs.Tracer)
	ledger := ledgerservice.NewLedgerService(ledgerRepo, catalog, points, streaks, obs.Logger, obs.Metrics, obs.Tracer)
	summary := summaryservice.NewSummaryService(ledgerRepo, catalog, store, obs.Logger, obs.Metrics, obs.Tracer)

	return TestDeps{
		Ctx:        ctx,
		DB:         db,
		LedgerRepo: ledgerRepo,
		Ledger:     ledger,
		Summary:    summary,
		Streaks:    streaks,
		Catalog:    catalog,
	}
}
