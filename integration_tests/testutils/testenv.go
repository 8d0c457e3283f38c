package testutils

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	catalogmigrations "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/infrastructure/repositories/migrations"
	householdmigrations "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/household/infrastructure/repositories/migrations"
	ledgermigrations "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories/migrations"
	pointsmigrations "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/infrastructure/repositories/migrations"
	"github.com/Hearth-Ledger-Club/hearth-bot/integration_tests/containers"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/db/bundb"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestEnvironment is a migrated Postgres container shared by a test package.
type TestEnvironment struct {
	Ctx       context.Context
	DB        *bun.DB
	DSN       string
	container *postgres.PostgresContainer
}

// NewTestEnvironment starts Postgres and applies every module's migrations.
func NewTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	db, err := bundb.NewBunDB(ctx, dsn)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to open bun DB: %w", err)
	}

	for name, migrations := range map[string]*migrate.Migrations{
		"catalog":   catalogmigrations.Migrations,
		"points":    pointsmigrations.Migrations,
		"ledger":    ledgermigrations.Migrations,
		"household": householdmigrations.Migrations,
	} {
		migrator := migrate.NewMigrator(db, migrations)
		if err := migrator.Init(ctx); err != nil {
			_ = db.Close()
			_ = pgContainer.Terminate(ctx)
			return nil, fmt.Errorf("failed to init %s migrations: %w", name, err)
		}
		if _, err := migrator.Migrate(ctx); err != nil {
			_ = db.Close()
			_ = pgContainer.Terminate(ctx)
			return nil, fmt.Errorf("failed to run %s migrations: %w", name, err)
		}
	}

	return &TestEnvironment{Ctx: ctx, DB: db, DSN: dsn, container: pgContainer}, nil
}

// Cleanup closes the DB and terminates the container.
func (e *TestEnvironment) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if e.DB != nil {
		if err := e.DB.Close(); err != nil {
			log.Printf("failed to close test DB: %v", err)
		}
	}
	if e.container != nil {
		if err := e.container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate postgres container: %v", err)
		}
	}
}

// TruncateAll empties every table between tests so suites stay independent.
func (e *TestEnvironment) TruncateAll(ctx context.Context) error {
	for _, table := range []string{
		"ledger_rows",
		"activity_definitions",
		"household_members",
		"streak_settings",
	} {
		if _, err := e.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" RESTART IDENTITY CASCADE"); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
