package householdmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	householddb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/household/infrastructure/repositories"
)

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating household_members table...")

		if _, err := db.NewCreateTable().Model((*householddb.HouseholdMember)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		if _, err := db.ExecContext(ctx,
			`CREATE INDEX IF NOT EXISTS idx_household_members_household
			 ON household_members (household_id)`); err != nil {
			return err
		}

		fmt.Println("household_members table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping household_members table...")

		if _, err := db.NewDropTable().Model((*householddb.HouseholdMember)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("household_members table dropped successfully!")
		return nil
	})
}
