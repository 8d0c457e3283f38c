package pointsmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	pointsdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/infrastructure/repositories"
)

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating streak_settings table...")

		if _, err := db.NewCreateTable().Model((*pointsdb.StreakSettingsRow)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("streak_settings table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping streak_settings table...")

		if _, err := db.NewDropTable().Model((*pointsdb.StreakSettingsRow)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("streak_settings table dropped successfully!")
		return nil
	})
}
