package catalogmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	catalogdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating activity_definitions table...")

		if _, err := db.NewCreateTable().Model((*catalogdb.ActivityDefinition)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("activity_definitions table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping activity_definitions table...")

		if _, err := db.NewDropTable().Model((*catalogdb.ActivityDefinition)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("activity_definitions table dropped successfully!")
		return nil
	})
}
