package ledgermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating ledger_rows table...")

		if _, err := db.NewCreateTable().Model((*ledgerdb.LedgerRow)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		// One row per (date, identity); the upsert retry path relies on this.
		if _, err := db.ExecContext(ctx,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_rows_date_identity
			 ON ledger_rows (date, lower(submitter_identity))`); err != nil {
			return err
		}

		fmt.Println("ledger_rows table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping ledger_rows table...")

		if _, err := db.NewDropTable().Model((*ledgerdb.LedgerRow)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("ledger_rows table dropped successfully!")
		return nil
	})
}
