package catalogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// CatalogDBImpl implements Repository on bun.
type CatalogDBImpl struct {
	DB *bun.DB
}

func (r *CatalogDBImpl) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

// ListAll returns every catalog row in insertion order. A missing table or
// empty result is not an error; the service degrades to an empty catalog.
func (r *CatalogDBImpl) ListAll(ctx context.Context, db bun.IDB) ([]ActivityDefinition, error) {
	var defs []ActivityDefinition
	err := r.idb(db).NewSelect().
		Model(&defs).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list activity definitions: %w", err)
	}
	return defs, nil
}

// ReplaceAll swaps the catalog contents in one transaction.
func (r *CatalogDBImpl) ReplaceAll(ctx context.Context, db bun.IDB, defs []ActivityDefinition) error {
	run := func(ctx context.Context, tx bun.IDB) error {
		if _, err := tx.NewDelete().Model((*ActivityDefinition)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear activity definitions: %w", err)
		}
		if len(defs) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&defs).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert activity definitions: %w", err)
		}
		return nil
	}

	if db != nil {
		return run(ctx, db)
	}
	return r.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return run(ctx, tx)
	})
}

var _ Repository = (*CatalogDBImpl)(nil)
