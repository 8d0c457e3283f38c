package catalogdb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository is the catalog persistence surface.
type Repository interface {
	ListAll(ctx context.Context, db bun.IDB) ([]ActivityDefinition, error)
	ReplaceAll(ctx context.Context, db bun.IDB, defs []ActivityDefinition) error
}
