package ledgerdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Repository is the ledger persistence surface.
type Repository interface {
	// Upsert appends or merges one submission's delta into the row for
	// (date, identity). Identity matching is case-insensitive. Updates to
	// the same key serialize on a row lock so concurrent submitters never
	// drop each other's delta.
	Upsert(ctx context.Context, date time.Time, identity string, delta MergeDelta) (LedgerRow, error)

	// GetByDateIdentity fetches the row for (date, identity), most recently
	// written candidate first. Returns found=false when absent.
	GetByDateIdentity(ctx context.Context, db bun.IDB, date time.Time, identity string) (LedgerRow, bool, error)

	// ListRange returns rows with start <= date < end, oldest first,
	// optionally restricted to the given identities (case-insensitive).
	ListRange(ctx context.Context, db bun.IDB, start, end time.Time, identities []string) ([]LedgerRow, error)

	// ClearAll deletes every ledger row. The only supported bulk deletion.
	ClearAll(ctx context.Context) (int64, error)
}
