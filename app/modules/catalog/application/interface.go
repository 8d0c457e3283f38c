package catalogservice

import (
	"context"

	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

// Catalog is the loaded activity catalog: point values and categories by name.
// Lookups are case-insensitive; use the accessor methods.
type Catalog struct {
	PointValues map[sharedtypes.ActivityName]sharedtypes.Points   `json:"point_values"`
	Categories  map[sharedtypes.ActivityName]sharedtypes.Category `json:"categories"`
}

// Service loads and caches the activity catalog.
type Service interface {
	// Load reads the backing table directly, bypassing caches.
	Load(ctx context.Context) (Catalog, error)
	// GetCached serves the catalog through the two-tier cache.
	GetCached(ctx context.Context) (Catalog, error)
	// ImportSheet replaces the backing table from an XLSX workbook and
	// invalidates the cache tiers before returning.
	ImportSheet(ctx context.Context, data []byte) (int, error)
}
