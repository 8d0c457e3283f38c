// Package catalogservice loads the activity catalog and keeps it cached.
package catalogservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	catalogdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/infrastructure/repositories"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/infrastructure/parsers"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/cache"
)

const cacheKey = "catalog"

// CatalogService implements Service over the bun repository and the two-tier cache.
type CatalogService struct {
	repo    catalogdb.Repository
	cache   cache.Store
	logger  *slog.Logger
	metrics observability.Metrics
	tracer  trace.Tracer
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	repo catalogdb.Repository,
	cacheStore cache.Store,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
) *CatalogService {
	return &CatalogService{
		repo:    repo,
		cache:   cacheStore,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

// BasePoints resolves an activity's current base point value, case-insensitively.
func (c Catalog) BasePoints(name sharedtypes.ActivityName) (sharedtypes.Points, bool) {
	if p, ok := c.PointValues[name]; ok {
		return p, true
	}
	for k, p := range c.PointValues {
		if strings.EqualFold(string(k), string(name)) {
			return p, true
		}
	}
	return 0, false
}

// CategoryOf resolves an activity's category, case-insensitively.
func (c Catalog) CategoryOf(name sharedtypes.ActivityName) (sharedtypes.Category, bool) {
	if cat, ok := c.Categories[name]; ok {
		return cat, true
	}
	for k, cat := range c.Categories {
		if strings.EqualFold(string(k), string(name)) {
			return cat, true
		}
	}
	return "", false
}

// IsEmpty reports whether the catalog carries no definitions.
func (c Catalog) IsEmpty() bool { return len(c.PointValues) == 0 }

func emptyCatalog() Catalog {
	return Catalog{
		PointValues: map[sharedtypes.ActivityName]sharedtypes.Points{},
		Categories:  map[sharedtypes.ActivityName]sharedtypes.Category{},
	}
}

// Load reads all catalog rows. Blank or malformed rows are skipped with a
// warning; duplicate names keep the first occurrence. A missing or empty
// backing table yields an empty, valid catalog so callers degrade gracefully.
func (s *CatalogService) Load(ctx context.Context) (Catalog, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogLoad")
	defer span.End()

	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "Load", "catalog")
	defer func() {
		s.metrics.RecordOperationDuration(ctx, "Load", "catalog", time.Since(start))
	}()

	rows, err := s.repo.ListAll(ctx, nil)
	if err != nil {
		// Missing source degrades to an empty catalog, logged but never raised.
		s.logger.WarnContext(ctx, "Catalog backing table unavailable, returning empty catalog",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		s.metrics.RecordOperationFailure(ctx, "Load", "catalog")
		return emptyCatalog(), nil
	}

	catalog := emptyCatalog()
	for _, row := range rows {
		name := sharedtypes.ActivityName(strings.TrimSpace(row.Name))
		category := sharedtypes.Category(strings.TrimSpace(row.Category))
		if name == "" || category == "" {
			s.logger.WarnContext(ctx, "Skipping catalog row with blank name or category",
				attr.Int("row_id", int(row.ID)),
			)
			continue
		}
		if _, exists := catalog.PointValues[name]; exists {
			s.logger.WarnContext(ctx, "Duplicate activity name in catalog, keeping first occurrence",
				attr.Activity("activity", name),
			)
			continue
		}
		catalog.PointValues[name] = sharedtypes.Points(row.BasePoints)
		catalog.Categories[name] = category
	}

	s.metrics.RecordOperationSuccess(ctx, "Load", "catalog")
	return catalog, nil
}

// GetCached checks the cache tiers before falling back to Load. Only a
// non-empty load populates the tiers, so a transiently missing table never
// poisons the cache.
func (s *CatalogService) GetCached(ctx context.Context) (Catalog, error) {
	if data, ok := s.cache.Get(ctx, cacheKey); ok {
		var cached Catalog
		if err := json.Unmarshal(data, &cached); err == nil && !cached.IsEmpty() {
			return cached, nil
		}
		// Corrupt or empty entry: evict and fall through to a fresh load.
		s.logger.WarnContext(ctx, "Evicting unusable catalog cache entry",
			attr.ExtractCorrelationID(ctx),
		)
		s.cache.Invalidate(ctx, cacheKey)
	}

	catalog, err := s.Load(ctx)
	if err != nil {
		return catalog, err
	}

	if !catalog.IsEmpty() {
		if data, err := json.Marshal(catalog); err == nil {
			s.cache.Set(ctx, cacheKey, data)
		}
	}
	return catalog, nil
}

// ImportSheet replaces the catalog from an XLSX workbook. The cache is
// invalidated before returning so no reader sees pre-import data afterwards.
func (s *CatalogService) ImportSheet(ctx context.Context, data []byte) (int, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogImportSheet")
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, "ImportSheet", "catalog")

	result, err := parsers.ParseCatalogXLSX(data)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "ImportSheet", "catalog")
		return 0, fmt.Errorf("catalog import: %w", err)
	}

	for _, rowNum := range result.SkippedRows {
		s.logger.WarnContext(ctx, "Skipping malformed catalog sheet row",
			attr.Int("sheet_row", rowNum),
		)
	}

	defs := make([]catalogdb.ActivityDefinition, 0, len(result.Definitions))
	for _, d := range result.Definitions {
		defs = append(defs, catalogdb.ActivityDefinition{
			Name:       string(d.Name),
			BasePoints: int(d.BasePoints),
			Category:   string(d.Category),
		})
	}

	if err := s.repo.ReplaceAll(ctx, nil, defs); err != nil {
		s.metrics.RecordOperationFailure(ctx, "ImportSheet", "catalog")
		return 0, fmt.Errorf("catalog import: %w", err)
	}

	// Invalidate before returning: a writer must clear the cache before
	// relying on fresh reads.
	s.cache.Invalidate(ctx, cacheKey)

	s.metrics.RecordOperationSuccess(ctx, "ImportSheet", "catalog")
	s.logger.InfoContext(ctx, "Catalog imported",
		attr.Int("definitions", len(defs)),
		attr.Int("skipped_rows", len(result.SkippedRows)),
	)
	return len(defs), nil
}

var _ Service = (*CatalogService)(nil)
