// Package summaryservice aggregates ledger rows into weekly and lifetime views.
package summaryservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	ledgerdomain "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/domain"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/cache"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/dates"
)

// WeeklySummary is the digest/dashboard view of one week.
type WeeklySummary struct {
	Total            sharedtypes.Points            `json:"total"`
	Positive         int                           `json:"positive"`
	Negative         int                           `json:"negative"`
	TopActivity      sharedtypes.ActivityName      `json:"top_activity"`
	TopActivityCount int                           `json:"top_activity_count"`
	Categories       map[sharedtypes.Category]int  `json:"categories"`
	DailyPoints      map[string]sharedtypes.Points `json:"daily_points"`
	WeekStart        string                        `json:"week_start"`
}

// Service is the aggregation surface.
type Service interface {
	// WeeklyTotals aggregates the week containing ref for the member set.
	WeeklyTotals(ctx context.Context, memberIdentities []sharedtypes.Identity, ref time.Time) (WeeklySummary, error)
	// PreviousWeekTotals aggregates the ISO week before ref's week.
	PreviousWeekTotals(ctx context.Context, memberIdentities []sharedtypes.Identity, ref time.Time) (WeeklySummary, error)
	// ActivitiesInRange lists decoded entries in [start, end).
	ActivitiesInRange(ctx context.Context, start, end time.Time, memberIdentities []sharedtypes.Identity) ([]sharedtypes.LedgerEntry, error)
	// LifetimeCounts tallies per-activity completion counts over all history.
	LifetimeCounts(ctx context.Context, memberIdentities []sharedtypes.Identity) (map[sharedtypes.ActivityName]int, error)
}

// SummaryService implements Service.
type SummaryService struct {
	ledger  ledgerdb.Repository
	catalog catalogservice.Service
	cache   cache.Store
	logger  *slog.Logger
	metrics observability.Metrics
	tracer  trace.Tracer

	// cached indexes written range keys by their window so back-dated
	// submissions can evict a closed window that already got cached.
	mu     sync.Mutex
	cached map[string]cachedWindow
}

type cachedWindow struct {
	start time.Time
	end   time.Time
}

// NewSummaryService creates a new SummaryService.
func NewSummaryService(
	ledger ledgerdb.Repository,
	catalog catalogservice.Service,
	cacheStore cache.Store,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
) *SummaryService {
	return &SummaryService{
		ledger:  ledger,
		catalog: catalog,
		cache:   cacheStore,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		cached:  make(map[string]cachedWindow),
	}
}

func (s *SummaryService) WeeklyTotals(ctx context.Context, memberIdentities []sharedtypes.Identity, ref time.Time) (WeeklySummary, error) {
	start, end := dates.WeekBounds(ref)
	return s.totalsForWindow(ctx, memberIdentities, start, end)
}

func (s *SummaryService) PreviousWeekTotals(ctx context.Context, memberIdentities []sharedtypes.Identity, ref time.Time) (WeeklySummary, error) {
	start, end := dates.PrevWeekBounds(ref)
	return s.totalsForWindow(ctx, memberIdentities, start, end)
}

func (s *SummaryService) totalsForWindow(ctx context.Context, memberIdentities []sharedtypes.Identity, start, end time.Time) (WeeklySummary, error) {
	ctx, span := s.tracer.Start(ctx, "WeeklyTotals")
	defer span.End()

	opStart := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "WeeklyTotals", "summary")
	defer func() {
		s.metrics.RecordOperationDuration(ctx, "WeeklyTotals", "summary", time.Since(opStart))
	}()

	summary := WeeklySummary{
		Categories:  map[sharedtypes.Category]int{},
		DailyPoints: map[string]sharedtypes.Points{},
		WeekStart:   dates.YMD(start),
	}

	rows, err := s.fetchRows(ctx, start, end, memberIdentities)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "WeeklyTotals", "summary")
		return summary, fmt.Errorf("WeeklyTotals: %w", err)
	}

	catalog, err := s.catalog.GetCached(ctx)
	if err != nil {
		catalog = catalogservice.Catalog{}
	}

	// Occurrence counts in row order; the first name to reach the maximum
	// wins ties.
	counts := map[sharedtypes.ActivityName]int{}
	var top sharedtypes.ActivityName
	topCount := 0

	for _, row := range rows {
		// Row totals come from the stored column; per-activity detail below
		// re-derives from the current catalog.
		summary.Total += sharedtypes.Points(row.TotalPoints)
		summary.Positive += row.PositiveCount
		summary.Negative += row.NegativeCount
		summary.DailyPoints[dates.YMD(row.Date)] += sharedtypes.Points(row.TotalPoints)

		tokens, skipped := ledgerdomain.DecodeRow(row.EncodedActivities)
		if skipped > 0 {
			s.metrics.RecordTokenParseFailure(ctx, "weekly_totals")
			s.logger.WarnContext(ctx, "Skipped malformed ledger tokens during aggregation",
				attr.Int("skipped", skipped),
				attr.Time("row_date", row.Date),
			)
		}

		for _, token := range tokens {
			counts[token.Name]++
			if counts[token.Name] > topCount {
				topCount = counts[token.Name]
				top = token.Name
			}

			if category, ok := catalog.CategoryOf(token.Name); ok {
				summary.Categories[category]++
			}
		}
	}

	summary.TopActivity = top
	summary.TopActivityCount = topCount

	s.metrics.RecordOperationSuccess(ctx, "WeeklyTotals", "summary")
	return summary, nil
}

// ActivitiesInRange re-derives per-activity detail from the current catalog:
// historical entries reflect today's point values and categories by design.
func (s *SummaryService) ActivitiesInRange(ctx context.Context, start, end time.Time, memberIdentities []sharedtypes.Identity) ([]sharedtypes.LedgerEntry, error) {
	ctx, span := s.tracer.Start(ctx, "ActivitiesInRange")
	defer span.End()

	rows, err := s.fetchRows(ctx, start, end, memberIdentities)
	if err != nil {
		return nil, fmt.Errorf("ActivitiesInRange: %w", err)
	}

	catalog, err := s.catalog.GetCached(ctx)
	if err != nil {
		catalog = catalogservice.Catalog{}
	}

	var entries []sharedtypes.LedgerEntry
	for _, row := range rows {
		tokens, skipped := ledgerdomain.DecodeRow(row.EncodedActivities)
		if skipped > 0 {
			s.metrics.RecordTokenParseFailure(ctx, "activities_in_range")
		}

		for _, token := range tokens {
			entry := sharedtypes.LedgerEntry{
				Name:     token.Name,
				Points:   token.Points,
				Date:     row.Date,
				Identity: sharedtypes.Identity(row.SubmitterIdentity),
			}
			if base, ok := catalog.BasePoints(token.Name); ok {
				entry.Points = base
			}
			if category, ok := catalog.CategoryOf(token.Name); ok {
				entry.Category = category
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *SummaryService) LifetimeCounts(ctx context.Context, memberIdentities []sharedtypes.Identity) (map[sharedtypes.ActivityName]int, error) {
	ctx, span := s.tracer.Start(ctx, "LifetimeCounts")
	defer span.End()

	// The epoch bound keeps ListRange's contract; no ledger predates it.
	epoch := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	horizon := time.Now().AddDate(0, 0, 1)

	rows, err := s.ledger.ListRange(ctx, nil, epoch, horizon, identityStrings(memberIdentities))
	if err != nil {
		return nil, fmt.Errorf("LifetimeCounts: %w", err)
	}

	counts := map[sharedtypes.ActivityName]int{}
	for _, row := range rows {
		for _, name := range ledgerdomain.DecodeNames(row.EncodedActivities) {
			counts[name]++
		}
	}
	return counts, nil
}

// fetchRows serves date-range queries through the shared cache when possible.
// Cache failures fall back to the repository.
func (s *SummaryService) fetchRows(ctx context.Context, start, end time.Time, memberIdentities []sharedtypes.Identity) ([]ledgerdb.LedgerRow, error) {
	key := rangeCacheKey(start, end, memberIdentities)

	if data, ok := s.cache.Get(ctx, key); ok {
		var rows []ledgerdb.LedgerRow
		if err := json.Unmarshal(data, &rows); err == nil {
			return rows, nil
		}
		s.cache.Invalidate(ctx, key)
	}

	rows, err := s.ledger.ListRange(ctx, nil, start, end, identityStrings(memberIdentities))
	if err != nil {
		return nil, err
	}

	// Only closed windows (entirely in the past) are cacheable; the current
	// week keeps changing under submissions.
	if end.Before(dates.Truncate(time.Now())) {
		if data, err := json.Marshal(rows); err == nil {
			s.cache.Set(ctx, key, data)
			s.mu.Lock()
			s.cached[key] = cachedWindow{start: start, end: end}
			s.mu.Unlock()
		}
	}
	return rows, nil
}

// InvalidateWindow evicts every cached range that covers day. Back-dated
// submissions land in windows that were closed when they were cached, so the
// cached rows no longer reflect the ledger.
func (s *SummaryService) InvalidateWindow(ctx context.Context, day time.Time) {
	day = dates.Truncate(day)

	s.mu.Lock()
	var keys []string
	for key, w := range s.cached {
		if !day.Before(w.start) && day.Before(w.end) {
			keys = append(keys, key)
			delete(s.cached, key)
		}
	}
	s.mu.Unlock()

	for _, key := range keys {
		s.cache.Invalidate(ctx, key)
		s.logger.InfoContext(ctx, "Invalidated cached ledger range after back-dated submission",
			attr.String("cache_key", key),
			attr.Time("day", day),
		)
	}
}

func rangeCacheKey(start, end time.Time, memberIdentities []sharedtypes.Identity) string {
	ids := identityStrings(memberIdentities)
	for i := range ids {
		ids[i] = strings.ToLower(ids[i])
	}
	sort.Strings(ids)
	return fmt.Sprintf("ledger.range.%s.%s.%s", dates.YMD(start), dates.YMD(end), strings.Join(ids, ","))
}

func identityStrings(ids []sharedtypes.Identity) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

var _ Service = (*SummaryService)(nil)
