// Package streakservice reconstructs per-activity consecutive-day streaks
// from ledger row history.
package streakservice

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	householddb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/household/infrastructure/repositories"
	ledgerdomain "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/domain"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/dates"
)

// historyWindowDays bounds how far back streak reconstruction reads. Any
// streak longer than this window is reported at the window length.
const historyWindowDays = 90

// Result carries the detected streaks by activity name.
type Result struct {
	// Building holds 2-day runs that ended yesterday: one more completion
	// today reaches bonus eligibility.
	Building map[sharedtypes.ActivityName]sharedtypes.StreakLength
	// Full holds runs of 3+ days ending today or yesterday.
	Full map[sharedtypes.ActivityName]sharedtypes.StreakLength
}

func emptyResult() Result {
	return Result{
		Building: map[sharedtypes.ActivityName]sharedtypes.StreakLength{},
		Full:     map[sharedtypes.ActivityName]sharedtypes.StreakLength{},
	}
}

// States flattens the result into the reportable snapshot form, sorted by
// activity name for stable output.
func (r Result) States() []sharedtypes.StreakState {
	states := make([]sharedtypes.StreakState, 0, len(r.Building)+len(r.Full))
	for name, length := range r.Building {
		states = append(states, sharedtypes.StreakState{
			Name:           name,
			Length:         length,
			Classification: sharedtypes.StreakBuilding,
		})
	}
	for name, length := range r.Full {
		states = append(states, sharedtypes.StreakState{
			Name:           name,
			Length:         length,
			Classification: sharedtypes.StreakFull,
		})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states
}

// Service computes streaks for a member set or a household.
type Service interface {
	ComputeStreaks(ctx context.Context, memberFilter []sharedtypes.Identity, now time.Time) (Result, error)
	ComputeHouseholdStreaks(ctx context.Context, householdID sharedtypes.HouseholdID, now time.Time) (Result, error)
}

// StreakService implements Service.
type StreakService struct {
	ledger    ledgerdb.Repository
	household householddb.Repository
	catalog   catalogservice.Service
	logger    *slog.Logger
	metrics   observability.Metrics
	tracer    trace.Tracer
}

// NewStreakService creates a new StreakService.
func NewStreakService(
	ledger ledgerdb.Repository,
	household householddb.Repository,
	catalog catalogservice.Service,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
) *StreakService {
	return &StreakService{
		ledger:    ledger,
		household: household,
		catalog:   catalog,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
	}
}

// ComputeStreaks reconstructs streaks from the history window, optionally
// restricted to the given identities. Missing data yields empty maps, never
// an error surfaced to the caller.
func (s *StreakService) ComputeStreaks(ctx context.Context, memberFilter []sharedtypes.Identity, now time.Time) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "ComputeStreaks")
	defer span.End()

	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "ComputeStreaks", "streak")
	defer func() {
		s.metrics.RecordOperationDuration(ctx, "ComputeStreaks", "streak", time.Since(start))
	}()

	today := dates.Truncate(now)
	windowStart := today.AddDate(0, 0, -historyWindowDays)

	filter := make([]string, 0, len(memberFilter))
	for _, id := range memberFilter {
		filter = append(filter, id.String())
	}

	rows, err := s.ledger.ListRange(ctx, nil, windowStart, today.AddDate(0, 0, 1), filter)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load streak history, returning empty streaks",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		s.metrics.RecordOperationFailure(ctx, "ComputeStreaks", "streak")
		return emptyResult(), nil
	}

	catalog, err := s.catalog.GetCached(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load catalog for streak detection",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		catalog = catalogservice.Catalog{}
	}

	result := s.detect(ctx, rows, catalog, now)
	s.metrics.RecordOperationSuccess(ctx, "ComputeStreaks", "streak")
	return result, nil
}

// ComputeHouseholdStreaks restricts detection to one household's members.
// Empty membership falls back to the unfiltered computation.
func (s *StreakService) ComputeHouseholdStreaks(ctx context.Context, householdID sharedtypes.HouseholdID, now time.Time) (Result, error) {
	identities, err := s.household.GetMemberIdentities(ctx, nil, householdID.String())
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to resolve household members for streaks",
			attr.Household("household_id", householdID),
			attr.Error(err),
		)
	}

	if len(identities) == 0 {
		return s.ComputeStreaks(ctx, nil, now)
	}

	filter := make([]sharedtypes.Identity, len(identities))
	for i, id := range identities {
		filter[i] = sharedtypes.Identity(id)
	}
	return s.ComputeStreaks(ctx, filter, now)
}

// detect runs the pure contiguity walk over decoded rows.
func (s *StreakService) detect(ctx context.Context, rows []ledgerdb.LedgerRow, catalog catalogservice.Catalog, now time.Time) Result {
	// Per activity, the set of distinct completion dates. Dates use the YMD
	// form so set membership dedupes same-day repeats and sorts chronologically.
	dateSets := make(map[sharedtypes.ActivityName]map[string]bool)
	canonical := make(map[string]sharedtypes.ActivityName)

	for _, row := range rows {
		if row.Date.IsZero() {
			continue
		}
		day := dates.YMD(row.Date)

		tokens, skipped := ledgerdomain.DecodeRow(row.EncodedActivities)
		if skipped > 0 {
			s.metrics.RecordTokenParseFailure(ctx, "streak_history")
			s.logger.WarnContext(ctx, "Skipped malformed ledger tokens during streak detection",
				attr.Int("skipped", skipped),
				attr.Time("row_date", row.Date),
			)
		}

		for _, token := range tokens {
			// Negative-point activities never accrue streaks; the check uses
			// the activity's current base value, not the stored points.
			base, ok := catalog.BasePoints(token.Name)
			if !ok || base <= 0 {
				continue
			}

			key := strings.ToLower(token.Name.String())
			name, seen := canonical[key]
			if !seen {
				name = token.Name
				canonical[key] = name
			}

			if dateSets[name] == nil {
				dateSets[name] = make(map[string]bool)
			}
			dateSets[name][day] = true
		}
	}

	result := emptyResult()
	today := dates.YMD(dates.Truncate(now))
	yesterday := dates.YMD(dates.Truncate(now).AddDate(0, 0, -1))

	for name, set := range dateSets {
		days := make([]string, 0, len(set))
		for d := range set {
			days = append(days, d)
		}
		sort.Strings(days)

		length := contiguousRun(days)
		if length == 0 {
			continue
		}

		mostRecent := days[len(days)-1]
		switch {
		case length >= 3 && (mostRecent == today || mostRecent == yesterday):
			result.Full[name] = sharedtypes.StreakLength(length)
		case length == 2 && mostRecent == yesterday:
			result.Building[name] = 2
		}
	}

	return result
}

// contiguousRun counts the run of exactly-one-day gaps walking backward from
// the most recent date. days must be sorted ascending YMD strings.
func contiguousRun(days []string) int {
	if len(days) == 0 {
		return 0
	}

	run := 1
	for i := len(days) - 1; i > 0; i-- {
		cur, err := dates.ParseYMD(days[i])
		if err != nil {
			break
		}
		prev, err := dates.ParseYMD(days[i-1])
		if err != nil {
			break
		}
		if cur.Sub(prev) != 24*time.Hour {
			break
		}
		run++
	}
	return run
}

var _ Service = (*StreakService)(nil)
