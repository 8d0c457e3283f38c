package streakservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

var testNow = time.Date(2026, 8, 19, 14, 30, 0, 0, time.UTC) // Wednesday

func testCatalog() catalogservice.Catalog {
	return catalogservice.Catalog{
		PointValues: map[sharedtypes.ActivityName]sharedtypes.Points{
			"Dishes":        2,
			"Yoga":          3,
			"Skipped chore": -1,
		},
		Categories: map[sharedtypes.ActivityName]sharedtypes.Category{
			"Dishes": "kitchen",
			"Yoga":   "wellness",
		},
	}
}

func row(day string, encoded string) ledgerdb.LedgerRow {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return ledgerdb.LedgerRow{
		Date:              d,
		EncodedActivities: encoded,
		SubmitterIdentity: "ana",
	}
}

func newTestService(rows []ledgerdb.LedgerRow, listErr error) (*StreakService, *FakeLedgerRepo) {
	repo := NewFakeLedgerRepo()
	repo.ListRangeFunc = func(ctx context.Context, db bun.IDB, start, end time.Time, identities []string) ([]ledgerdb.LedgerRow, error) {
		return rows, listErr
	}
	catalog := &FakeCatalogService{
		GetCachedFunc: func(ctx context.Context) (catalogservice.Catalog, error) {
			return testCatalog(), nil
		},
	}
	obs := observability.NewNoOp()
	svc := NewStreakService(repo, &FakeHouseholdRepo{}, catalog, obs.Logger, obs.Metrics, obs.Tracer)
	return svc, repo
}

func TestComputeStreaks_FullStreakEndingToday(t *testing.T) {
	rows := []ledgerdb.LedgerRow{
		row("2026-08-17", "➕ Dishes (+2)"),
		row("2026-08-18", "➕ Dishes (+2)"),
		row("2026-08-19", "➕ Dishes (+2)"),
	}
	svc, _ := newTestService(rows, nil)

	result, err := svc.ComputeStreaks(context.Background(), nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, sharedtypes.StreakLength(3), result.Full["Dishes"])
	assert.Empty(t, result.Building)
}

func TestComputeStreaks_FullStreakEndingYesterdayStillCounts(t *testing.T) {
	rows := []ledgerdb.LedgerRow{
		row("2026-08-15", "➕ Yoga (+3)"),
		row("2026-08-16", "➕ Yoga (+3)"),
		row("2026-08-17", "➕ Yoga (+3)"),
		row("2026-08-18", "➕ Yoga (+3)"),
	}
	svc, _ := newTestService(rows, nil)

	result, err := svc.ComputeStreaks(context.Background(), nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, sharedtypes.StreakLength(4), result.Full["Yoga"])
}

func TestComputeStreaks_BuildingStreak(t *testing.T) {
	rows := []ledgerdb.LedgerRow{
		row("2026-08-17", "➕ Dishes (+2)"),
		row("2026-08-18", "➕ Dishes (+2)"),
	}
	svc, _ := newTestService(rows, nil)

	result, err := svc.ComputeStreaks(context.Background(), nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, sharedtypes.StreakLength(2), result.Building["Dishes"])
	assert.Empty(t, result.Full)
}

func TestComputeStreaks_TwoDayRunEndingTodayIsNeither(t *testing.T) {
	// Two days ending today: not yet full, and building requires the run to
	// end yesterday so today's completion can extend it.
	rows := []ledgerdb.LedgerRow{
		row("2026-08-18", "➕ Dishes (+2)"),
		row("2026-08-19", "➕ Dishes (+2)"),
	}
	svc, _ := newTestService(rows, nil)

	result, err := svc.ComputeStreaks(context.Background(), nil, testNow)
	require.NoError(t, err)

	assert.Empty(t, result.Full)
	assert.Empty(t, result.Building)
}

func TestComputeStreaks_StaleRunExpires(t *testing.T) {
	rows := []ledgerdb.LedgerRow{
		row("2026-08-14", "➕ Dishes (+2)"),
		row("2026-08-15", "➕ Dishes (+2)"),
		row("2026-08-16", "➕ Dishes (+2)"),
	}
	svc, _ := newTestService(rows, nil)

	result, err := svc.ComputeStreaks(context.Background(), nil, testNow)
	require.NoError(t, err)

	assert.Empty(t, result.Full)
	assert.Empty(t, result.Building)
}

func TestComputeStreaks_GapBreaksRun(t *testing.T) {
	rows := []ledgerdb.LedgerRow{
		row("2026-08-15", "➕ Dishes (+2)"),
		row("2026-08-16", "➕ Dishes (+2)"),
		// 17th missing
		row("2026-08-18", "➕ Dishes (+2)"),
		row("2026-08-19", "➕ Dishes (+2)"),
	}
	svc, _ := newTestService(rows, nil)

	result, err := svc.ComputeStreaks(context.Background(), nil, testNow)
	require.NoError(t, err)

	// Only the post-gap run counts, and at two days ending today it is
	// neither full nor building.
	assert.Empty(t, result.Full)
	assert.Empty(t, result.Building)
}

func TestComputeStreaks_NegativeActivitiesNeverAccrue(t *testing.T) {
	rows := []ledgerdb.LedgerRow{
		row("2026-08-17", "➖ Skipped chore (-1)"),
		row("2026-08-18", "➖ Skipped chore (-1)"),
		row("2026-08-19", "➖ Skipped chore (-1)"),
	}
	svc, _ := newTestService(rows, nil)

	result, err := svc.ComputeStreaks(context.Background(), nil, testNow)
	require.NoError(t, err)

	assert.Empty(t, result.Full)
	assert.Empty(t, result.Building)
}

func TestComputeStreaks_UnknownActivitySkipped(t *testing.T) {
	rows := []ledgerdb.LedgerRow{
		row("2026-08-17", "➕ Mystery task (+5)"),
		row("2026-08-18", "➕ Mystery task (+5)"),
		row("2026-08-19", "➕ Mystery task (+5)"),
	}
	svc, _ := newTestService(rows, nil)

	result, err := svc.ComputeStreaks(context.Background(), nil, testNow)
	require.NoError(t, err)

	assert.Empty(t, result.Full)
}

func TestComputeStreaks_SameDayRepeatsDedupe(t *testing.T) {
	rows := []ledgerdb.LedgerRow{
		row("2026-08-18", "➕ Dishes (+2), ➕ Dishes (+2)"),
		row("2026-08-19", "➕ Dishes (+2)"),
	}
	svc, _ := newTestService(rows, nil)

	result, err := svc.ComputeStreaks(context.Background(), nil, testNow)
	require.NoError(t, err)

	// Two distinct days, not three completions.
	assert.Empty(t, result.Full)
	assert.Empty(t, result.Building)
}

func TestComputeStreaks_CaseInsensitiveNamesMerge(t *testing.T) {
	rows := []ledgerdb.LedgerRow{
		row("2026-08-17", "➕ dishes (+2)"),
		row("2026-08-18", "➕ Dishes (+2)"),
		row("2026-08-19", "➕ DISHES (+2)"),
	}
	svc, _ := newTestService(rows, nil)

	result, err := svc.ComputeStreaks(context.Background(), nil, testNow)
	require.NoError(t, err)

	require.Len(t, result.Full, 1)
	for _, length := range result.Full {
		assert.Equal(t, sharedtypes.StreakLength(3), length)
	}
}

func TestComputeStreaks_RepoErrorYieldsEmptyResult(t *testing.T) {
	svc, _ := newTestService(nil, errors.New("connection refused"))

	result, err := svc.ComputeStreaks(context.Background(), nil, testNow)
	require.NoError(t, err)

	assert.Empty(t, result.Full)
	assert.Empty(t, result.Building)
}

func TestComputeHouseholdStreaks_EmptyMembershipFallsBack(t *testing.T) {
	rows := []ledgerdb.LedgerRow{
		row("2026-08-17", "➕ Dishes (+2)"),
		row("2026-08-18", "➕ Dishes (+2)"),
		row("2026-08-19", "➕ Dishes (+2)"),
	}

	var capturedFilter []string
	repo := NewFakeLedgerRepo()
	repo.ListRangeFunc = func(ctx context.Context, db bun.IDB, start, end time.Time, identities []string) ([]ledgerdb.LedgerRow, error) {
		capturedFilter = identities
		return rows, nil
	}
	catalog := &FakeCatalogService{
		GetCachedFunc: func(ctx context.Context) (catalogservice.Catalog, error) {
			return testCatalog(), nil
		},
	}
	household := &FakeHouseholdRepo{
		GetMemberIdentitiesFunc: func(ctx context.Context, db bun.IDB, householdID string) ([]string, error) {
			return nil, nil
		},
	}
	obs := observability.NewNoOp()
	svc := NewStreakService(repo, household, catalog, obs.Logger, obs.Metrics, obs.Tracer)

	result, err := svc.ComputeHouseholdStreaks(context.Background(), "hh-1", testNow)
	require.NoError(t, err)

	assert.Empty(t, capturedFilter)
	assert.Equal(t, sharedtypes.StreakLength(3), result.Full["Dishes"])
}

func TestResultStates_SortedSnapshot(t *testing.T) {
	result := Result{
		Building: map[sharedtypes.ActivityName]sharedtypes.StreakLength{
			"Yoga": 2,
		},
		Full: map[sharedtypes.ActivityName]sharedtypes.StreakLength{
			"Dishes": 5,
			"Read":   3,
		},
	}

	assert.Equal(t, []sharedtypes.StreakState{
		{Name: "Dishes", Length: 5, Classification: sharedtypes.StreakFull},
		{Name: "Read", Length: 3, Classification: sharedtypes.StreakFull},
		{Name: "Yoga", Length: 2, Classification: sharedtypes.StreakBuilding},
	}, result.States())
}

func TestResultStates_EmptyResult(t *testing.T) {
	assert.Empty(t, emptyResult().States())
}

func TestComputeHouseholdStreaks_FiltersToMembers(t *testing.T) {
	var capturedFilter []string
	repo := NewFakeLedgerRepo()
	repo.ListRangeFunc = func(ctx context.Context, db bun.IDB, start, end time.Time, identities []string) ([]ledgerdb.LedgerRow, error) {
		capturedFilter = identities
		return nil, nil
	}
	catalog := &FakeCatalogService{
		GetCachedFunc: func(ctx context.Context) (catalogservice.Catalog, error) {
			return testCatalog(), nil
		},
	}
	household := &FakeHouseholdRepo{
		GetMemberIdentitiesFunc: func(ctx context.Context, db bun.IDB, householdID string) ([]string, error) {
			return []string{"ana", "ben"}, nil
		},
	}
	obs := observability.NewNoOp()
	svc := NewStreakService(repo, household, catalog, obs.Logger, obs.Metrics, obs.Tracer)

	_, err := svc.ComputeHouseholdStreaks(context.Background(), "hh-1", testNow)
	require.NoError(t, err)

	assert.Equal(t, []string{"ana", "ben"}, capturedFilter)
}
