package ledgerservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/events"
	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
	streakservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/streak/application"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

var testNow = time.Date(2026, 8, 19, 10, 0, 0, 0, time.UTC) // Wednesday

func submissionCatalog() catalogservice.Catalog {
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

type submitDeps struct {
	repo    *FakeLedgerRepo
	catalog *FakeCatalogService
	points  *FakePointsService
	streaks *FakeStreakService
}

func newSubmitService(t *testing.T) (*LedgerService, *submitDeps) {
	t.Helper()

	deps := &submitDeps{
		repo: NewFakeLedgerRepo(),
		catalog: &FakeCatalogService{
			GetCachedFunc: func(ctx context.Context) (catalogservice.Catalog, error) {
				return submissionCatalog(), nil
			},
		},
		points:  &FakePointsService{},
		streaks: &FakeStreakService{},
	}

	obs := observability.NewNoOp()
	svc := NewLedgerService(deps.repo, deps.catalog, deps.points, deps.streaks, obs.Logger, obs.Metrics, obs.Tracer)
	return svc, deps
}

func TestSubmitActivities_Success(t *testing.T) {
	svc, deps := newSubmitService(t)

	var capturedDate time.Time
	var capturedIdentity string
	var capturedDelta ledgerdb.MergeDelta
	deps.repo.UpsertFunc = func(ctx context.Context, date time.Time, identity string, delta ledgerdb.MergeDelta) (ledgerdb.LedgerRow, error) {
		capturedDate = date
		capturedIdentity = identity
		capturedDelta = delta
		return ledgerdb.LedgerRow{TotalPoints: delta.Points, SubmitterIdentity: identity, Date: date}, nil
	}

	payload := events.ActivitySubmissionRequestedPayloadV1{
		HouseholdID: "hh-1",
		Identity:    "Ana",
		DateText:    "",
		Activities:  []sharedtypes.ActivityName{"Dishes", "Yoga"},
	}

	result, err := svc.SubmitActivities(context.Background(), payload, testNow)
	require.NoError(t, err)
	require.NotNil(t, result.Success)
	require.Nil(t, result.Failure)

	assert.Equal(t, "Ana", capturedIdentity)
	assert.Equal(t, "2026-08-19", capturedDate.Format("2006-01-02"))
	assert.Equal(t, 5, capturedDelta.Points)
	assert.Equal(t, 2, capturedDelta.PositiveCount)
	assert.Equal(t, 0, capturedDelta.NegativeCount)
	assert.Equal(t, 34, capturedDelta.WeekNumber)
	assert.Equal(t, "➕ Dishes (+2), ➕ Yoga (+3)", capturedDelta.Encoded)

	assert.Equal(t, sharedtypes.Points(5), result.Success.TotalPoints)
	assert.Len(t, result.Success.Activities, 2)
}

func TestSubmitActivities_FullStreakAppliesBonus(t *testing.T) {
	svc, deps := newSubmitService(t)

	deps.streaks.ComputeStreaksFunc = func(ctx context.Context, memberFilter []sharedtypes.Identity, now time.Time) (streakservice.Result, error) {
		return streakservice.Result{
			Building: map[sharedtypes.ActivityName]sharedtypes.StreakLength{},
			Full: map[sharedtypes.ActivityName]sharedtypes.StreakLength{
				"Dishes": 4,
			},
		}, nil
	}

	var capturedDelta ledgerdb.MergeDelta
	deps.repo.UpsertFunc = func(ctx context.Context, date time.Time, identity string, delta ledgerdb.MergeDelta) (ledgerdb.LedgerRow, error) {
		capturedDelta = delta
		return ledgerdb.LedgerRow{TotalPoints: delta.Points}, nil
	}

	payload := events.ActivitySubmissionRequestedPayloadV1{
		Identity:   "ana",
		Activities: []sharedtypes.ActivityName{"Dishes"},
	}

	result, err := svc.SubmitActivities(context.Background(), payload, testNow)
	require.NoError(t, err)
	require.NotNil(t, result.Success)

	// Base 2, streak 4 crosses the bonus1 threshold (3): +1.
	assert.Equal(t, 3, capturedDelta.Points)
	assert.Equal(t, "➕ Dishes (🔥4) (+3)", capturedDelta.Encoded)

	activity := result.Success.Activities[0]
	assert.Equal(t, sharedtypes.Points(2), activity.OriginalPoints)
	assert.Equal(t, sharedtypes.Points(1), activity.BonusPoints)
	assert.Equal(t, sharedtypes.Points(3), activity.TotalPoints)
	assert.Equal(t, sharedtypes.StreakLength(4), activity.StreakLength)
}

func TestSubmitActivities_StreaksComputedForSubmitterOnly(t *testing.T) {
	svc, deps := newSubmitService(t)

	var capturedFilter []sharedtypes.Identity
	deps.streaks.ComputeStreaksFunc = func(ctx context.Context, memberFilter []sharedtypes.Identity, now time.Time) (streakservice.Result, error) {
		capturedFilter = memberFilter
		return emptyStreaks(), nil
	}

	payload := events.ActivitySubmissionRequestedPayloadV1{
		Identity:   "ana",
		Activities: []sharedtypes.ActivityName{"Dishes"},
	}

	_, err := svc.SubmitActivities(context.Background(), payload, testNow)
	require.NoError(t, err)

	assert.Equal(t, []sharedtypes.Identity{"ana"}, capturedFilter)
}

func TestSubmitActivities_NegativeActivityCountsAgainst(t *testing.T) {
	svc, deps := newSubmitService(t)

	var capturedDelta ledgerdb.MergeDelta
	deps.repo.UpsertFunc = func(ctx context.Context, date time.Time, identity string, delta ledgerdb.MergeDelta) (ledgerdb.LedgerRow, error) {
		capturedDelta = delta
		return ledgerdb.LedgerRow{TotalPoints: delta.Points}, nil
	}

	payload := events.ActivitySubmissionRequestedPayloadV1{
		Identity:   "ana",
		Activities: []sharedtypes.ActivityName{"Dishes", "Skipped chore"},
	}

	result, err := svc.SubmitActivities(context.Background(), payload, testNow)
	require.NoError(t, err)
	require.NotNil(t, result.Success)

	assert.Equal(t, 1, capturedDelta.Points)
	assert.Equal(t, 1, capturedDelta.PositiveCount)
	assert.Equal(t, 1, capturedDelta.NegativeCount)
	assert.Equal(t, "➕ Dishes (+2), ➖ Skipped chore (-1)", capturedDelta.Encoded)
}

func TestSubmitActivities_UnknownActivitiesSkipped(t *testing.T) {
	svc, deps := newSubmitService(t)

	var capturedDelta ledgerdb.MergeDelta
	deps.repo.UpsertFunc = func(ctx context.Context, date time.Time, identity string, delta ledgerdb.MergeDelta) (ledgerdb.LedgerRow, error) {
		capturedDelta = delta
		return ledgerdb.LedgerRow{TotalPoints: delta.Points}, nil
	}

	payload := events.ActivitySubmissionRequestedPayloadV1{
		Identity:   "ana",
		Activities: []sharedtypes.ActivityName{"Dishes", "Not in catalog"},
	}

	result, err := svc.SubmitActivities(context.Background(), payload, testNow)
	require.NoError(t, err)
	require.NotNil(t, result.Success)

	assert.Equal(t, 2, capturedDelta.Points)
	assert.Len(t, result.Success.Activities, 1)
}

func TestSubmitActivities_BusinessFailures(t *testing.T) {
	tests := []struct {
		name       string
		payload    events.ActivitySubmissionRequestedPayloadV1
		catalog    func(ctx context.Context) (catalogservice.Catalog, error)
		wantReason string
	}{
		{
			name: "missing identity",
			payload: events.ActivitySubmissionRequestedPayloadV1{
				Identity:   "   ",
				Activities: []sharedtypes.ActivityName{"Dishes"},
			},
			wantReason: "missing submitter identity",
		},
		{
			name: "no activities",
			payload: events.ActivitySubmissionRequestedPayloadV1{
				Identity: "ana",
			},
			wantReason: "no activities submitted",
		},
		{
			name: "empty catalog",
			payload: events.ActivitySubmissionRequestedPayloadV1{
				Identity:   "ana",
				Activities: []sharedtypes.ActivityName{"Dishes"},
			},
			catalog: func(ctx context.Context) (catalogservice.Catalog, error) {
				return catalogservice.Catalog{}, nil
			},
			wantReason: "activity catalog is empty",
		},
		{
			name: "nothing matches catalog",
			payload: events.ActivitySubmissionRequestedPayloadV1{
				Identity:   "ana",
				Activities: []sharedtypes.ActivityName{"Unknown 1", "Unknown 2"},
			},
			wantReason: "no submitted activities found in catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newSubmitService(t)
			if tt.catalog != nil {
				deps.catalog.GetCachedFunc = tt.catalog
			}

			result, err := svc.SubmitActivities(context.Background(), tt.payload, testNow)
			require.NoError(t, err)
			require.NotNil(t, result.Failure)
			assert.Nil(t, result.Success)
			assert.Equal(t, tt.wantReason, result.Failure.Reason)
			assert.Empty(t, deps.repo.Trace(), "no repository writes on business failure")
		})
	}
}

func TestSubmitActivities_UpsertErrorIsBusinessFailure(t *testing.T) {
	svc, deps := newSubmitService(t)

	deps.repo.UpsertFunc = func(ctx context.Context, date time.Time, identity string, delta ledgerdb.MergeDelta) (ledgerdb.LedgerRow, error) {
		return ledgerdb.LedgerRow{}, errors.New("deadlock detected")
	}

	payload := events.ActivitySubmissionRequestedPayloadV1{
		Identity:   "ana",
		Activities: []sharedtypes.ActivityName{"Dishes"},
	}

	result, err := svc.SubmitActivities(context.Background(), payload, testNow)
	require.NoError(t, err)
	require.NotNil(t, result.Failure)
	assert.Contains(t, result.Failure.Reason, "failed to write ledger row")
}

func TestSubmitActivities_InfrastructureErrorPropagates(t *testing.T) {
	svc, deps := newSubmitService(t)

	deps.catalog.GetCachedFunc = func(ctx context.Context) (catalogservice.Catalog, error) {
		return catalogservice.Catalog{}, errors.New("database unreachable")
	}

	payload := events.ActivitySubmissionRequestedPayloadV1{
		Identity:   "ana",
		Activities: []sharedtypes.ActivityName{"Dishes"},
	}

	_, err := svc.SubmitActivities(context.Background(), payload, testNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SubmitActivities")
}

func TestClearLedger(t *testing.T) {
	svc, deps := newSubmitService(t)

	deps.repo.ClearAllFunc = func(ctx context.Context) (int64, error) {
		return 42, nil
	}

	n, err := svc.ClearLedger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}
