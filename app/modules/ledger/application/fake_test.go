package ledgerservice

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
	pointsservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/application"
	pointsdomain "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/domain"
	streakservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/streak/application"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

// FakeLedgerRepo is a programmable stub for the ledger repository.
type FakeLedgerRepo struct {
	trace []string

	UpsertFunc            func(ctx context.Context, date time.Time, identity string, delta ledgerdb.MergeDelta) (ledgerdb.LedgerRow, error)
	GetByDateIdentityFunc func(ctx context.Context, db bun.IDB, date time.Time, identity string) (ledgerdb.LedgerRow, bool, error)
	ListRangeFunc         func(ctx context.Context, db bun.IDB, start, end time.Time, identities []string) ([]ledgerdb.LedgerRow, error)
	ClearAllFunc          func(ctx context.Context) (int64, error)
}

func NewFakeLedgerRepo() *FakeLedgerRepo {
	return &FakeLedgerRepo{trace: []string{}}
}

func (f *FakeLedgerRepo) record(step string) { f.trace = append(f.trace, step) }

func (f *FakeLedgerRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeLedgerRepo) Upsert(ctx context.Context, date time.Time, identity string, delta ledgerdb.MergeDelta) (ledgerdb.LedgerRow, error) {
	f.record("Upsert")
	if f.UpsertFunc != nil {
		return f.UpsertFunc(ctx, date, identity, delta)
	}
	return ledgerdb.LedgerRow{}, nil
}

func (f *FakeLedgerRepo) GetByDateIdentity(ctx context.Context, db bun.IDB, date time.Time, identity string) (ledgerdb.LedgerRow, bool, error) {
	f.record("GetByDateIdentity")
	if f.GetByDateIdentityFunc != nil {
		return f.GetByDateIdentityFunc(ctx, db, date, identity)
	}
	return ledgerdb.LedgerRow{}, false, nil
}

func (f *FakeLedgerRepo) ListRange(ctx context.Context, db bun.IDB, start, end time.Time, identities []string) ([]ledgerdb.LedgerRow, error) {
	f.record("ListRange")
	if f.ListRangeFunc != nil {
		return f.ListRangeFunc(ctx, db, start, end, identities)
	}
	return nil, nil
}

func (f *FakeLedgerRepo) ClearAll(ctx context.Context) (int64, error) {
	f.record("ClearAll")
	if f.ClearAllFunc != nil {
		return f.ClearAllFunc(ctx)
	}
	return 0, nil
}

var _ ledgerdb.Repository = (*FakeLedgerRepo)(nil)

// FakeCatalogService is a programmable stub for the catalog service.
type FakeCatalogService struct {
	LoadFunc        func(ctx context.Context) (catalogservice.Catalog, error)
	GetCachedFunc   func(ctx context.Context) (catalogservice.Catalog, error)
	ImportSheetFunc func(ctx context.Context, data []byte) (int, error)
}

func (f *FakeCatalogService) Load(ctx context.Context) (catalogservice.Catalog, error) {
	if f.LoadFunc != nil {
		return f.LoadFunc(ctx)
	}
	return catalogservice.Catalog{}, nil
}

func (f *FakeCatalogService) GetCached(ctx context.Context) (catalogservice.Catalog, error) {
	if f.GetCachedFunc != nil {
		return f.GetCachedFunc(ctx)
	}
	return catalogservice.Catalog{}, nil
}

func (f *FakeCatalogService) ImportSheet(ctx context.Context, data []byte) (int, error) {
	if f.ImportSheetFunc != nil {
		return f.ImportSheetFunc(ctx, data)
	}
	return 0, nil
}

var _ catalogservice.Service = (*FakeCatalogService)(nil)

// FakePointsService is a programmable stub for the points service.
type FakePointsService struct {
	GetSettingsFunc    func(ctx context.Context) (pointsdomain.Settings, error)
	UpdateSettingsFunc func(ctx context.Context, settings pointsdomain.Settings) error
	ScoreFunc          func(ctx context.Context, name sharedtypes.ActivityName, basePoints sharedtypes.Points, streakLength sharedtypes.StreakLength) (sharedtypes.ProcessedActivity, error)
}

func (f *FakePointsService) GetSettings(ctx context.Context) (pointsdomain.Settings, error) {
	if f.GetSettingsFunc != nil {
		return f.GetSettingsFunc(ctx)
	}
	return pointsdomain.DefaultSettings(), nil
}

func (f *FakePointsService) UpdateSettings(ctx context.Context, settings pointsdomain.Settings) error {
	if f.UpdateSettingsFunc != nil {
		return f.UpdateSettingsFunc(ctx, settings)
	}
	return nil
}

func (f *FakePointsService) Score(ctx context.Context, name sharedtypes.ActivityName, basePoints sharedtypes.Points, streakLength sharedtypes.StreakLength) (sharedtypes.ProcessedActivity, error) {
	if f.ScoreFunc != nil {
		return f.ScoreFunc(ctx, name, basePoints, streakLength)
	}
	return pointsdomain.ComputePoints(name, basePoints, streakLength, pointsdomain.DefaultSettings()), nil
}

var _ pointsservice.Service = (*FakePointsService)(nil)

// FakeStreakService is a programmable stub for the streak service.
type FakeStreakService struct {
	ComputeStreaksFunc          func(ctx context.Context, memberFilter []sharedtypes.Identity, now time.Time) (streakservice.Result, error)
	ComputeHouseholdStreaksFunc func(ctx context.Context, householdID sharedtypes.HouseholdID, now time.Time) (streakservice.Result, error)
}

func emptyStreaks() streakservice.Result {
	return streakservice.Result{
		Building: map[sharedtypes.ActivityName]sharedtypes.StreakLength{},
		Full:     map[sharedtypes.ActivityName]sharedtypes.StreakLength{},
	}
}

func (f *FakeStreakService) ComputeStreaks(ctx context.Context, memberFilter []sharedtypes.Identity, now time.Time) (streakservice.Result, error) {
	if f.ComputeStreaksFunc != nil {
		return f.ComputeStreaksFunc(ctx, memberFilter, now)
	}
	return emptyStreaks(), nil
}

func (f *FakeStreakService) ComputeHouseholdStreaks(ctx context.Context, householdID sharedtypes.HouseholdID, now time.Time) (streakservice.Result, error) {
	if f.ComputeHouseholdStreaksFunc != nil {
		return f.ComputeHouseholdStreaksFunc(ctx, householdID, now)
	}
	return emptyStreaks(), nil
}

var _ streakservice.Service = (*FakeStreakService)(nil)
