package streakservice

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	householddb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/household/infrastructure/repositories"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
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

// Trace returns the sequence of repository methods called.
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

// FakeHouseholdRepo is a programmable stub for the household repository.
type FakeHouseholdRepo struct {
	GetMemberIdentitiesFunc func(ctx context.Context, db bun.IDB, householdID string) ([]string, error)
	GetMembersFunc          func(ctx context.Context, db bun.IDB, householdID string) ([]householddb.HouseholdMember, error)
}

func (f *FakeHouseholdRepo) GetMemberIdentities(ctx context.Context, db bun.IDB, householdID string) ([]string, error) {
	if f.GetMemberIdentitiesFunc != nil {
		return f.GetMemberIdentitiesFunc(ctx, db, householdID)
	}
	return nil, nil
}

func (f *FakeHouseholdRepo) GetMembers(ctx context.Context, db bun.IDB, householdID string) ([]householddb.HouseholdMember, error) {
	if f.GetMembersFunc != nil {
		return f.GetMembersFunc(ctx, db, householdID)
	}
	return nil, nil
}

var _ householddb.Repository = (*FakeHouseholdRepo)(nil)

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
