package summaryservice

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
)

// FakeLedgerRepo is a programmable stub for the ledger repository.
type FakeLedgerRepo struct {
	listCalls int

	UpsertFunc            func(ctx context.Context, date time.Time, identity string, delta ledgerdb.MergeDelta) (ledgerdb.LedgerRow, error)
	GetByDateIdentityFunc func(ctx context.Context, db bun.IDB, date time.Time, identity string) (ledgerdb.LedgerRow, bool, error)
	ListRangeFunc         func(ctx context.Context, db bun.IDB, start, end time.Time, identities []string) ([]ledgerdb.LedgerRow, error)
	ClearAllFunc          func(ctx context.Context) (int64, error)
}

func (f *FakeLedgerRepo) Upsert(ctx context.Context, date time.Time, identity string, delta ledgerdb.MergeDelta) (ledgerdb.LedgerRow, error) {
	if f.UpsertFunc != nil {
		return f.UpsertFunc(ctx, date, identity, delta)
	}
	return ledgerdb.LedgerRow{}, nil
}

func (f *FakeLedgerRepo) GetByDateIdentity(ctx context.Context, db bun.IDB, date time.Time, identity string) (ledgerdb.LedgerRow, bool, error) {
	if f.GetByDateIdentityFunc != nil {
		return f.GetByDateIdentityFunc(ctx, db, date, identity)
	}
	return ledgerdb.LedgerRow{}, false, nil
}

func (f *FakeLedgerRepo) ListRange(ctx context.Context, db bun.IDB, start, end time.Time, identities []string) ([]ledgerdb.LedgerRow, error) {
	f.listCalls++
	if f.ListRangeFunc != nil {
		return f.ListRangeFunc(ctx, db, start, end, identities)
	}
	return nil, nil
}

func (f *FakeLedgerRepo) ClearAll(ctx context.Context) (int64, error) {
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
