package ledgerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	ledgerdomain "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/domain"
)

// LedgerDBImpl implements Repository on bun.
type LedgerDBImpl struct {
	DB *bun.DB
}

func (r *LedgerDBImpl) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

func (r *LedgerDBImpl) GetByDateIdentity(ctx context.Context, db bun.IDB, date time.Time, identity string) (LedgerRow, bool, error) {
	var row LedgerRow
	err := r.idb(db).NewSelect().
		Model(&row).
		Where("date = ?", date).
		Where("lower(submitter_identity) = ?", strings.ToLower(identity)).
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LedgerRow{}, false, nil
		}
		return LedgerRow{}, false, fmt.Errorf("failed to fetch ledger row: %w", err)
	}
	return row, true, nil
}

// Upsert merges delta into the (date, identity) row inside a transaction.
// The existing row is locked with FOR UPDATE, so a concurrent submitter for
// the same key blocks until this merge commits. A lost insert race surfaces
// as a unique violation and is retried once as a merge.
func (r *LedgerDBImpl) Upsert(ctx context.Context, date time.Time, identity string, delta MergeDelta) (LedgerRow, error) {
	row, err := r.upsertOnce(ctx, date, identity, delta)
	if err != nil && isUniqueViolation(err) {
		return r.upsertOnce(ctx, date, identity, delta)
	}
	return row, err
}

func (r *LedgerDBImpl) upsertOnce(ctx context.Context, date time.Time, identity string, delta MergeDelta) (LedgerRow, error) {
	var result LedgerRow

	err := r.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var existing LedgerRow
		err := tx.NewSelect().
			Model(&existing).
			Where("date = ?", date).
			Where("lower(submitter_identity) = ?", strings.ToLower(identity)).
			Order("id DESC").
			Limit(1).
			For("UPDATE").
			Scan(ctx)

		switch {
		case err == nil:
			// Merge: points summed, tokens concatenated, counts summed.
			// Week number and identity stay as first written.
			existing.TotalPoints += delta.Points
			if existing.EncodedActivities == "" {
				existing.EncodedActivities = delta.Encoded
			} else if delta.Encoded != "" {
				existing.EncodedActivities += ledgerdomain.TokenSeparator + delta.Encoded
			}
			existing.PositiveCount += delta.PositiveCount
			existing.NegativeCount += delta.NegativeCount

			if _, err := tx.NewUpdate().
				Model(&existing).
				WherePK().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to merge ledger row: %w", err)
			}
			result = existing
			return nil

		case errors.Is(err, sql.ErrNoRows):
			fresh := LedgerRow{
				Date:              date,
				TotalPoints:       delta.Points,
				EncodedActivities: delta.Encoded,
				PositiveCount:     delta.PositiveCount,
				NegativeCount:     delta.NegativeCount,
				WeekNumber:        delta.WeekNumber,
				SubmitterIdentity: identity,
			}
			if _, err := tx.NewInsert().Model(&fresh).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert ledger row: %w", err)
			}
			result = fresh
			return nil

		default:
			return fmt.Errorf("failed to lock ledger row: %w", err)
		}
	})

	return result, err
}

func (r *LedgerDBImpl) ListRange(ctx context.Context, db bun.IDB, start, end time.Time, identities []string) ([]LedgerRow, error) {
	q := r.idb(db).NewSelect().
		Model((*LedgerRow)(nil)).
		Where("date >= ?", start).
		Where("date < ?", end).
		Order("date ASC", "id ASC")

	if len(identities) > 0 {
		lowered := make([]string, len(identities))
		for i, id := range identities {
			lowered[i] = strings.ToLower(id)
		}
		q = q.Where("lower(submitter_identity) IN (?)", bun.In(lowered))
	}

	var rows []LedgerRow
	if err := q.Scan(ctx, &rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list ledger rows: %w", err)
	}
	return rows, nil
}

func (r *LedgerDBImpl) ClearAll(ctx context.Context) (int64, error) {
	res, err := r.DB.NewDelete().
		Model((*LedgerRow)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear ledger: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}

var _ Repository = (*LedgerDBImpl)(nil)
