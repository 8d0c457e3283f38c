package pointsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	pointsdomain "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/domain"
)

// Repository persists the streak settings.
type Repository interface {
	Get(ctx context.Context, db bun.IDB) (pointsdomain.Settings, bool, error)
	Put(ctx context.Context, db bun.IDB, settings pointsdomain.Settings) error
}

// SettingsDBImpl implements Repository on bun.
type SettingsDBImpl struct {
	DB *bun.DB
}

func (r *SettingsDBImpl) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

// Get loads the persisted settings. found=false means nothing has been
// stored yet and callers should fall back to the defaults.
func (r *SettingsDBImpl) Get(ctx context.Context, db bun.IDB) (pointsdomain.Settings, bool, error) {
	var row StreakSettingsRow
	err := r.idb(db).NewSelect().
		Model(&row).
		Where("id = ?", settingsRowID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pointsdomain.Settings{}, false, nil
		}
		return pointsdomain.Settings{}, false, fmt.Errorf("failed to load streak settings: %w", err)
	}

	return pointsdomain.Settings{
		Thresholds: pointsdomain.Thresholds{
			Bonus1:     row.Bonus1Threshold,
			Bonus2:     row.Bonus2Threshold,
			Multiplier: row.MultiplierThreshold,
		},
		BonusPoints: pointsdomain.BonusPoints{
			Bonus1: row.Bonus1Points,
			Bonus2: row.Bonus2Points,
		},
	}, true, nil
}

// Put upserts the single settings row.
func (r *SettingsDBImpl) Put(ctx context.Context, db bun.IDB, settings pointsdomain.Settings) error {
	row := StreakSettingsRow{
		ID:                  settingsRowID,
		Bonus1Threshold:     settings.Thresholds.Bonus1,
		Bonus2Threshold:     settings.Thresholds.Bonus2,
		MultiplierThreshold: settings.Thresholds.Multiplier,
		Bonus1Points:        settings.BonusPoints.Bonus1,
		Bonus2Points:        settings.BonusPoints.Bonus2,
		UpdatedAt:           time.Now().UTC(),
	}

	_, err := r.idb(db).NewInsert().
		Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("bonus1_threshold = EXCLUDED.bonus1_threshold").
		Set("bonus2_threshold = EXCLUDED.bonus2_threshold").
		Set("multiplier_threshold = EXCLUDED.multiplier_threshold").
		Set("bonus1_points = EXCLUDED.bonus1_points").
		Set("bonus2_points = EXCLUDED.bonus2_points").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store streak settings: %w", err)
	}
	return nil
}

var _ Repository = (*SettingsDBImpl)(nil)
