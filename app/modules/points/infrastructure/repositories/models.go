package pointsdb

import (
	"time"

	"github.com/uptrace/bun"
)

// StreakSettingsRow is the single persisted streak-settings record.
type StreakSettingsRow struct {
	bun.BaseModel `bun:"table:streak_settings"`

	ID                  int64     `bun:"id,pk"`
	Bonus1Threshold     int       `bun:"bonus1_threshold,notnull"`
	Bonus2Threshold     int       `bun:"bonus2_threshold,notnull"`
	MultiplierThreshold int       `bun:"multiplier_threshold,notnull"`
	Bonus1Points        int       `bun:"bonus1_points,notnull"`
	Bonus2Points        int       `bun:"bonus2_points,notnull"`
	UpdatedAt           time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// settingsRowID pins the table to one row.
const settingsRowID = 1
