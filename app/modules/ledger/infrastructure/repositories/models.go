package ledgerdb

import (
	"time"

	"github.com/uptrace/bun"
)

// LedgerRow is one stored record per (calendar date, submitting identity).
// The column order is part of the external contract; keep it stable.
type LedgerRow struct {
	bun.BaseModel `bun:"table:ledger_rows"`

	ID                int64     `bun:"id,pk,autoincrement"`
	Date              time.Time `bun:"date,notnull,type:date"`
	TotalPoints       int       `bun:"total_points,notnull"`
	EncodedActivities string    `bun:"encoded_activities,notnull"`
	PositiveCount     int       `bun:"positive_count,notnull"`
	NegativeCount     int       `bun:"negative_count,notnull"`
	WeekNumber        int       `bun:"week_number,notnull"`
	SubmitterIdentity string    `bun:"submitter_identity,notnull"`
}

// MergeDelta is one submission's contribution to a row. Counts carry the
// activities' original (pre-bonus) signs.
type MergeDelta struct {
	Points        int
	Encoded       string
	PositiveCount int
	NegativeCount int
	WeekNumber    int
}
