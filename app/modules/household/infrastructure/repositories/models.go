package householddb

import (
	"time"

	"github.com/uptrace/bun"
)

// HouseholdMember links one identity to a household.
type HouseholdMember struct {
	bun.BaseModel `bun:"table:household_members"`

	ID          int64     `bun:"id,pk,autoincrement"`
	HouseholdID string    `bun:"household_id,notnull"`
	Identity    string    `bun:"identity,notnull"`
	DisplayName string    `bun:"display_name"`
	Email       string    `bun:"email"`
	JoinedAt    time.Time `bun:"joined_at,notnull,default:current_timestamp"`
}
