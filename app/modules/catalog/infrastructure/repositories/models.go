package catalogdb

import (
	"github.com/uptrace/bun"
)

// ActivityDefinition is one catalog row: the backing table for point values
// and categories.
type ActivityDefinition struct {
	bun.BaseModel `bun:"table:activity_definitions"`

	ID         int64  `bun:"id,pk,autoincrement"`
	Name       string `bun:"name,notnull,unique"`
	BasePoints int    `bun:"base_points,notnull"`
	Category   string `bun:"category,notnull"`
}
