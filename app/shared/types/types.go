// Package sharedtypes holds the domain primitives shared across hearth-bot modules.
package sharedtypes

import (
	"strings"
	"time"
)

// HouseholdID identifies a household, the aggregation unit for ledgers and digests.
type HouseholdID string

func (h HouseholdID) String() string { return string(h) }

// Identity is the submitting principal, normally an email address.
// Comparisons are case-insensitive everywhere; use Equal.
type Identity string

func (i Identity) String() string { return string(i) }

// Equal reports whether two identities name the same principal.
func (i Identity) Equal(other Identity) bool {
	return strings.EqualFold(string(i), string(other))
}

// ActivityName is the unique key of an activity definition.
type ActivityName string

func (a ActivityName) String() string { return string(a) }

// Category groups activities for weekly tallies.
type Category string

// Points is a signed point amount.
type Points int

// StreakLength is a count of consecutive completion days.
type StreakLength int

// ActivityDefinition is one row of the activity catalog.
type ActivityDefinition struct {
	Name       ActivityName `json:"name"`
	BasePoints Points       `json:"base_points"`
	Category   Category     `json:"category"`
}

// ProcessedActivity is a scored activity ready for ledger encoding.
type ProcessedActivity struct {
	Name           ActivityName `json:"name"`
	OriginalPoints Points       `json:"original_points"`
	BonusPoints    Points       `json:"bonus_points"`
	TotalPoints    Points       `json:"total_points"`
	StreakLength   StreakLength `json:"streak_length"`
	Multiplier     int          `json:"multiplier"`
}

// LedgerEntry is one decoded activity occurrence from a ledger row.
type LedgerEntry struct {
	Name     ActivityName `json:"name"`
	Points   Points       `json:"points"`
	Date     time.Time    `json:"date"`
	Identity Identity     `json:"identity"`
	Category Category     `json:"category"`
}

// StreakClassification distinguishes the two reportable streak states.
type StreakClassification string

const (
	// StreakBuilding is a 2-day run ending yesterday, one day short of bonus eligibility.
	StreakBuilding StreakClassification = "building"
	// StreakFull is a run of 3+ days ending today or yesterday.
	StreakFull StreakClassification = "full"
)

// StreakState is a derived, never-persisted streak snapshot.
type StreakState struct {
	Name           ActivityName         `json:"name"`
	Length         StreakLength         `json:"length"`
	Classification StreakClassification `json:"classification"`
}
