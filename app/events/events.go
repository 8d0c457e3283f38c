// Package events defines the hearth-bot topics and versioned payloads.
package events

import (
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

// Topics. The version suffix is part of the contract; bump it on any payload change.
const (
	ActivitySubmissionRequestedV1 = "activity.submission.requested.v1"
	ActivitySubmissionProcessedV1 = "activity.submission.processed.v1"
	ActivitySubmissionFailedV1    = "activity.submission.failed.v1"

	CatalogImportedV1 = "catalog.imported.v1"

	WeeklyDigestRequestedV1 = "digest.weekly.requested.v1"
	WeeklyDigestSentV1      = "digest.weekly.sent.v1"
)

// ActivitySubmissionRequestedPayloadV1 carries a member's day submission.
// DateText may be empty (today), a YYYY-MM-DD literal, or natural language.
type ActivitySubmissionRequestedPayloadV1 struct {
	HouseholdID sharedtypes.HouseholdID    `json:"household_id"`
	Identity    sharedtypes.Identity       `json:"identity"`
	DateText    string                     `json:"date_text"`
	Activities  []sharedtypes.ActivityName `json:"activities"`
}

// ActivitySubmissionProcessedPayloadV1 reports the scored result written to the ledger.
type ActivitySubmissionProcessedPayloadV1 struct {
	HouseholdID sharedtypes.HouseholdID         `json:"household_id"`
	Identity    sharedtypes.Identity            `json:"identity"`
	Date        string                          `json:"date"`
	TotalPoints sharedtypes.Points              `json:"total_points"`
	Activities  []sharedtypes.ProcessedActivity `json:"activities"`
}

// ActivitySubmissionFailedPayloadV1 reports a handled submission failure.
type ActivitySubmissionFailedPayloadV1 struct {
	HouseholdID sharedtypes.HouseholdID `json:"household_id"`
	Identity    sharedtypes.Identity    `json:"identity"`
	DateText    string                  `json:"date_text"`
	Reason      string                  `json:"reason"`
}

// CatalogImportedPayloadV1 announces a catalog reload so caches elsewhere can refresh.
type CatalogImportedPayloadV1 struct {
	Definitions int    `json:"definitions"`
	Source      string `json:"source"`
}

// WeeklyDigestRequestedPayloadV1 asks for one household's digest.
type WeeklyDigestRequestedPayloadV1 struct {
	HouseholdID sharedtypes.HouseholdID `json:"household_id"`
	Reference   string                  `json:"reference"` // YYYY-MM-DD anchor for the week
}

// WeeklyDigestSentPayloadV1 confirms delivery.
type WeeklyDigestSentPayloadV1 struct {
	HouseholdID sharedtypes.HouseholdID `json:"household_id"`
	Recipients  int                     `json:"recipients"`
}
