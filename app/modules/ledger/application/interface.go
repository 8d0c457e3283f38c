package ledgerservice

import (
	"context"
	"time"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/events"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/results"
)

// SubmitResult is the submission operation outcome: a processed payload on
// success, a failed payload for handled business failures.
type SubmitResult = results.OperationResult[
	events.ActivitySubmissionProcessedPayloadV1,
	events.ActivitySubmissionFailedPayloadV1,
]

// Service is the ledger module's application surface.
type Service interface {
	// SubmitActivities scores a day's activities and merges them into the
	// submitter's ledger row.
	SubmitActivities(ctx context.Context, payload events.ActivitySubmissionRequestedPayloadV1, now time.Time) (SubmitResult, error)
	// ClearLedger deletes every ledger row and returns the count removed.
	ClearLedger(ctx context.Context) (int64, error)
}
