package ledgerservice

import (
	"context"
	"strings"
	"time"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/events"
	ledgerdomain "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/domain"
	ledgerdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/infrastructure/repositories"
	pointsdomain "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/domain"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/results"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/dates"
)

// SubmitActivities scores the submitted activities against the member's
// current streaks and merges the result into the (date, identity) ledger row.
func (s *LedgerService) SubmitActivities(ctx context.Context, payload events.ActivitySubmissionRequestedPayloadV1, now time.Time) (SubmitResult, error) {
	s.logger.InfoContext(ctx, "Processing activity submission",
		attr.ExtractCorrelationID(ctx),
		attr.Identity("identity", payload.Identity),
		attr.Household("household_id", payload.HouseholdID),
		attr.Int("num_activities", len(payload.Activities)),
	)

	return withTelemetry(s, ctx, "SubmitActivities", payload.Identity, func(ctx context.Context) (SubmitResult, error) {
		fail := func(reason string) SubmitResult {
			return results.Failuref[events.ActivitySubmissionProcessedPayloadV1](
				events.ActivitySubmissionFailedPayloadV1{
					HouseholdID: payload.HouseholdID,
					Identity:    payload.Identity,
					DateText:    payload.DateText,
					Reason:      reason,
				})
		}

		if strings.TrimSpace(payload.Identity.String()) == "" {
			return fail("missing submitter identity"), nil
		}
		if len(payload.Activities) == 0 {
			return fail("no activities submitted"), nil
		}

		day, parsed := dates.ParseSubmissionDate(payload.DateText, now)
		if !parsed {
			s.logger.WarnContext(ctx, "Unparseable submission date, defaulting to today",
				attr.ExtractCorrelationID(ctx),
				attr.String("date_text", payload.DateText),
			)
		}

		catalog, err := s.catalog.GetCached(ctx)
		if err != nil {
			return SubmitResult{}, err
		}
		if catalog.IsEmpty() {
			return fail("activity catalog is empty"), nil
		}

		// Streaks are computed against the submitter's own history so a
		// housemate's completions never extend this member's run.
		streaks, err := s.streaks.ComputeStreaks(ctx, []sharedtypes.Identity{payload.Identity}, now)
		if err != nil {
			return SubmitResult{}, err
		}

		settings, err := s.points.GetSettings(ctx)
		if err != nil {
			return SubmitResult{}, err
		}

		processed := make([]sharedtypes.ProcessedActivity, 0, len(payload.Activities))
		for _, name := range payload.Activities {
			base, known := catalog.BasePoints(name)
			if !known {
				s.logger.WarnContext(ctx, "Skipping activity not in catalog",
					attr.ExtractCorrelationID(ctx),
					attr.Activity("activity", name),
				)
				continue
			}

			streak := pointsdomain.ResolveStreakLength(name, streaks.Full, streaks.Building)
			processed = append(processed, pointsdomain.ComputePoints(name, base, streak, settings))
		}

		if len(processed) == 0 {
			return fail("no submitted activities found in catalog"), nil
		}

		delta := ledgerdb.MergeDelta{
			Encoded:    ledgerdomain.EncodeRow(processed),
			WeekNumber: dates.ISOWeek(day),
		}
		for _, p := range processed {
			delta.Points += int(p.TotalPoints)
			// Counts track the original (pre-bonus) sign so weekly
			// positive/negative tallies stay meaningful.
			switch {
			case p.OriginalPoints > 0:
				delta.PositiveCount++
			case p.OriginalPoints < 0:
				delta.NegativeCount++
			}
		}

		row, err := s.repo.Upsert(ctx, day, payload.Identity.String(), delta)
		if err != nil {
			return fail("failed to write ledger row: " + err.Error()), nil
		}

		s.logger.InfoContext(ctx, "Submission written to ledger",
			attr.ExtractCorrelationID(ctx),
			attr.Identity("identity", payload.Identity),
			attr.String("date", dates.YMD(day)),
			attr.Int("points", delta.Points),
			attr.Int("row_total", row.TotalPoints),
		)

		return results.Successf[events.ActivitySubmissionProcessedPayloadV1, events.ActivitySubmissionFailedPayloadV1](
			events.ActivitySubmissionProcessedPayloadV1{
				HouseholdID: payload.HouseholdID,
				Identity:    payload.Identity,
				Date:        dates.YMD(day),
				TotalPoints: sharedtypes.Points(delta.Points),
				Activities:  processed,
			}), nil
	})
}
