package summaryjobs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/riverqueue/river"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/eventbus"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/events"
	householddb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/household/infrastructure/repositories"
	summaryservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/summary/application"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/utils"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/dates"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/mailer"
)

// WeeklyDigestWorker builds and delivers one household's weekly digest.
type WeeklyDigestWorker struct {
	river.WorkerDefaults[WeeklyDigestJob]

	summary   summaryservice.Service
	household householddb.Repository
	mail      mailer.Mailer
	eventBus  eventbus.EventBus
	helpers   utils.Helpers
	logger    *slog.Logger
}

// NewWeeklyDigestWorker creates a new WeeklyDigestWorker.
func NewWeeklyDigestWorker(
	summary summaryservice.Service,
	household householddb.Repository,
	mail mailer.Mailer,
	eventBus eventbus.EventBus,
	helpers utils.Helpers,
	logger *slog.Logger,
) *WeeklyDigestWorker {
	return &WeeklyDigestWorker{
		summary:   summary,
		household: household,
		mail:      mail,
		eventBus:  eventBus,
		helpers:   helpers,
		logger:    logger,
	}
}

// Work aggregates the week before the reference date, renders the chart, and
// mails every household member with an address on file.
func (w *WeeklyDigestWorker) Work(ctx context.Context, job *river.Job[WeeklyDigestJob]) error {
	householdID := sharedtypes.HouseholdID(job.Args.HouseholdID)

	ref, err := dates.ParseYMD(job.Args.Reference)
	if err != nil {
		// A malformed reference never becomes valid; anchor on today instead
		// of retrying forever.
		w.logger.WarnContext(ctx, "Digest job carried a bad reference date, using today",
			attr.Household("household_id", householdID),
			attr.String("reference", job.Args.Reference),
		)
		ref = time.Now()
	}

	members, err := w.household.GetMembers(ctx, nil, householdID.String())
	if err != nil {
		return fmt.Errorf("load household members: %w", err)
	}
	if len(members) == 0 {
		w.logger.InfoContext(ctx, "Household has no members, skipping digest",
			attr.Household("household_id", householdID),
		)
		return nil
	}

	identities := make([]sharedtypes.Identity, len(members))
	for i, m := range members {
		identities[i] = sharedtypes.Identity(m.Identity)
	}

	summary, err := w.summary.PreviousWeekTotals(ctx, identities, ref)
	if err != nil {
		return fmt.Errorf("aggregate digest week: %w", err)
	}

	chartPNG, err := summaryservice.GenerateWeeklyChart(summary, summaryservice.DefaultPalette())
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to render digest chart, sending text only",
			attr.Household("household_id", householdID),
			attr.Error(err),
		)
		chartPNG = nil
	}

	recipients := make([]string, 0, len(members))
	for _, m := range members {
		if m.Email != "" {
			recipients = append(recipients, m.Email)
		}
	}

	if len(recipients) > 0 {
		msg := mailer.Message{
			To:       recipients,
			Subject:  fmt.Sprintf("Household digest for week of %s", summary.WeekStart),
			TextBody: composeDigestBody(summary),
			ChartPNG: chartPNG,
		}
		if err := w.mail.Send(ctx, msg); err != nil {
			return fmt.Errorf("deliver digest mail: %w", err)
		}
	} else {
		w.logger.InfoContext(ctx, "No member emails on file, skipping mail delivery",
			attr.Household("household_id", householdID),
		)
	}

	payload := events.WeeklyDigestSentPayloadV1{
		HouseholdID: householdID,
		Recipients:  len(recipients),
	}
	outMsg, err := w.helpers.CreateResultMessage(nil, payload, events.WeeklyDigestSentV1)
	if err != nil {
		return fmt.Errorf("build digest-sent event: %w", err)
	}
	if err := w.eventBus.Publish(events.WeeklyDigestSentV1, outMsg); err != nil {
		return fmt.Errorf("publish digest-sent event: %w", err)
	}

	w.logger.InfoContext(ctx, "Weekly digest delivered",
		attr.Household("household_id", householdID),
		attr.String("week_start", summary.WeekStart),
		attr.Int("recipients", len(recipients)),
	)
	return nil
}

// composeDigestBody renders the plain-text digest.
func composeDigestBody(summary summaryservice.WeeklySummary) string {
	body := fmt.Sprintf(
		"Week of %s\n\nTotal points: %d\nCompleted: %d\nMissed: %d\n",
		summary.WeekStart, summary.Total, summary.Positive, summary.Negative,
	)
	if summary.TopActivity != "" {
		body += fmt.Sprintf("Top activity: %s (%d times)\n", summary.TopActivity, summary.TopActivityCount)
	}
	if len(summary.Categories) > 0 {
		body += "\nBy category:\n"
		categories := make([]string, 0, len(summary.Categories))
		for category := range summary.Categories {
			categories = append(categories, string(category))
		}
		sort.Strings(categories)
		for _, category := range categories {
			body += fmt.Sprintf("  %s: %d\n", category, summary.Categories[sharedtypes.Category(category)])
		}
	}
	return body
}
