package ledgerhandlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/events"
)

// HandleActivitySubmissionRequest scores a submission and emits the processed
// or failed result. Business failures become failed events, not handler errors,
// so the message is never redelivered for them.
func (h *LedgerHandlers) HandleActivitySubmissionRequest(msg *message.Message) ([]*message.Message, error) {
	wrapped := h.handlerWrapper(
		"HandleActivitySubmissionRequest",
		&events.ActivitySubmissionRequestedPayloadV1{},
		func(ctx context.Context, msg *message.Message, payload interface{}) ([]*message.Message, error) {
			request, ok := payload.(*events.ActivitySubmissionRequestedPayloadV1)
			if !ok {
				return nil, errors.New("unexpected payload type")
			}

			result, err := h.service.SubmitActivities(ctx, *request, time.Now())
			if err != nil {
				return nil, err
			}

			if result.Failure != nil {
				failedMsg, err := h.helpers.CreateResultMessage(msg, result.Failure, events.ActivitySubmissionFailedV1)
				if err != nil {
					return nil, fmt.Errorf("failed to create failure message: %w", err)
				}
				return []*message.Message{failedMsg}, nil
			}

			if result.Success == nil {
				return nil, errors.New("service returned neither success nor failure")
			}

			processedMsg, err := h.helpers.CreateResultMessage(msg, result.Success, events.ActivitySubmissionProcessedV1)
			if err != nil {
				return nil, fmt.Errorf("failed to create success message: %w", err)
			}
			return []*message.Message{processedMsg}, nil
		},
	)

	return wrapped(msg)
}
