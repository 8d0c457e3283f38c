// Package ledgerhandlers routes ledger events into the application service.
package ledgerhandlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	ledgerservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/application"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/utils"
)

// LedgerHandlers handles ledger-related events.
type LedgerHandlers struct {
	service        ledgerservice.Service
	logger         *slog.Logger
	tracer         trace.Tracer
	metrics        observability.Metrics
	helpers        utils.Helpers
	handlerWrapper func(handlerName string, unmarshalTo interface{}, handlerFunc func(ctx context.Context, msg *message.Message, payload interface{}) ([]*message.Message, error)) message.HandlerFunc
}

// NewLedgerHandlers creates a new LedgerHandlers.
func NewLedgerHandlers(
	service ledgerservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
	helpers utils.Helpers,
	metrics observability.Metrics,
) Handlers {
	return &LedgerHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
		helpers: helpers,
		metrics: metrics,
		handlerWrapper: func(handlerName string, unmarshalTo interface{}, handlerFunc func(ctx context.Context, msg *message.Message, payload interface{}) ([]*message.Message, error)) message.HandlerFunc {
			return handlerWrapper(handlerName, unmarshalTo, handlerFunc, logger, metrics, tracer, helpers)
		},
	}
}

// handlerWrapper carries the common tracing, logging, and metrics for handlers.
func handlerWrapper(
	handlerName string,
	unmarshalTo interface{},
	handlerFunc func(ctx context.Context, msg *message.Message, payload interface{}) ([]*message.Message, error),
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
	helpers utils.Helpers,
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx, span := tracer.Start(msg.Context(), handlerName)
		defer span.End()

		metrics.RecordOperationAttempt(ctx, handlerName, "ledger_handlers")

		startTime := time.Now()
		defer func() {
			metrics.RecordOperationDuration(ctx, handlerName, "ledger_handlers", time.Since(startTime))
		}()

		logger.InfoContext(ctx, handlerName+" triggered",
			attr.ExtractCorrelationID(ctx),
			attr.String("message_id", msg.UUID),
		)

		if unmarshalTo != nil {
			if err := helpers.UnmarshalPayload(msg, unmarshalTo); err != nil {
				logger.ErrorContext(ctx, "Failed to unmarshal payload",
					attr.String("message_id", msg.UUID),
					attr.Error(err),
				)
				metrics.RecordOperationFailure(ctx, handlerName, "ledger_handlers")
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		result, err := handlerFunc(ctx, msg, unmarshalTo)
		if err != nil {
			logger.ErrorContext(ctx, "Error in "+handlerName,
				attr.String("message_id", msg.UUID),
				attr.Error(err),
			)
			metrics.RecordOperationFailure(ctx, handlerName, "ledger_handlers")
			return nil, err
		}

		logger.InfoContext(ctx, handlerName+" completed successfully",
			attr.String("message_id", msg.UUID),
		)
		metrics.RecordOperationSuccess(ctx, handlerName, "ledger_handlers")
		return result, nil
	}
}
