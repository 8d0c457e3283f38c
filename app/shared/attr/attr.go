// Package attr provides slog attribute constructors used across services and handlers.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Float64(key string, value float64) slog.Attr { return slog.Float64(key, value) }

func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

func Identity(key string, id sharedtypes.Identity) slog.Attr {
	return slog.String(key, id.String())
}

func Household(key string, id sharedtypes.HouseholdID) slog.Attr {
	return slog.String(key, id.String())
}

func Activity(key string, name sharedtypes.ActivityName) slog.Attr {
	return slog.String(key, name.String())
}

type correlationIDKey struct{}

// WithCorrelationID stores a correlation ID on the context for downstream log lines.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// ExtractCorrelationID returns the correlation ID attr from the context,
// or an empty-valued attr when none was set.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if v, ok := ctx.Value(correlationIDKey{}).(string); ok && v != "" {
		return slog.String(middleware.CorrelationIDMetadataKey, v)
	}
	return slog.String(middleware.CorrelationIDMetadataKey, "")
}
