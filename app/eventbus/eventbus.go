// Package eventbus wraps the watermill NATS JetStream transport behind the
// small surface the modules consume.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
)

// EventBus publishes and subscribes to versioned topics.
type EventBus interface {
	Publish(topic string, messages ...*message.Message) error
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Publisher() message.Publisher
	Subscriber() message.Subscriber
	Close() error
}

type eventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

// New connects publisher and subscriber to the given NATS URL. The appName
// becomes the durable queue-group prefix so each service keeps its own cursor.
func New(ctx context.Context, natsURL string, logger *slog.Logger, appName string) (EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	natsOptions := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(10 * time.Second),
		nc.ReconnectWait(time.Second),
	}

	jsConfig := wnats.JetStreamConfig{
		AutoProvision: true,
		DurablePrefix: appName,
	}

	publisher, err := wnats.NewPublisher(wnats.PublisherConfig{
		URL:         natsURL,
		NatsOptions: natsOptions,
		Marshaler:   &wnats.NATSMarshaler{},
		JetStream:   jsConfig,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subscriber, err := wnats.NewSubscriber(wnats.SubscriberConfig{
		URL:              natsURL,
		NatsOptions:      natsOptions,
		Unmarshaler:      &wnats.NATSMarshaler{},
		QueueGroupPrefix: appName,
		AckWaitTimeout:   30 * time.Second,
		JetStream:        jsConfig,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	logger.InfoContext(ctx, "event bus connected", attr.String("nats_url", natsURL))

	return &eventBus{
		publisher:  publisher,
		subscriber: subscriber,
		logger:     logger,
	}, nil
}

func (b *eventBus) Publish(topic string, messages ...*message.Message) error {
	return b.publisher.Publish(topic, messages...)
}

func (b *eventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

func (b *eventBus) Publisher() message.Publisher { return b.publisher }

func (b *eventBus) Subscriber() message.Subscriber { return b.subscriber }

func (b *eventBus) Close() error {
	if err := b.publisher.Close(); err != nil {
		b.logger.Error("failed to close publisher", attr.Error(err))
	}
	return b.subscriber.Close()
}
