// Package utils holds watermill payload and middleware helpers shared by module routers.
package utils

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Helpers marshals and unmarshals event payloads for handlers.
type Helpers interface {
	CreateResultMessage(original *message.Message, payload any, topic string) (*message.Message, error)
	UnmarshalPayload(msg *message.Message, out any) error
}

type helpers struct{}

// NewHelpers returns the default JSON-based Helpers.
func NewHelpers() Helpers { return helpers{} }

func (helpers) CreateResultMessage(original *message.Message, payload any, topic string) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for topic %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if original != nil {
		middleware.SetCorrelationID(middleware.MessageCorrelationID(original), msg)
		for k, v := range original.Metadata {
			if _, exists := msg.Metadata[k]; !exists {
				msg.Metadata.Set(k, v)
			}
		}
	}
	msg.Metadata.Set("topic", topic)
	return msg, nil
}

func (helpers) UnmarshalPayload(msg *message.Message, out any) error {
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}

// MiddlewareHelpers builds the common router middleware.
type MiddlewareHelpers interface {
	CommonMetadataMiddleware(service string) message.HandlerMiddleware
}

type middlewareHelpers struct{}

// NewMiddlewareHelper returns the default MiddlewareHelpers.
func NewMiddlewareHelper() MiddlewareHelpers { return middlewareHelpers{} }

// CommonMetadataMiddleware stamps outgoing messages with the handling service name.
func (middlewareHelpers) CommonMetadataMiddleware(service string) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			produced, err := h(msg)
			for _, m := range produced {
				m.Metadata.Set("handled_by", service)
			}
			return produced, err
		}
	}
}
