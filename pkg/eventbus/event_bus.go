// Package eventbus publishes the execution log to an external sink. The log
// is publish-only from this service's point of view; nothing here subscribes.
package eventbus

import (
	"context"

	"github.com/sentimento/sentimento/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventBus interface {
	Publish(ctx context.Context, key string, event Event) error
	Close() error
	GenerateID() string
}
