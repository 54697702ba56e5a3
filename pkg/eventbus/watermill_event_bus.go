package eventbus

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/sentimento/sentimento/pkg/events"
)

// WatermillEventBus publishes execution events through any watermill
// publisher (gochannel in tests and development, kafka in production).
type WatermillEventBus struct {
	publisher message.Publisher
}

func NewWatermillEventBus(publisher message.Publisher) *WatermillEventBus {
	return &WatermillEventBus{publisher: publisher}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

func (eb *WatermillEventBus) Close() error {
	return eb.publisher.Close()
}
