package eventbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentimento/sentimento/pkg/channels/gochannel"
	"github.com/sentimento/sentimento/pkg/events"
)

func TestWatermillEventBus_PublishesExecutionEvents(t *testing.T) {
	channel := gochannel.CreateTestChannel(watermill.NopLogger{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	messages, err := channel.Subscribe(ctx, events.Topic)
	require.NoError(t, err)

	bus := NewWatermillEventBus(channel)

	defer func() {
		require.NoError(t, bus.Close())
	}()

	event := events.ExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.ExecutionStartedEvent, "exec-1"),
		Input:     map[string]any{"txt": "I love this"},
	}

	require.NoError(t, bus.Publish(ctx, "exec-1", event))

	select {
	case msg := <-messages:
		msg.Ack()

		assert.Equal(t, "exec-1", msg.Metadata.Get(events.EventMetadataKey))
		assert.Equal(t, string(events.ExecutionStartedEvent), msg.Metadata.Get(events.EventTypeMetadataKey))

		var payload events.ExecutionStarted

		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, "exec-1", payload.ExecutionID)
		assert.Equal(t, "I love this", payload.Input["txt"])
	case <-ctx.Done():
		t.Fatal("timed out waiting for published event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := NewWatermillEventBus(gochannel.CreateTestChannel(watermill.NopLogger{}))

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
