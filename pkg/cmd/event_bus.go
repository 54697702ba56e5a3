package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/sentimento/sentimento/pkg/channels/gochannel"
	"github.com/sentimento/sentimento/pkg/channels/kafka"
	"github.com/sentimento/sentimento/pkg/eventbus"
)

// NewEventBus selects the execution log transport. "gochannel" keeps events
// in-process; "kafka" needs KAFKA_BROKERS.
func NewEventBus(provider string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		publisher, err := kafka.CreatePublisher(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}

		return eventbus.NewWatermillEventBus(publisher), nil
	case "gochannel", "":
		return eventbus.NewWatermillEventBus(gochannel.CreateChannel(wmLogger)), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
