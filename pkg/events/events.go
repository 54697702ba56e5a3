// Package events defines the execution-log event types published while an
// execution runs. The log is append-only; consumers live outside this
// service.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the channel the execution log is published to.
const Topic = "sentimento.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	StateEnteredEvent       EventType = "execution.state.entered"
	ExecutionSucceededEvent EventType = "execution.succeeded"
	ExecutionFailedEvent    EventType = "execution.failed"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	ExecutionID string         `json:"execution_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, executionID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		ExecutionID: executionID,
	}
}

type ExecutionStarted struct {
	BaseEvent

	Input map[string]any `json:"input,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type StateEntered struct {
	BaseEvent

	State string `json:"state"`
}

func (e StateEntered) GetType() EventType {
	return StateEnteredEvent
}

type ExecutionSucceeded struct {
	BaseEvent

	Result   map[string]any `json:"result,omitempty"`
	Duration time.Duration  `json:"duration"`
}

func (e ExecutionSucceeded) GetType() EventType {
	return ExecutionSucceededEvent
}

type ExecutionFailed struct {
	BaseEvent

	State    string        `json:"state,omitempty"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}
