// Package web is the HTTP boundary: it validates inbound requests, asks the
// engine to start an execution and maps the start outcome onto the wire. It
// never waits for an execution to finish.
package web

import (
	"time"
)

// StartOutcome is the result of asking the engine to start an execution:
// either a StartSuccess or a StartError.
type StartOutcome interface {
	isStartOutcome()
}

// StartSuccess carries what the caller needs to correlate the accepted
// execution: nothing in it says anything about the eventual result.
type StartSuccess struct {
	RequestID   string
	ExecutionID string
	StartDate   time.Time
}

func (StartSuccess) isStartOutcome() {}

// StartError is a synchronous rejection: validation failed or the engine
// refused the start call.
type StartError struct {
	RequestID string
	Message   string
}

func (StartError) isStartOutcome() {}

// StartSuccessBody is the wire shape of an accepted start.
type StartSuccessBody struct {
	RequestID    string `json:"requestId"`
	ExecutionARN string `json:"executionArn"`
	StartDate    string `json:"startDate"`
}

// StartErrorBody is the wire shape of a rejected start.
type StartErrorBody struct {
	RequestID string `json:"requestId"`
	Message   string `json:"message"`
}

// ExecutionBody is the wire shape of a persisted execution.
type ExecutionBody struct {
	ID           string         `json:"id"`
	Status       string         `json:"status"`
	CurrentState string         `json:"currentState,omitempty"`
	StartedAt    time.Time      `json:"startedAt"`
	FinishedAt   *time.Time     `json:"finishedAt,omitempty"`
	Result       map[string]any `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
}
