// Package persistence defines the execution record store. The engine saves a
// snapshot of every status transition so terminal state stays observable
// after the gateway has already responded.
package persistence

import (
	"context"
	"time"
)

// Execution statuses as stored. They mirror engine.Status values.
const (
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

// ExecutionRecord is the persisted snapshot of an execution.
type ExecutionRecord struct {
	ID           string         `json:"id"`
	Status       string         `json:"status"`
	CurrentState string         `json:"current_state,omitempty"`
	Document     map[string]any `json:"document,omitempty"`
	Error        string         `json:"error,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
}

func (r *ExecutionRecord) IsTerminal() bool {
	return r.Status == StatusSucceeded || r.Status == StatusFailed
}

// ExecutionRepository stores execution records. Save overwrites any existing
// record with the same ID.
type ExecutionRepository interface {
	Save(ctx context.Context, record *ExecutionRecord) error
	GetByID(ctx context.Context, id string) (*ExecutionRecord, error)

	// PruneTerminalBefore deletes terminal records that finished before the
	// cutoff and reports how many were removed.
	PruneTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
