package engine

import (
	"time"

	"github.com/sentimento/sentimento/pkg/document"
	"github.com/sentimento/sentimento/pkg/persistence"
)

type Status string

const (
	StatusRunning   Status = persistence.StatusRunning
	StatusSucceeded Status = persistence.StatusSucceeded
	StatusFailed    Status = persistence.StatusFailed
)

// Execution is one run of the definition against one input document. It is
// owned exclusively by the engine: callers only ever see the Handle returned
// by Start and the records the engine persists.
type Execution struct {
	ID           string
	Document     document.Document
	CurrentState string
	Status       Status
	Err          error
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Handle is what the caller of Start gets back, before any state has run.
type Handle struct {
	ID        string
	StartedAt time.Time
}

func (e *Execution) record() *persistence.ExecutionRecord {
	record := &persistence.ExecutionRecord{
		ID:           e.ID,
		Status:       string(e.Status),
		CurrentState: e.CurrentState,
		Document:     e.Document.Fields(),
		StartedAt:    e.StartedAt,
	}

	if e.Err != nil {
		record.Error = e.Err.Error()
	}

	if !e.FinishedAt.IsZero() {
		finished := e.FinishedAt
		record.FinishedAt = &finished
	}

	return record
}
