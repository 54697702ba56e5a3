// Package file provides a file-based execution repository, one JSON document
// per execution. It is the default backend for development and tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sentimento/sentimento/pkg/persistence"
)

const fileMode = 0o644

// Repository implements persistence.ExecutionRepository on the file system.
type Repository struct {
	root string
	mu   sync.RWMutex
}

// NewRepository creates a repository rooted at the given directory, creating
// it when missing. A "file://" prefix on root is accepted and stripped.
func NewRepository(root string) (*Repository, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	err := os.MkdirAll(filepath.Join(cleanRoot, "executions"), 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create executions directory: %w", err)
	}

	return &Repository{root: cleanRoot}, nil
}

func (r *Repository) path(id string) string {
	return filepath.Join(r.root, "executions", id+".json")
}

func (r *Repository) Save(_ context.Context, record *persistence.ExecutionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return &persistence.ExecutionError{Op: "Save", ExecutionID: record.ID, Err: err}
	}

	err = os.WriteFile(r.path(record.ID), data, fileMode)
	if err != nil {
		return &persistence.ExecutionError{Op: "Save", ExecutionID: record.ID, Err: err}
	}

	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*persistence.ExecutionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: id, Err: persistence.ErrExecutionNotFound}
		}

		return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: id, Err: err}
	}

	var record persistence.ExecutionRecord

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: id, Err: err}
	}

	return &record, nil
}

func (r *Repository) PruneTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(r.root, "executions"))
	if err != nil {
		return 0, fmt.Errorf("failed to list executions: %w", err)
	}

	pruned := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(r.root, "executions", entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var record persistence.ExecutionRecord
		if json.Unmarshal(data, &record) != nil {
			continue
		}

		if !record.IsTerminal() || record.FinishedAt == nil || !record.FinishedAt.Before(cutoff) {
			continue
		}

		err = os.Remove(path)
		if err != nil {
			return pruned, fmt.Errorf("failed to remove execution %s: %w", record.ID, err)
		}

		pruned++
	}

	return pruned, nil
}

func (r *Repository) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(r.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (r *Repository) Close(_ context.Context) error {
	return nil
}
