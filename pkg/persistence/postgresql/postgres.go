// Package postgresql provides the PostgreSQL execution repository.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/sentimento/sentimento/pkg/persistence"
)

// Repository implements persistence.ExecutionRepository on PostgreSQL.
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository connects to the database, runs migrations and returns the
// repository.
func NewRepository(ctx context.Context, logger *slog.Logger, databaseURL string) (*Repository, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrator := newMigrationManager(logger, database, migrations())

	err = migrator.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Repository{db: database, logger: logger}, nil
}

func (r *Repository) Save(ctx context.Context, record *persistence.ExecutionRecord) error {
	documentJSON, err := json.Marshal(record.Document)
	if err != nil {
		return &persistence.ExecutionError{Op: "Save", ExecutionID: record.ID, Err: err}
	}

	query := `
		INSERT INTO executions (id, status, current_state, document, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			current_state = EXCLUDED.current_state,
			document = EXCLUDED.document,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.Status,
		record.CurrentState,
		documentJSON,
		record.Error,
		record.StartedAt,
		record.FinishedAt,
	)
	if err != nil {
		return &persistence.ExecutionError{Op: "Save", ExecutionID: record.ID, Err: err}
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*persistence.ExecutionRecord, error) {
	query := `
		SELECT id, status, current_state, document, error, started_at, finished_at
		FROM executions
		WHERE id = $1
	`

	var (
		record       persistence.ExecutionRecord
		documentJSON []byte
		finishedAt   sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.Status,
		&record.CurrentState,
		&documentJSON,
		&record.Error,
		&record.StartedAt,
		&finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: id, Err: persistence.ErrExecutionNotFound}
	}

	if err != nil {
		return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: id, Err: err}
	}

	if len(documentJSON) > 0 {
		err = json.Unmarshal(documentJSON, &record.Document)
		if err != nil {
			return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: id, Err: err}
		}
	}

	if finishedAt.Valid {
		record.FinishedAt = &finishedAt.Time
	}

	return &record, nil
}

func (r *Repository) PruneTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		DELETE FROM executions
		WHERE status IN ($1, $2) AND finished_at IS NOT NULL AND finished_at < $3
	`

	result, err := r.db.ExecContext(ctx, query, persistence.StatusSucceeded, persistence.StatusFailed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune executions: %w", err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned executions: %w", err)
	}

	return int(pruned), nil
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	err := r.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (r *Repository) Close(_ context.Context) error {
	if r.db != nil {
		err := r.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
