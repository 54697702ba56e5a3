// Package redis provides a redis-backed execution repository, for
// deployments that already run redis and want execution state shared between
// replicas without a SQL database.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sentimento/sentimento/pkg/persistence"
)

const keyPrefix = "sentimento:executions:"

// Repository implements persistence.ExecutionRepository on redis.
type Repository struct {
	client goredis.UniversalClient
}

// NewRepository connects to redis using a redis:// URL.
func NewRepository(ctx context.Context, redisURL string) (*Repository, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Repository{client: client}, nil
}

func (r *Repository) Save(ctx context.Context, record *persistence.ExecutionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return &persistence.ExecutionError{Op: "Save", ExecutionID: record.ID, Err: err}
	}

	err = r.client.Set(ctx, keyPrefix+record.ID, data, 0).Err()
	if err != nil {
		return &persistence.ExecutionError{Op: "Save", ExecutionID: record.ID, Err: err}
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*persistence.ExecutionRecord, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: id, Err: persistence.ErrExecutionNotFound}
	}

	if err != nil {
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
	pruned := 0
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()

	for iter.Next(ctx) {
		key := iter.Val()

		data, err := r.client.Get(ctx, key).Bytes()
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

		err = r.client.Del(ctx, key).Err()
		if err != nil {
			return pruned, fmt.Errorf("failed to delete execution %s: %w", record.ID, err)
		}

		pruned++
	}

	err := iter.Err()
	if err != nil {
		return pruned, fmt.Errorf("failed to scan executions: %w", err)
	}

	return pruned, nil
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	err := r.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (r *Repository) Close(_ context.Context) error {
	return r.client.Close()
}
