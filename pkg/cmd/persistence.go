// Package cmd provides common initialization helpers for the command-line
// entrypoints.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sentimento/sentimento/pkg/persistence"
	"github.com/sentimento/sentimento/pkg/persistence/file"
	"github.com/sentimento/sentimento/pkg/persistence/postgresql"
	"github.com/sentimento/sentimento/pkg/persistence/redis"
)

// NewRepository picks the execution store from the database URL scheme.
// postgres:// and redis:// select their backends; anything else is treated
// as a file path.
func NewRepository(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.ExecutionRepository, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewRepository(ctx, logger, databaseURL)
	case strings.HasPrefix(databaseURL, "redis://"), strings.HasPrefix(databaseURL, "rediss://"):
		return redis.NewRepository(ctx, databaseURL)
	default:
		return file.NewRepository(databaseURL)
	}
}
