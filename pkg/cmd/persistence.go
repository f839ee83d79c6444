// Package cmd provides shared wiring helpers for the flowdeck binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/flowdeck/flowdeck/pkg/persistence/file"
	"github.com/flowdeck/flowdeck/pkg/persistence/postgresql"
)

// NewPersistence selects a store from the database URL scheme. Anything that
// is not a postgres URL falls back to the file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
