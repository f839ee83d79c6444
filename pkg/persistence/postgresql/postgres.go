// Package postgresql provides PostgreSQL persistence for deployments and
// runs.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Postgres driver registration.
	_ "github.com/lib/pq"

	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/flowdeck/flowdeck/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	deploymentRepo *DeploymentRepository
	runRepo        *RunRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and runs pending
// migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             database,
		logger:         logger,
		deploymentRepo: NewDeploymentRepository(database, logger),
		runRepo:        NewRunRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) DeploymentRepository() persistence.DeploymentRepository {
	return p.deploymentRepo
}

func (p *Persistence) RunRepository() persistence.RunRepository {
	return p.runRepo
}
