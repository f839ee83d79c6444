package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
)

// RunRepository handles run-record database operations.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

const runColumns = `
	id
  , workflow_id
  , deployment_version
  , status
  , started_at
  , finished_at
  , cost_usd
  , tokens
  , node_outputs
`

// List returns the workflow's runs filtered and sorted per the query. Status
// and time-window filters run in SQL; the sort runs in memory through the
// shared allowlisted sorter so file and database stores order identically.
func (r *RunRepository) List(ctx context.Context, workflowID string, query models.RunQuery) ([]*models.Run, error) {
	sqlQuery := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE workflow_id = $1
		  AND ($2::timestamptz IS NULL OR started_at >= $2)
		  AND ($3::timestamptz IS NULL OR started_at <= $3)
		ORDER BY started_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, sqlQuery, workflowID, query.Since, query.Until)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func(ctx context.Context, r *RunRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	runs := make([]*models.Run, 0)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if query.Matches(run) {
			runs = append(runs, run)
		}
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	err = models.SortRuns(runs, query.SortKey, query.SortOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, err)
	}

	return runs, nil
}

// GetByID returns a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, workflowID, runID string) (*models.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE workflow_id = $1 AND id = $2
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, workflowID, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRunError("GetByID", workflowID, runID, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}

	return run, nil
}

// Save upserts a run record. Non-terminal runs may still change status.
func (r *RunRepository) Save(ctx context.Context, run *models.Run) error {
	var nodeOutputs any

	if run.NodeOutputs != nil {
		data, err := json.Marshal(run.NodeOutputs)
		if err != nil {
			return fmt.Errorf("failed to marshal node outputs for run %s: %w", run.ID, err)
		}

		nodeOutputs = data
	}

	query := `
		INSERT INTO runs (id, workflow_id, deployment_version, status, started_at, finished_at, cost_usd, tokens, node_outputs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at,
			cost_usd = EXCLUDED.cost_usd,
			tokens = EXCLUDED.tokens,
			node_outputs = EXCLUDED.node_outputs
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.WorkflowID,
		run.DeploymentVersion,
		string(run.Status),
		run.StartedAt,
		run.FinishedAt,
		run.CostUSD,
		run.Tokens,
		nodeOutputs,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	return nil
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run         models.Run
		status      string
		finishedAt  sql.NullTime
		nodeOutputs sql.Null[[]byte]
	)

	err := row.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.DeploymentVersion,
		&status,
		&run.StartedAt,
		&finishedAt,
		&run.CostUSD,
		&run.Tokens,
		&nodeOutputs,
	)
	if err != nil {
		return nil, err
	}

	run.Status = models.RunStatus(status)

	if finishedAt.Valid {
		finished := finishedAt.Time
		run.FinishedAt = &finished
	}

	if nodeOutputs.Valid {
		err = json.Unmarshal(nodeOutputs.V, &run.NodeOutputs)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal node outputs: %w", err)
		}
	}

	return &run, nil
}
