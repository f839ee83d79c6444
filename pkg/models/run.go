package models

import (
	"encoding/json"
	"time"
)

// RunStatus is the lifecycle state of a workflow run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSuccess   RunStatus = "success"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether the run has finished and will not change again.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSuccess, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// Run is one execution of a deployed workflow version, with the metrics the
// dashboard compares across runs.
type Run struct {
	ID                string                     `json:"id"          validate:"required"`
	WorkflowID        string                     `json:"workflow_id" validate:"required"`
	DeploymentVersion int64                      `json:"deployment_version"`
	Status            RunStatus                  `json:"status"`
	StartedAt         time.Time                  `json:"started_at"`
	FinishedAt        *time.Time                 `json:"finished_at,omitempty"`
	CostUSD           float64                    `json:"cost_usd"`
	Tokens            int64                      `json:"tokens"`
	NodeOutputs       map[string]json.RawMessage `json:"node_outputs,omitempty"`
}

// Duration returns the wall-clock time of a finished run, or zero while the
// run is still in flight.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}

	return r.FinishedAt.Sub(r.StartedAt)
}

// RunSortKey selects the ordering of a run listing.
type RunSortKey string

const (
	RunSortLatest   RunSortKey = "latest"
	RunSortOldest   RunSortKey = "oldest"
	RunSortCost     RunSortKey = "cost"
	RunSortTokens   RunSortKey = "tokens"
	RunSortDuration RunSortKey = "duration"
)

// SortOrder is the direction applied to metric sort keys. The latest and
// oldest keys carry their own direction and ignore it.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// RunQuery filters and orders a run listing.
type RunQuery struct {
	Statuses  []RunStatus
	Since     *time.Time
	Until     *time.Time
	SortKey   RunSortKey
	SortOrder SortOrder
}

// Matches reports whether the run passes the query's status and time-window
// filters. Sorting is applied separately by SortRuns.
func (q RunQuery) Matches(run *Run) bool {
	if len(q.Statuses) > 0 {
		found := false

		for _, status := range q.Statuses {
			if run.Status == status {
				found = true

				break
			}
		}

		if !found {
			return false
		}
	}

	if q.Since != nil && run.StartedAt.Before(*q.Since) {
		return false
	}

	if q.Until != nil && run.StartedAt.After(*q.Until) {
		return false
	}

	return true
}
