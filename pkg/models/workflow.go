package models

import (
	"time"

	"github.com/robfig/cron/v3"
)

// CategoryType represents the category of a node.
type CategoryType string

const (
	CategoryTypeAction  CategoryType = "action"
	CategoryTypeTrigger CategoryType = "trigger"
)

// NodeTypeTriggerSchedule is the trigger node type carrying a cron schedule.
const NodeTypeTriggerSchedule = "trigger:schedule"

// WorkflowNode is a node instance in a draft graph. Only the fields the
// deployment core reads are modeled; node execution is out of scope.
type WorkflowNode struct {
	ID       string         `json:"id"       validate:"required"`
	Type     string         `json:"type"     validate:"required"`
	Category CategoryType   `json:"category" validate:"required"`
	Name     string         `json:"name"`
	Config   map[string]any `json:"config"`
	Enabled  bool           `json:"enabled"`
}

// IsTriggerNode reports whether the node belongs to the trigger category.
func (n *WorkflowNode) IsTriggerNode() bool {
	return n.Category == CategoryTypeTrigger
}

// Workflow is the live, mutable draft graph being edited. Exactly one exists
// per open session; it is never versioned until a deployment succeeds.
type Workflow struct {
	ID        string          `json:"id"   validate:"required"`
	Name      string          `json:"name" validate:"required,min=3"`
	Nodes     []*WorkflowNode `json:"nodes"`
	Variables map[string]any  `json:"variables,omitempty"`
	Owner     string          `json:"owner"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ScheduleSpec is the cron configuration carried by a schedule trigger node.
type ScheduleSpec struct {
	CronExpression string `json:"cron_expression"`
	Timezone       string `json:"timezone"`
}

// Validate checks the cron expression with the standard 5-field parser.
func (s ScheduleSpec) Validate() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(s.CronExpression)

	return err
}

// ScheduleTrigger returns the cron spec of the first enabled schedule trigger
// node, if the draft has one. Schedule deployments read their cron from the
// draft graph rather than from the backend response.
func (w *Workflow) ScheduleTrigger() (ScheduleSpec, bool) {
	for _, node := range w.Nodes {
		if !node.IsTriggerNode() || !node.Enabled || node.Type != NodeTypeTriggerSchedule {
			continue
		}

		spec := ScheduleSpec{}
		if expr, ok := node.Config["cron_expression"].(string); ok {
			spec.CronExpression = expr
		}

		if tz, ok := node.Config["timezone"].(string); ok {
			spec.Timezone = tz
		}

		if spec.CronExpression == "" {
			continue
		}

		return spec, true
	}

	return ScheduleSpec{}, false
}
