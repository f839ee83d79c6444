// Package deployflow drives the publish dialog for a workflow: picking a
// target, submitting the draft and shaping the backend result into what the
// chosen target needs (share links, embed links, credentials or schedule
// details).
package deployflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/flowdeck/flowdeck/pkg/gateway"
	"github.com/flowdeck/flowdeck/pkg/models"
)

// State is the phase the publish dialog is in.
type State string

const (
	StateClosed  State = "closed"
	StateInput   State = "input"
	StateSuccess State = "success"
	StateError   State = "error"
)

// ErrSubmitPending is returned by Close while a submission is still in
// flight; callers decide whether to force the dialog shut with ConfirmClose.
var ErrSubmitPending = errors.New("a deployment submission is still in progress")

// ErrNotOpen is returned by operations that require the dialog to be open.
var ErrNotOpen = errors.New("the publish dialog is not open")

const genericFailureMessage = "something went wrong, please try again"

// Deployer submits a workflow draft for deployment to a target.
type Deployer interface {
	SubmitDeployment(ctx context.Context, workflowID string, target models.DeploymentTarget, description string, draft *models.Workflow) (*models.RawDeployResult, error)
}

// Flow is the publish dialog state machine. All methods are safe for
// concurrent use.
type Flow struct {
	mu       sync.Mutex
	deployer Deployer
	logger   *slog.Logger

	workflowID string
	baseURL    string

	state       State
	target      models.DeploymentTarget
	description string
	submitting  bool
	result      *models.DeploymentResult
	errMessage  string

	// gen is bumped every time the dialog opens or closes so that a
	// submission resolving after the dialog moved on is discarded.
	gen uint64

	// notify, when set, is called without the lock held after every state
	// transition.
	notify func()
}

// NewFlow creates a closed publish dialog for the given workflow. baseURL is
// the public origin used to build share and embed links.
func NewFlow(deployer Deployer, workflowID, baseURL string, logger *slog.Logger) *Flow {
	return &Flow{
		deployer:   deployer,
		logger:     logger.With("module", "deployflow"),
		workflowID: workflowID,
		baseURL:    baseURL,
		state:      StateClosed,
	}
}

// SetNotify registers a callback invoked after every state transition.
func (f *Flow) SetNotify(notify func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.notify = notify
}

// State returns the current dialog phase.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

// Target returns the deployment target the dialog is open for.
func (f *Flow) Target() models.DeploymentTarget {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.target
}

// Description returns the release description entered so far.
func (f *Flow) Description() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.description
}

// Submitting reports whether a submission is in flight.
func (f *Flow) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.submitting
}

// Result returns the shaped deployment result after a successful submit.
func (f *Flow) Result() *models.DeploymentResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.result
}

// ErrorMessage returns the user-facing failure message in the error phase.
func (f *Flow) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.errMessage
}

// Open opens the dialog for the given target. Any result, error or
// description from a previous cycle is cleared. Opening while already open
// switches the target and starts a fresh cycle.
func (f *Flow) Open(target models.DeploymentTarget) error {
	if !target.IsValid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidDeploymentTarget, target)
	}

	f.mu.Lock()
	f.gen++
	f.state = StateInput
	f.target = target
	f.description = ""
	f.submitting = false
	f.result = nil
	f.errMessage = ""
	f.mu.Unlock()

	f.notifyChange()

	return nil
}

// SetDescription records the release description typed into the dialog.
func (f *Flow) SetDescription(description string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateClosed {
		return
	}

	f.description = description
}

// Submit sends the current draft to the backend. The call returns
// immediately; the dialog transitions to success or error when the
// submission resolves. Submitting is only valid from the input phase; after a
// failure the caller goes through Retry first.
func (f *Flow) Submit(ctx context.Context, draft *models.Workflow) error {
	f.mu.Lock()

	if f.state != StateInput {
		f.mu.Unlock()

		return ErrNotOpen
	}

	if f.submitting {
		f.mu.Unlock()

		return ErrSubmitPending
	}

	f.submitting = true
	f.errMessage = ""
	gen := f.gen
	target := f.target
	description := f.description
	f.mu.Unlock()

	f.notifyChange()

	go func() {
		raw, err := f.deployer.SubmitDeployment(ctx, f.workflowID, target, description, draft)
		f.resolve(gen, target, draft, raw, err)
	}()

	return nil
}

// Retry returns the dialog to the input phase after a failure. The target and
// description are kept so the user can review them and submit again; no
// submission is issued here.
func (f *Flow) Retry() error {
	f.mu.Lock()

	if f.state != StateError {
		f.mu.Unlock()

		return ErrNotOpen
	}

	f.state = StateInput
	f.submitting = false
	f.errMessage = ""
	f.mu.Unlock()

	f.notifyChange()

	return nil
}

// Close dismisses the dialog. While a submission is in flight it refuses
// with ErrSubmitPending so the caller can ask for confirmation.
func (f *Flow) Close() error {
	f.mu.Lock()

	if f.submitting {
		f.mu.Unlock()

		return ErrSubmitPending
	}

	f.closeLocked()
	f.mu.Unlock()

	f.notifyChange()

	return nil
}

// ConfirmClose dismisses the dialog even while a submission is in flight.
// The in-flight submission keeps running server-side; its resolution is
// discarded here.
func (f *Flow) ConfirmClose() {
	f.mu.Lock()
	f.closeLocked()
	f.mu.Unlock()

	f.notifyChange()
}

func (f *Flow) closeLocked() {
	f.gen++
	f.state = StateClosed
	f.target = ""
	f.description = ""
	f.submitting = false
	f.result = nil
	f.errMessage = ""
}

func (f *Flow) resolve(gen uint64, target models.DeploymentTarget, draft *models.Workflow, raw *models.RawDeployResult, err error) {
	f.mu.Lock()

	if gen != f.gen {
		f.mu.Unlock()
		f.logger.Debug("discarding deployment resolution for a dismissed dialog", "workflow_id", f.workflowID, "target", target)

		return
	}

	f.submitting = false

	if err != nil || raw == nil || !raw.Success {
		f.state = StateError
		f.errMessage = failureMessage(raw, err)
		f.mu.Unlock()

		f.logger.Error("deployment submission failed", "workflow_id", f.workflowID, "target", target, "error", err)
		f.notifyChange()

		return
	}

	f.state = StateSuccess
	f.result = f.shapeResult(target, draft, raw)
	f.mu.Unlock()

	f.logger.Info("deployment submitted", "workflow_id", f.workflowID, "target", target, "version", raw.Version)
	f.notifyChange()
}

// shapeResult turns the raw backend payload into the target-specific result
// the success screen renders.
func (f *Flow) shapeResult(target models.DeploymentTarget, draft *models.Workflow, raw *models.RawDeployResult) *models.DeploymentResult {
	result := &models.DeploymentResult{
		Target:       target,
		Version:      raw.Version,
		URLSlug:      raw.URLSlug,
		AuthSecret:   raw.AuthSecret,
		InputSchema:  raw.InputSchema,
		OutputSchema: raw.OutputSchema,
	}

	switch target {
	case models.TargetAPI:
		// The API target uses the slug and secret as-is.
	case models.TargetWebapp:
		result.ShareURL = fmt.Sprintf("%s/app/%s", f.baseURL, raw.URLSlug)
	case models.TargetWidget:
		result.EmbedURL = fmt.Sprintf("%s/embed/%s.js", f.baseURL, raw.URLSlug)
	case models.TargetWorkflowNode:
		result.AuthSecret = ""
		result.IsWorkflowNode = true
	case models.TargetSchedule:
		if draft != nil {
			if spec, ok := draft.ScheduleTrigger(); ok {
				result.CronExpression = spec.CronExpression
				result.Timezone = spec.Timezone
			}
		}
	}

	return result
}

func failureMessage(raw *models.RawDeployResult, err error) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return gwErr.UserMessage()
	}

	if raw != nil && raw.Message != "" {
		return raw.Message
	}

	return genericFailureMessage
}

func (f *Flow) notifyChange() {
	f.mu.Lock()
	notify := f.notify
	f.mu.Unlock()

	if notify != nil {
		notify()
	}
}
