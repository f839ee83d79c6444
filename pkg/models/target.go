package models

import (
	"errors"
	"fmt"
	"strings"
)

// DeploymentTarget identifies where a deployed version is exposed.
type DeploymentTarget string

const (
	TargetAPI          DeploymentTarget = "api"
	TargetWebapp       DeploymentTarget = "webapp"
	TargetWidget       DeploymentTarget = "widget"
	TargetWorkflowNode DeploymentTarget = "workflow_node"
	TargetSchedule     DeploymentTarget = "schedule"
)

// ErrInvalidDeploymentTarget is returned when a target is not in the known set.
var ErrInvalidDeploymentTarget = errors.New("invalid deployment target")

// AllDeploymentTargets returns the known targets in display order.
func AllDeploymentTargets() []DeploymentTarget {
	return []DeploymentTarget{
		TargetAPI,
		TargetWebapp,
		TargetWidget,
		TargetWorkflowNode,
		TargetSchedule,
	}
}

// ParseDeploymentTarget normalizes a raw target string to its canonical
// lowercase form. Upstream payloads carry targets in mixed casing.
func ParseDeploymentTarget(raw string) (DeploymentTarget, error) {
	target := DeploymentTarget(strings.ToLower(strings.TrimSpace(raw)))

	if !target.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDeploymentTarget, raw)
	}

	return target, nil
}

// IsValid reports whether the target is one of the known variants.
func (t DeploymentTarget) IsValid() bool {
	switch t {
	case TargetAPI, TargetWebapp, TargetWidget, TargetWorkflowNode, TargetSchedule:
		return true
	default:
		return false
	}
}
