// Package web provides HTTP request and response types for the workflow
// admission API.
package web

import "github.com/flowgate/flowgate/pkg/models"

// ValidateWorkflowRequest represents the request body for a pre-flight check.
// An empty node list is accepted; the validator itself reports it as invalid
// with an empty validations list.
type ValidateWorkflowRequest struct {
	Nodes []*models.WorkflowNode `json:"nodes" validate:"dive,required"`
}

// ScanWorkflowRequest represents the request body for a standalone security scan.
type ScanWorkflowRequest struct {
	Nodes []*models.WorkflowNode `json:"nodes" validate:"required,min=1,dive,required"`
}

// AdmitWorkflowRequest represents the request body for an admission decision
// without execution.
type AdmitWorkflowRequest struct {
	Nodes           []*models.WorkflowNode `json:"nodes"            validate:"required,min=1,dive,required"`
	RequireApproval bool                   `json:"require_approval"`
}

// ExecuteWorkflowRequest represents the request body for an admitted run.
type ExecuteWorkflowRequest struct {
	Nodes           []*models.WorkflowNode `json:"nodes"                  validate:"required,min=1,dive,required"`
	WorkspaceID     string                 `json:"workspace_id"           validate:"required"`
	WorkflowID      string                 `json:"workflow_id,omitempty"`
	TriggeredBy     string                 `json:"triggered_by,omitempty"`
	TriggerData     map[string]any         `json:"trigger_data,omitempty"`
	RequireApproval bool                   `json:"require_approval"`
	OnError         string                 `json:"on_error,omitempty"     validate:"omitempty,oneof=halt skip continue"`
}

// ExecuteWorkflowResponse is returned for an execution that was admitted and
// ran to completion, with or without node-level failures.
type ExecuteWorkflowResponse struct {
	Success     bool                   `json:"success"`
	ExecutionID string                 `json:"execution_id"`
	Duration    string                 `json:"duration"`
	Result      *models.ExecutionTrace `json:"result"`
}

// BlockedWorkflowResponse is returned when the admission gate refuses to run
// the workflow.
type BlockedWorkflowResponse struct {
	Valid      bool                      `json:"valid"`
	Reason     string                    `json:"reason"`
	ScanResult models.SecurityScanResult `json:"scan_result"`
}
