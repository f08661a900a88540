// Package models defines the core domain models for the workflow
// admission-and-execution pipeline.
package models

import "time"

// NodeType is the closed set of workflow node kinds.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeCondition NodeType = "condition"
	NodeTypeAction    NodeType = "action"
	NodeTypeData      NodeType = "data"
	NodeTypeAI        NodeType = "ai"

	// Media and agent subtypes; behaviorally they execute like AI nodes.
	NodeTypeAIAgent NodeType = "ai_agent"
	NodeTypeImage   NodeType = "image"
	NodeTypeVideo   NodeType = "video"
)

// IsAIKind reports whether the node type is served by the AI handler.
func (t NodeType) IsAIKind() bool {
	switch t {
	case NodeTypeAI, NodeTypeAIAgent, NodeTypeImage, NodeTypeVideo:
		return true
	default:
		return false
	}
}

// WorkflowNode represents one step in a workflow. List order is execution
// order; there is no edge or graph structure.
type WorkflowNode struct {
	ID          string         `json:"id"          validate:"required"`
	Type        NodeType       `json:"type"        validate:"required"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Config      map[string]any `json:"config"`
}

// ConfigString returns the string value stored under key, or "" when the key
// is absent or holds a non-string value.
func (n *WorkflowNode) ConfigString(key string) string {
	if n.Config == nil {
		return ""
	}

	value, _ := n.Config[key].(string)

	return value
}

// Node result status vocabulary. Statuses are node-type-specific.
const (
	ResultStatusTriggered = "triggered"
	ResultStatusPassed    = "passed"
	ResultStatusFailed    = "failed"
	ResultStatusCompleted = "completed"
	ResultStatusError     = "error"
)

// NodeResult is the outcome of executing a single node.
type NodeResult struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// IsError reports whether the node finished with an execution error.
func (r NodeResult) IsError() bool {
	return r.Status == ResultStatusError
}

// TraceEntry is one per-node record in an execution trace.
type TraceEntry struct {
	NodeID    string     `json:"node_id"`
	NodeType  NodeType   `json:"node_type"`
	NodeTitle string     `json:"node_title"`
	Result    NodeResult `json:"result"`
	Timestamp time.Time  `json:"timestamp"`
}

// ExecutionTrace is the ordered list of per-node results produced by one
// execution call. It is built and finalized within a single interpreter
// invocation and never mutated after the call returns.
type ExecutionTrace struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspace_id"`
	WorkflowID  string       `json:"workflow_id,omitempty"`
	TriggeredBy string       `json:"triggered_by,omitempty"`
	Steps       []TraceEntry `json:"steps"`
	DurationMS  int64        `json:"duration_ms"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
}
