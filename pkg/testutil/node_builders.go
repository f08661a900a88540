// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/flowgate/flowgate/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a test WorkflowNode with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	node := &models.WorkflowNode{
		ID:     uuid.New().String(),
		Type:   models.NodeTypeAction,
		Title:  "Test Node",
		Config: map[string]any{"method": "LOG", "message": "test"},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithTriggerNode configures the node as a manual trigger node.
func WithTriggerNode() func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeTrigger
		n.Title = "Manual Trigger"
		n.Config = map[string]any{"event_source": "manual"}
	}
}

// WithType sets the node type.
func WithType(nodeType models.NodeType) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = nodeType
	}
}

// WithID sets the node ID.
func WithID(id string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.ID = id
	}
}

// WithTitle sets the node title.
func WithTitle(title string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Title = title
	}
}

// WithDescription sets the node description.
func WithDescription(description string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Description = description
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Config = config
	}
}
