package interpreter

import (
	"context"
	"fmt"

	"github.com/flowgate/flowgate/pkg/models"
)

// dataHandler passes the previous node's output through unchanged, annotated
// with the configured operation. Transform expressions run client side in
// the builder; the pipeline only threads the data.
type dataHandler struct{}

func (dataHandler) Handle(_ context.Context, node *models.WorkflowNode, state *execState) models.NodeResult {
	operation := node.ConfigString("operation")
	if operation == "" {
		operation = "transform"
	}

	out := make(map[string]any, len(state.Upstream)+1)
	for key, value := range state.Upstream {
		out[key] = value
	}

	out["operation"] = operation

	return models.NodeResult{
		Status:  models.ResultStatusCompleted,
		Message: fmt.Sprintf("Data %s applied", operation),
		Data:    out,
	}
}
