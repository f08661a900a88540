package interpreter

import (
	"context"
	"time"

	"github.com/flowgate/flowgate/pkg/models"
)

// triggerHandler marks the entry point of a run. Triggers never fail during
// execution; a misconfigured trigger is the validator's business.
type triggerHandler struct{}

func (triggerHandler) Handle(_ context.Context, node *models.WorkflowNode, _ *execState) models.NodeResult {
	return models.NodeResult{
		Status:  models.ResultStatusTriggered,
		Message: "Workflow triggered",
		Data: map[string]any{
			"trigger_id":   node.ID,
			"triggered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
}
