// Package web provides HTTP handlers for workflow validation, scanning,
// admission, and execution.
package web

import (
	"fmt"
	"log/slog"

	"github.com/flowgate/flowgate/pkg/admission"
	"github.com/flowgate/flowgate/pkg/interpreter"
	"github.com/flowgate/flowgate/pkg/models"
	"github.com/flowgate/flowgate/pkg/persistence"
	"github.com/flowgate/flowgate/pkg/security"
	"github.com/flowgate/flowgate/pkg/validation"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	logger    *slog.Logger
	gate      *admission.Gate
	executor  *interpreter.Executor
	traces    persistence.ExecutionRepository
	validator *validator.Validate
}

func NewAPIHandlers(
	logger *slog.Logger,
	gate *admission.Gate,
	executor *interpreter.Executor,
	traces persistence.ExecutionRepository,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		logger:    logger.With("module", "web"),
		gate:      gate,
		executor:  executor,
		traces:    traces,
		validator: validate,
	}
}

// ValidateWorkflow runs the pre-flight configuration check. It never blocks
// anything; the response tells the builder UI what is missing.
func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	var req ValidateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	if detail, ok := duplicateNodeID(req.Nodes); !ok {
		return badRequest(c, detail)
	}

	return c.JSON(validation.Validate(req.Nodes))
}

// ScanWorkflow runs the security rule catalog without making an admission
// decision.
func (h *APIHandlers) ScanWorkflow(c fiber.Ctx) error {
	var req ScanWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	return c.JSON(security.Scan(req.Nodes))
}

// AdmitWorkflow returns the gate decision without executing anything.
func (h *APIHandlers) AdmitWorkflow(c fiber.Ctx) error {
	var req AdmitWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	return c.JSON(h.gate.Decide(c.Context(), req.Nodes, req.RequireApproval))
}

// ExecuteWorkflow gates the workflow and, when admitted, runs it to
// completion. A blocked workflow returns 403 with the scan result so the
// caller can show the user what tripped.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	var req ExecuteWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Invalid request: "+err.Error())
	}

	if detail, ok := duplicateNodeID(req.Nodes); !ok {
		return badRequest(c, detail)
	}

	decision := h.gate.Decide(c.Context(), req.Nodes, req.RequireApproval)
	if !decision.Valid {
		h.logger.WarnContext(c.Context(), "Workflow blocked by admission gate",
			"workspace_id", req.WorkspaceID, "reason", decision.Reason)

		return c.Status(fiber.StatusForbidden).JSON(BlockedWorkflowResponse{
			Valid:      false,
			Reason:     decision.Reason,
			ScanResult: decision.ScanResult,
		})
	}

	trace, err := h.executor.Execute(c.Context(), interpreter.ExecutionRequest{
		Nodes:       req.Nodes,
		WorkspaceID: req.WorkspaceID,
		WorkflowID:  req.WorkflowID,
		TriggeredBy: req.TriggeredBy,
		TriggerData: req.TriggerData,
		OnError:     interpreter.Policy(req.OnError),
	})
	if err != nil {
		if interpreter.IsInputError(err) {
			return badRequest(c, err.Error())
		}

		h.logger.ErrorContext(c.Context(), "Workflow execution aborted", "error", err)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(ExecuteWorkflowResponse{
		Success:     true,
		ExecutionID: trace.ID,
		Duration:    fmt.Sprintf("%dms", trace.DurationMS),
		Result:      trace,
	})
}

// GetExecution returns a persisted execution trace by id.
func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")

	trace, err := h.traces.TraceByID(c.Context(), id)
	if err != nil {
		if persistence.IsTraceNotFound(err) {
			return notFound(c, "execution not found")
		}

		return internalError(c, err)
	}

	return c.JSON(trace)
}

// ListWorkspaceExecutions returns all persisted traces for a workspace.
func (h *APIHandlers) ListWorkspaceExecutions(c fiber.Ctx) error {
	workspaceID := c.Params("id")

	traces, err := h.traces.TracesByWorkspace(c.Context(), workspaceID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"workspace_id": workspaceID,
		"executions":   traces,
		"count":        len(traces),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// duplicateNodeID rejects node lists that reuse an id, which would make the
// trace ambiguous.
func duplicateNodeID(nodes []*models.WorkflowNode) (string, bool) {
	seen := make(map[string]struct{}, len(nodes))

	for _, node := range nodes {
		if node.ID == "" {
			return "every node requires an id", false
		}

		if _, dup := seen[node.ID]; dup {
			return "duplicate node id: " + node.ID, false
		}

		seen[node.ID] = struct{}{}
	}

	return "", true
}
