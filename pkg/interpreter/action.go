package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flowgate/flowgate/pkg/models"
)

// actionHandler performs the node's side effect. The method comes from
// config.method; every branch converts its own failures into a NodeResult
// with status "error" so the loop policy can decide what happens next.
type actionHandler struct {
	client *http.Client
	logger *slog.Logger
}

func (h *actionHandler) Handle(ctx context.Context, node *models.WorkflowNode, state *execState) models.NodeResult {
	method := strings.ToUpper(node.ConfigString("method"))

	switch method {
	case "EMAIL":
		return h.sendEmail(node, state)
	case "API_CALL":
		return h.callAPI(ctx, node, state)
	case "WEBHOOK":
		return h.postWebhook(ctx, node, state)
	default:
		return h.logAction(ctx, node, state)
	}
}

// sendEmail is simulated. Delivery through a real provider is validated as a
// missing credential requirement before execution, so reaching this branch
// means the workspace explicitly runs in simulation mode.
func (h *actionHandler) sendEmail(node *models.WorkflowNode, state *execState) models.NodeResult {
	recipient := node.ConfigString("recipient")
	if recipient == "" {
		if v, ok := state.Upstream["email"].(string); ok {
			recipient = v
		}
	}

	return models.NodeResult{
		Status:  models.ResultStatusCompleted,
		Message: fmt.Sprintf("Email queued for %s", recipient),
		Data: map[string]any{
			"method":    "EMAIL",
			"recipient": recipient,
			"subject":   node.ConfigString("subject"),
			"simulated": true,
		},
	}
}

func (h *actionHandler) callAPI(ctx context.Context, node *models.WorkflowNode, state *execState) models.NodeResult {
	url := node.ConfigString("url")
	if url == "" {
		return errorResult("api call requires a url")
	}

	httpMethod := strings.ToUpper(node.ConfigString("http_method"))
	if httpMethod == "" {
		httpMethod = http.MethodGet
	}

	var body io.Reader

	if raw, ok := node.Config["body"]; ok && raw != nil {
		encoded, err := json.Marshal(raw)
		if err != nil {
			return errorResult(fmt.Sprintf("failed to encode request body: %v", err))
		}

		body = bytes.NewReader(encoded)
	}

	ctx, cancel := context.WithTimeout(ctx, nodeTimeout(node))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, httpMethod, url, body)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to build request: %v", err))
	}

	req.Header.Set("Content-Type", "application/json")

	if headers, ok := node.Config["headers"].(map[string]any); ok {
		for key, value := range headers {
			req.Header.Set(key, asString(value))
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return errorResult(fmt.Sprintf("request failed: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errorResult(fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorResult(fmt.Sprintf("request returned status %d", resp.StatusCode))
	}

	data := map[string]any{
		"method":      "API_CALL",
		"url":         url,
		"status_code": resp.StatusCode,
	}

	var parsed map[string]any
	if json.Unmarshal(raw, &parsed) == nil {
		data["response"] = parsed
	} else {
		data["response"] = string(raw)
	}

	return models.NodeResult{
		Status:  models.ResultStatusCompleted,
		Message: fmt.Sprintf("%s %s returned %d", httpMethod, url, resp.StatusCode),
		Data:    data,
	}
}

// postWebhook POSTs everything executed so far, so a receiver sees the full
// run rather than only the previous node's output.
func (h *actionHandler) postWebhook(ctx context.Context, node *models.WorkflowNode, state *execState) models.NodeResult {
	url := node.ConfigString("url")
	if url == "" {
		return errorResult("webhook requires a url")
	}

	payload := map[string]any{
		"execution_id": state.Trace.ID,
		"workflow_id":  state.Trace.WorkflowID,
		"steps":        state.Trace.Steps,
		"upstream":     state.Upstream,
		"sent_at":      time.Now().UTC().Format(time.RFC3339),
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to encode webhook payload: %v", err))
	}

	ctx, cancel := context.WithTimeout(ctx, nodeTimeout(node))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return errorResult(fmt.Sprintf("failed to build webhook request: %v", err))
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return errorResult(fmt.Sprintf("webhook delivery failed: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorResult(fmt.Sprintf("webhook returned status %d", resp.StatusCode))
	}

	return models.NodeResult{
		Status:  models.ResultStatusCompleted,
		Message: fmt.Sprintf("Webhook delivered to %s", url),
		Data: map[string]any{
			"method":      "WEBHOOK",
			"url":         url,
			"status_code": resp.StatusCode,
		},
	}
}

func (h *actionHandler) logAction(ctx context.Context, node *models.WorkflowNode, state *execState) models.NodeResult {
	message := node.ConfigString("message")
	if message == "" {
		message = node.Title
	}

	h.logger.InfoContext(ctx, "Workflow log action",
		"node_id", node.ID, "message", message)

	return models.NodeResult{
		Status:  models.ResultStatusCompleted,
		Message: message,
		Data: map[string]any{
			"method":   "LOG",
			"message":  message,
			"upstream": state.Upstream,
		},
	}
}

func errorResult(message string) models.NodeResult {
	return models.NodeResult{
		Status: models.ResultStatusError,
		Error:  message,
	}
}
