package interpreter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/flowgate/flowgate/pkg/models"
)

// defaultPrompt is sent when a node configures no prompt and carries no
// description.
const defaultPrompt = "Process the upstream workflow data and return a concise result."

// aiHandler serves every AI-flavored node type (ai, ai_agent, image, video)
// by posting the prompt plus upstream context to the configured completion
// endpoint.
type aiHandler struct {
	client *http.Client
	config AIConfig
	logger *slog.Logger
}

type aiRequest struct {
	Model   string         `json:"model,omitempty"`
	Kind    string         `json:"kind"`
	Prompt  string         `json:"prompt"`
	Context map[string]any `json:"context,omitempty"`
}

type aiResponse struct {
	Content string         `json:"content"`
	Usage   map[string]any `json:"usage,omitempty"`
}

func (h *aiHandler) Handle(ctx context.Context, node *models.WorkflowNode, state *execState) models.NodeResult {
	if h.config.Endpoint == "" {
		return errorResult("ai endpoint is not configured")
	}

	prompt := node.ConfigString("prompt")
	if prompt == "" {
		prompt = node.Description
	}

	if prompt == "" {
		prompt = defaultPrompt
	}

	payload := aiRequest{
		Model:   h.config.Model,
		Kind:    string(node.Type),
		Prompt:  prompt,
		Context: state.Upstream,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to encode ai request: %v", err))
	}

	ctx, cancel := context.WithTimeout(ctx, nodeTimeout(node))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.Endpoint, bytes.NewReader(encoded))
	if err != nil {
		return errorResult(fmt.Sprintf("failed to build ai request: %v", err))
	}

	req.Header.Set("Content-Type", "application/json")

	if h.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.config.APIKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return errorResult(fmt.Sprintf("ai request failed: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return errorResult(fmt.Sprintf("failed to read ai response: %v", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errorResult("ai provider rate limit exceeded, retry later")
	case resp.StatusCode == http.StatusPaymentRequired:
		return errorResult("ai credits exhausted for this workspace")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return errorResult(fmt.Sprintf("ai provider returned status %d", resp.StatusCode))
	}

	var parsed aiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return errorResult(fmt.Sprintf("failed to decode ai response: %v", err))
	}

	if parsed.Content == "" {
		return errorResult("ai provider returned an empty response")
	}

	h.logger.DebugContext(ctx, "AI node completed",
		"node_id", node.ID, "node_type", string(node.Type))

	data := map[string]any{
		"content": parsed.Content,
		"kind":    string(node.Type),
	}
	if parsed.Usage != nil {
		data["usage"] = parsed.Usage
	}

	return models.NodeResult{
		Status:  models.ResultStatusCompleted,
		Message: "AI generation completed",
		Data:    data,
	}
}
