package security

import (
	"encoding/json"
	"strings"

	"github.com/flowgate/flowgate/pkg/models"
)

const (
	// maxOutboundCalls is the number of outbound-call action nodes a
	// workflow may contain before it is flagged.
	maxOutboundCalls = 10

	// maxNodes is the node count above which a workflow is flagged as
	// excessively complex.
	maxNodes = 50
)

// Scan classifies the workflow's content against the rule catalog and applies
// the whole-workflow structural checks. It is a pure function of the node
// list: no I/O, no randomness, no shared state.
func Scan(nodes []*models.WorkflowNode) models.SecurityScanResult {
	result := models.SecurityScanResult{
		RiskLevel: models.SeveritySafe,
		Issues:    []models.SecurityIssue{},
	}

	for _, node := range nodes {
		content := nodeContent(node)

		for _, rule := range catalog {
			if !rule.Matches(content) {
				continue
			}

			result.Issues = append(result.Issues, models.SecurityIssue{
				Rule:        rule.Name,
				Category:    rule.Category,
				Severity:    rule.Severity,
				Description: rule.Description,
				Remediation: rule.Remediation,
				NodeID:      node.ID,
				NodeTitle:   node.Title,
			})
		}
	}

	result.Issues = append(result.Issues, structuralIssues(nodes)...)

	for _, issue := range result.Issues {
		result.RiskLevel = models.MaxSeverity(result.RiskLevel, issue.Severity)
	}

	result.Passed = result.RiskLevel.Rank() < models.SeverityHigh.Rank()

	return result
}

// nodeContent flattens a node's scannable fields into a single haystack.
func nodeContent(node *models.WorkflowNode) string {
	parts := []string{node.Title, node.Description, string(node.Type)}

	if node.Config != nil {
		if raw, err := json.Marshal(node.Config); err == nil {
			parts = append(parts, string(raw))
		}
	}

	return strings.Join(parts, " ")
}

// structuralIssues runs the whole-workflow checks that are independent of any
// single node's content.
func structuralIssues(nodes []*models.WorkflowNode) []models.SecurityIssue {
	var issues []models.SecurityIssue

	outbound := 0

	for _, node := range nodes {
		if isOutboundCall(node) {
			outbound++
		}
	}

	if outbound > maxOutboundCalls {
		issues = append(issues, models.SecurityIssue{
			Rule:        "excessive-network-calls",
			Category:    models.CategoryNetworkPattern,
			Severity:    models.SeverityMedium,
			Description: "Workflow performs an unusually large number of outbound network calls",
			Remediation: "Batch external calls or split the workflow into smaller ones",
			NodeTitle:   "workflow",
		})
	}

	if len(nodes) > maxNodes {
		issues = append(issues, models.SecurityIssue{
			Rule:        "excessive-complexity",
			Category:    models.CategoryLogicPattern,
			Severity:    models.SeverityLow,
			Description: "Workflow contains an unusually large number of nodes",
			Remediation: "Split the workflow into smaller, composable workflows",
			NodeTitle:   "workflow",
		})
	}

	return issues
}

// isOutboundCall reports whether an action node's config or title indicates an
// outbound network call.
func isOutboundCall(node *models.WorkflowNode) bool {
	if node.Type != models.NodeTypeAction {
		return false
	}

	switch strings.ToUpper(node.ConfigString("method")) {
	case "API_CALL", "WEBHOOK":
		return true
	}

	switch strings.ToLower(node.ConfigString("service")) {
	case "api_call", "webhook":
		return true
	}

	return strings.Contains(strings.ToLower(node.Title), "api call")
}
