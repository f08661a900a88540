package validation

import (
	"fmt"
	"strings"

	"github.com/flowgate/flowgate/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// configSchemas holds the per-type JSON schema for node configuration. The
// schemas are intentionally loose: they constrain the shape of known keys
// without closing the config map, since node configs are open mappings.
var configSchemas = map[models.NodeType]map[string]any{
	models.NodeTypeTrigger: {
		"type": "object",
		"properties": map[string]any{
			"event_source": map[string]any{"type": "string"},
			"schedule":     map[string]any{"type": "string"},
		},
	},
	models.NodeTypeCondition: {
		"type": "object",
		"properties": map[string]any{
			"field": map[string]any{"type": "string"},
			"operator": map[string]any{
				"type": "string",
				"enum": []string{"equals", "not_equals", "contains", "greater_than", "less_than"},
			},
		},
	},
	models.NodeTypeAction: {
		"type": "object",
		"properties": map[string]any{
			"method": map[string]any{
				"type": "string",
				"enum": []string{"EMAIL", "API_CALL", "WEBHOOK", "LOG"},
			},
			"service": map[string]any{"type": "string"},
			"url":     map[string]any{"type": "string"},
			"headers": map[string]any{"type": "object"},
			"timeout": map[string]any{"type": "number", "minimum": 1},
		},
	},
	models.NodeTypeData: {
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type": "string",
				"enum": []string{"transform", "filter", "aggregate"},
			},
		},
	},
	models.NodeTypeAI: {
		"type": "object",
		"properties": map[string]any{
			"prompt":  map[string]any{"type": "string"},
			"model":   map[string]any{"type": "string"},
			"timeout": map[string]any{"type": "number", "minimum": 1},
		},
	},
}

// ValidateConfigSchema checks a node's config against the JSON schema for its
// type. Nodes without a schema (or without config) pass. This check is
// advisory tooling for builders; it plays no part in Validate's rule table or
// the admission decision. Unknown enum values are legal at runtime (the
// interpreter treats unknown operators as pass and unknown action methods as
// LOG), so a schema violation here is a hint, never a status.
func ValidateConfigSchema(node *models.WorkflowNode) error {
	nodeType := node.Type
	if nodeType.IsAIKind() {
		nodeType = models.NodeTypeAI
	}

	schema, found := configSchemas[nodeType]
	if !found || node.Config == nil {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	configLoader := gojsonschema.NewGoLoader(node.Config)

	result, err := gojsonschema.Validate(schemaLoader, configLoader)
	if err != nil {
		return fmt.Errorf("schema validation for node %s: %w", node.ID, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("node %s config is invalid: %s", node.ID, strings.Join(details, "; "))
	}

	return nil
}
