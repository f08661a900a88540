package validation_test

import (
	"testing"

	"github.com/flowgate/flowgate/pkg/models"
	"github.com/flowgate/flowgate/pkg/testutil"
	"github.com/flowgate/flowgate/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfigSchema(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		nodeType  models.NodeType
		config    map[string]any
		expectErr bool
	}{
		{
			name:     "valid action config",
			nodeType: models.NodeTypeAction,
			config:   map[string]any{"method": "API_CALL", "url": "https://example.com", "timeout": 10},
		},
		{
			name:      "unknown action method",
			nodeType:  models.NodeTypeAction,
			config:    map[string]any{"method": "TELEPORT"},
			expectErr: true,
		},
		{
			name:      "non-positive timeout",
			nodeType:  models.NodeTypeAction,
			config:    map[string]any{"method": "API_CALL", "timeout": 0},
			expectErr: true,
		},
		{
			name:      "unknown condition operator",
			nodeType:  models.NodeTypeCondition,
			config:    map[string]any{"field": "x", "operator": "resembles"},
			expectErr: true,
		},
		{
			name:     "nil config passes",
			nodeType: models.NodeTypeData,
			config:   nil,
		},
		{
			name:     "extra keys are allowed",
			nodeType: models.NodeTypeTrigger,
			config:   map[string]any{"event_source": "manual", "custom": 42},
		},
		{
			name:     "ai kinds share the ai schema",
			nodeType: models.NodeTypeImage,
			config:   map[string]any{"prompt": "a red bicycle"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			node := testutil.CreateTestNode(
				testutil.WithType(tt.nodeType),
				testutil.WithConfig(tt.config),
			)

			err := validation.ValidateConfigSchema(node)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_IgnoresSchemaViolations(t *testing.T) {
	t.Parallel()

	nodes := []*models.WorkflowNode{
		testutil.CreateTestNode(
			testutil.WithType(models.NodeTypeCondition),
			testutil.WithConfig(map[string]any{"field": "x", "operator": "matches"}),
		),
		testutil.CreateTestNode(
			testutil.WithConfig(map[string]any{"method": "NOTIFY"}),
		),
	}

	result := validation.Validate(nodes)

	require.Len(t, result.Validations, 2)
	assert.Equal(t, models.ValidationValid, result.Validations[0].Status,
		"condition nodes have no external dependency; the schema check is advisory only")
	assert.Equal(t, models.ValidationValid, result.Validations[1].Status,
		"action status keys on config.service, not config.method")
	assert.True(t, result.IsValid)
	assert.False(t, result.CanRunAnyway, "no warnings means nothing to override")
}
