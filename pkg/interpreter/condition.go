package interpreter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/flowgate/flowgate/pkg/models"
)

// conditionHandler compares a field of the previous node's output against a
// configured value. Comparison failures are reported as status "error" on
// the node, never propagated.
type conditionHandler struct{}

func (conditionHandler) Handle(_ context.Context, node *models.WorkflowNode, state *execState) (result models.NodeResult) {
	field := node.ConfigString("field")
	operator := node.ConfigString("operator")

	var expected any
	if node.Config != nil {
		expected = node.Config["value"]
	}

	var actual any
	if state.Upstream != nil {
		actual = state.Upstream[field]
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			result = models.NodeResult{
				Status: models.ResultStatusError,
				Error:  fmt.Sprintf("condition evaluation failed: %v", recovered),
			}
		}
	}()

	passed, err := compare(actual, operator, expected)
	if err != nil {
		return models.NodeResult{
			Status: models.ResultStatusError,
			Error:  err.Error(),
		}
	}

	status := models.ResultStatusPassed
	message := "Condition passed"

	if !passed {
		status = models.ResultStatusFailed
		message = "Condition failed"
	}

	return models.NodeResult{
		Status:  status,
		Message: message,
		Data: map[string]any{
			"field":    field,
			"operator": operator,
			"expected": expected,
			"actual":   actual,
			"passed":   passed,
		},
	}
}

// compare evaluates actual <operator> expected. Unknown operators always
// pass.
func compare(actual any, operator string, expected any) (bool, error) {
	switch operator {
	case "equals":
		return valuesEqual(actual, expected), nil
	case "not_equals":
		return !valuesEqual(actual, expected), nil
	case "contains":
		return strings.Contains(asString(actual), asString(expected)), nil
	case "greater_than":
		left, right, err := asNumbers(actual, expected)
		if err != nil {
			return false, err
		}

		return left > right, nil
	case "less_than":
		left, right, err := asNumbers(actual, expected)
		if err != nil {
			return false, err
		}

		return left < right, nil
	default:
		return true, nil
	}
}

// valuesEqual compares numerically when both sides are numbers, so that a
// JSON 1 equals a configured 1.0, and falls back to string comparison.
func valuesEqual(a, b any) bool {
	if left, ok := asNumber(a); ok {
		if right, ok := asNumber(b); ok {
			return left == right
		}
	}

	return asString(a) == asString(b)
}

func asNumbers(a, b any) (float64, float64, error) {
	left, ok := asNumber(a)
	if !ok {
		return 0, 0, fmt.Errorf("cannot compare non-numeric value %v", a)
	}

	right, ok := asNumber(b)
	if !ok {
		return 0, 0, fmt.Errorf("cannot compare non-numeric value %v", b)
	}

	return left, right, nil
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)

		return parsed, err == nil
	default:
		return 0, false
	}
}

func asString(value any) string {
	if value == nil {
		return ""
	}

	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", value)
}
