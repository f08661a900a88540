package validation_test

import (
	"testing"

	"github.com/flowgate/flowgate/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateErrorFixes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		errorText string
		contains  string
	}{
		{
			name:      "twilio error",
			errorText: "Twilio API returned error 21211",
			contains:  "Reconnect your SMS provider account in workspace settings",
		},
		{
			name:      "rate limit error",
			errorText: "request failed: 429 Too Many Requests",
			contains:  "Wait a few minutes before running the workflow again",
		},
		{
			name:      "auth error",
			errorText: "provider returned 401 Unauthorized",
			contains:  "Reconnect the credential used by this node",
		},
		{
			name:      "credits error",
			errorText: "ai credits exhausted for this workspace",
			contains:  "Top up your AI credits in workspace billing",
		},
		{
			name:      "timeout error",
			errorText: "context deadline exceeded",
			contains:  "Increase the node timeout in its configuration",
		},
		{
			name:      "not found error",
			errorText: "request returned status 404",
			contains:  "Verify the URL or resource identifier configured on this node",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fixes := validation.GenerateErrorFixes(tt.errorText, "action")

			assert.Contains(t, fixes, tt.contains)
		})
	}
}

func TestGenerateErrorFixes_MultipleMatches(t *testing.T) {
	t.Parallel()

	fixes := validation.GenerateErrorFixes("twilio request timeout", "action")

	assert.Contains(t, fixes, "Reconnect your SMS provider account in workspace settings")
	assert.Contains(t, fixes, "Increase the node timeout in its configuration")
}

func TestGenerateErrorFixes_GenericFallback(t *testing.T) {
	t.Parallel()

	fixes := validation.GenerateErrorFixes("something completely unexpected", "condition")

	require.Len(t, fixes, 3)
	assert.Contains(t, fixes[0], "condition")
}
