package validation

import "strings"

// errorFixPattern maps a substring of a runtime error message to canned
// remediation suggestions. Matching is case-insensitive; all matching
// patterns contribute their fixes.
type errorFixPattern struct {
	substrings []string
	fixes      []string
}

var errorFixPatterns = []errorFixPattern{
	{
		substrings: []string{"twilio", "sms"},
		fixes: []string{
			"Reconnect your SMS provider account in workspace settings",
			"Verify the destination phone number is in E.164 format",
		},
	},
	{
		substrings: []string{"rate limit", "429", "too many requests"},
		fixes: []string{
			"Wait a few minutes before running the workflow again",
			"Reduce the number of outbound calls the workflow makes per run",
		},
	},
	{
		substrings: []string{"unauthorized", "401", "forbidden", "403"},
		fixes: []string{
			"Reconnect the credential used by this node",
			"Check that the connected account still has access to the resource",
		},
	},
	{
		substrings: []string{"credits", "402", "payment required"},
		fixes: []string{
			"Top up your AI credits in workspace billing",
			"Switch the node to a smaller model to reduce credit usage",
		},
	},
	{
		substrings: []string{"timeout", "deadline exceeded"},
		fixes: []string{
			"Increase the node timeout in its configuration",
			"Check that the external service is reachable and responsive",
		},
	},
	{
		substrings: []string{"not found", "404"},
		fixes: []string{
			"Verify the URL or resource identifier configured on this node",
		},
	},
}

// GenerateErrorFixes maps a runtime error message to remediation suggestions
// for the surrounding UI. This is advisory text only; it plays no part in the
// admission decision.
func GenerateErrorFixes(errorText, nodeType string) []string {
	lowered := strings.ToLower(errorText)

	var fixes []string

	for _, p := range errorFixPatterns {
		for _, sub := range p.substrings {
			if strings.Contains(lowered, sub) {
				fixes = append(fixes, p.fixes...)

				break
			}
		}
	}

	if len(fixes) > 0 {
		return fixes
	}

	return []string{
		"Check the " + nodeType + " node's configuration for missing or invalid values",
		"Run the workflow again; transient failures often resolve on retry",
		"Review the execution trace for the step that failed",
	}
}
