// Package security classifies workflow content against a fixed rule catalog
// and assigns an overall risk level.
package security

import (
	"regexp"

	"github.com/flowgate/flowgate/pkg/models"
)

// Rule is one entry of the security rule catalog: a content matcher plus the
// severity and remediation to report when it fires. Rules are independent and
// not mutually exclusive; a single node may match several of them.
type Rule struct {
	Name        string
	Category    models.RuleCategory
	Severity    models.Severity
	Description string
	Remediation string

	matches func(content string) bool
}

// Matches reports whether the rule fires on the given node content.
func (r Rule) Matches(content string) bool {
	return r.matches(content)
}

func pattern(expr string) func(string) bool {
	re := regexp.MustCompile(expr)

	return re.MatchString
}

var urlPattern = regexp.MustCompile(`(?i)https?://[^\s"'\\]+`)

var localURL = regexp.MustCompile(`(?i)^https?://(localhost|127\.0\.0\.1|0\.0\.0\.0|\[::1\])`)

// matchExternalURL fires only for URLs pointing outside the local host.
func matchExternalURL(content string) bool {
	for _, u := range urlPattern.FindAllString(content, -1) {
		if !localURL.MatchString(u) {
			return true
		}
	}

	return false
}

// catalog is the fixed, ordered rule set. Order is stable so scan output is
// deterministic for a given workflow.
var catalog = []Rule{
	{
		Name:        "sql-injection-attempt",
		Category:    models.CategoryCodePattern,
		Severity:    models.SeverityCritical,
		Description: "Workflow content contains destructive SQL statements",
		Remediation: "Remove raw SQL from node configuration; use a data node with explicit, parameterized operations",
		matches:     pattern(`(?i)\b(drop\s+table|delete\s+from|truncate\s+table|drop\s+database)\b`),
	},
	{
		Name:        "command-execution",
		Category:    models.CategoryCodePattern,
		Severity:    models.SeverityCritical,
		Description: "Workflow content references shell or process execution",
		Remediation: "Workflows cannot spawn processes; replace the call with a supported action node",
		matches:     pattern(`(?i)(\bexec\s*\(|\beval\s*\(|\bsystem\s*\(|child_process|subprocess|os\.system|/bin/(sh|bash))`),
	},
	{
		Name:        "crypto-mining",
		Category:    models.CategoryCodePattern,
		Severity:    models.SeverityCritical,
		Description: "Workflow content references cryptocurrency mining tooling",
		Remediation: "Mining workloads are not permitted on the platform",
		matches:     pattern(`(?i)(coinhive|cryptonight|xmrig|minergate|stratum\+tcp|hashrate)`),
	},
	{
		Name:        "hardcoded-credentials",
		Category:    models.CategoryDataPattern,
		Severity:    models.SeverityHigh,
		Description: "Node configuration appears to embed a credential literal",
		Remediation: "Move secrets into the workspace credential store and reference them by name",
		matches:     pattern(`(?i)(password|passwd|secret|api[_-]?key|access[_-]?token)["']?\s*[:=]\s*["'][^"']{4,}["']`),
	},
	{
		Name:        "infinite-loop",
		Category:    models.CategoryLogicPattern,
		Severity:    models.SeverityHigh,
		Description: "Workflow content contains an unconditional loop",
		Remediation: "Bound the loop with an explicit exit condition or iteration limit",
		matches:     pattern(`(?i)(while\s*\(\s*(true|1)\s*\)|for\s*\(\s*;\s*;\s*\))`),
	},
	{
		Name:        "request-flooding",
		Category:    models.CategoryNetworkPattern,
		Severity:    models.SeverityHigh,
		Description: "Workflow content suggests high-volume request generation",
		Remediation: "Throttle outbound calls; bulk traffic requires an approved integration",
		matches:     pattern(`(?i)(\bflood\b|\bddos\b|for\s*\([^)]*\)[^;{]*(fetch|request)\s*\(|while[^{;]*(fetch|request)\s*\()`),
	},
	{
		Name:        "prototype-pollution",
		Category:    models.CategoryCodePattern,
		Severity:    models.SeverityHigh,
		Description: "Workflow content manipulates object prototypes",
		Remediation: "Remove __proto__/constructor/prototype access from node configuration",
		matches:     pattern(`(?i)(__proto__|\bconstructor\s*\[|\bprototype\s*\[)`),
	},
	{
		Name:        "script-injection",
		Category:    models.CategoryCodePattern,
		Severity:    models.SeverityHigh,
		Description: "Workflow content embeds script tags or inline event handlers",
		Remediation: "Strip markup from node configuration; content is rendered as plain text",
		matches:     pattern(`(?i)(<script\b|javascript:|onerror\s*=|onload\s*=)`),
	},
	{
		Name:        "filesystem-access",
		Category:    models.CategoryCodePattern,
		Severity:    models.SeverityMedium,
		Description: "Workflow content references direct filesystem access",
		Remediation: "Workflows have no filesystem; use a storage integration instead",
		matches:     pattern(`(?i)(readfile|writefile|appendfile|unlink\s*\(|fs\.(read|write|unlink|rm)|rmdir)`),
	},
	{
		Name:        "base64-obfuscation",
		Category:    models.CategoryDataPattern,
		Severity:    models.SeverityMedium,
		Description: "Workflow content encodes or decodes base64 payloads",
		Remediation: "Store data in plain form; encoded payloads cannot be scanned",
		matches:     pattern(`(?i)(\batob\s*\(|\bbtoa\s*\(|base64_decode|base64_encode|frombase64|tobase64)`),
	},
	{
		Name:        "unsafe-html-sink",
		Category:    models.CategoryCodePattern,
		Severity:    models.SeverityMedium,
		Description: "Workflow content writes to unsafe HTML sinks",
		Remediation: "Remove innerHTML/document.write style calls from node configuration",
		matches:     pattern(`(?i)(innerhtml|outerhtml|document\.write|dangerouslysetinnerhtml|insertadjacenthtml)`),
	},
	{
		Name:        "external-url",
		Category:    models.CategoryNetworkPattern,
		Severity:    models.SeverityLow,
		Description: "Workflow content points at a non-local external URL",
		Remediation: "Verify the destination is trusted before running this workflow",
		matches:     matchExternalURL,
	},
}

// Catalog returns the fixed security rule set in evaluation order. The
// returned slice is a copy; the catalog itself is immutable.
func Catalog() []Rule {
	rules := make([]Rule, len(catalog))
	copy(rules, catalog)

	return rules
}
