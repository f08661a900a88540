package models

// Severity is the risk level of a security issue, ordered
// safe < low < medium < high < critical.
type Severity string

const (
	SeveritySafe     Severity = "safe"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeveritySafe:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordinal position of the severity. Unknown severities rank
// as safe.
func (s Severity) Rank() int {
	return severityRank[s]
}

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}

	return a
}

// RuleCategory groups security rules by the kind of content they match.
type RuleCategory string

const (
	CategoryCodePattern    RuleCategory = "code_pattern"
	CategoryDataPattern    RuleCategory = "data_pattern"
	CategoryNetworkPattern RuleCategory = "network_pattern"
	CategoryLogicPattern   RuleCategory = "logic_pattern"
)

// SecurityIssue is a single rule match found while scanning a workflow.
type SecurityIssue struct {
	Rule        string       `json:"rule"`
	Category    RuleCategory `json:"category"`
	Severity    Severity     `json:"severity"`
	Description string       `json:"description"`
	Remediation string       `json:"remediation"`
	NodeID      string       `json:"node_id,omitempty"`
	NodeTitle   string       `json:"node_title,omitempty"`
}

// SecurityScanResult aggregates all issues found in a workflow. RiskLevel is
// the maximum severity present, safe when no issue was found. Passed is false
// only for high or critical risk.
type SecurityScanResult struct {
	RiskLevel Severity        `json:"risk_level"`
	Issues    []SecurityIssue `json:"issues"`
	Passed    bool            `json:"passed"`
}
