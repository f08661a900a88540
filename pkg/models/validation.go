package models

// RequirementStatus tells whether a node dependency is met.
type RequirementStatus string

const (
	RequirementMissing    RequirementStatus = "missing"
	RequirementConfigured RequirementStatus = "configured"
)

// RequirementAction hints the surrounding UI at how to resolve a missing
// requirement.
type RequirementAction string

const (
	RequirementActionCredential RequirementAction = "credential"
	RequirementActionPermission RequirementAction = "permission"
	RequirementActionConfig     RequirementAction = "config"
)

// Requirement is one external dependency (credential, permission or config
// value) a node needs before it can run correctly. Requirements are computed
// fresh on every validation call and never persisted.
type Requirement struct {
	Name        string            `json:"name"`
	Status      RequirementStatus `json:"status"`
	Action      RequirementAction `json:"action"`
	Description string            `json:"description,omitempty"`
}

// ValidationStatus is a node's aggregate pre-flight status.
type ValidationStatus string

const (
	ValidationValid   ValidationStatus = "valid"
	ValidationWarning ValidationStatus = "warning"
	ValidationError   ValidationStatus = "error"
)

// NodeValidation is one node's pre-flight validation outcome.
type NodeValidation struct {
	NodeID       string           `json:"node_id"`
	Status       ValidationStatus `json:"status"`
	Requirements []Requirement    `json:"requirements,omitempty"`
	Message      string           `json:"message,omitempty"`
}

// ValidationResult aggregates all node validations. IsValid is true when no
// node has an error. CanRunAnyway is true only when there are zero errors and
// at least one warning: warnings permit an explicit override, errors never do.
type ValidationResult struct {
	IsValid      bool             `json:"is_valid"`
	CanRunAnyway bool             `json:"can_run_anyway"`
	Validations  []NodeValidation `json:"validations"`
}
