// Package validation performs pre-flight checks on workflow nodes: missing
// credentials, permissions and configuration are reported before a workflow
// is allowed to run.
package validation

import (
	"fmt"
	"strings"

	"github.com/flowgate/flowgate/pkg/models"
	"github.com/robfig/cron/v3"
)

// externalEventSources maps trigger event sources that require a connected
// account credential to their display name. Anything not listed here
// (manual, schedule, webhook, empty) is local and needs no credential.
var externalEventSources = map[string]string{
	"gmail":      "Gmail",
	"slack":      "Slack",
	"github":     "GitHub",
	"stripe":     "Stripe",
	"salesforce": "Salesforce",
	"twilio":     "Twilio",
}

// serviceRule is one requirement rule for action nodes, keyed by
// config.service.
type serviceRule struct {
	status      models.ValidationStatus
	requirement models.Requirement
	message     string
}

// actionServiceRules is the declarative requirement table for action nodes.
// The core never fetches credentials itself, so services that need one are
// reported as missing and the surrounding UI resolves them.
var actionServiceRules = map[string]serviceRule{
	"sms_provider": {
		status: models.ValidationError,
		requirement: models.Requirement{
			Name:        "SMS provider credential",
			Status:      models.RequirementMissing,
			Action:      models.RequirementActionCredential,
			Description: "Connect an SMS provider account before sending messages",
		},
		message: "SMS provider is not connected",
	},
	"email": {
		status: models.ValidationError,
		requirement: models.Requirement{
			Name:        "Email provider credential",
			Status:      models.RequirementMissing,
			Action:      models.RequirementActionCredential,
			Description: "Connect an email provider account before sending email",
		},
		message: "Email provider is not connected",
	},
	"notification_provider": {
		status: models.ValidationWarning,
		requirement: models.Requirement{
			Name:        "Notification permission",
			Status:      models.RequirementMissing,
			Action:      models.RequirementActionPermission,
			Description: "Grant notification permission so recipients receive alerts",
		},
		message: "Notification permission has not been granted",
	},
}

// Validate applies the requirement rules to every node and aggregates the
// result. It is a pure function of its input: no side effects, no I/O.
//
// An empty node list is invalid and cannot be overridden: there is nothing
// to run.
func Validate(nodes []*models.WorkflowNode) models.ValidationResult {
	result := models.ValidationResult{
		Validations: make([]models.NodeValidation, 0, len(nodes)),
	}

	if len(nodes) == 0 {
		return result
	}

	hasError := false
	hasWarning := false

	for _, node := range nodes {
		validation := validateNode(node)
		result.Validations = append(result.Validations, validation)

		switch validation.Status {
		case models.ValidationError:
			hasError = true
		case models.ValidationWarning:
			hasWarning = true
		}
	}

	result.IsValid = !hasError
	result.CanRunAnyway = !hasError && hasWarning

	return result
}

func validateNode(node *models.WorkflowNode) models.NodeValidation {
	switch node.Type {
	case models.NodeTypeTrigger:
		return validateTrigger(node)
	case models.NodeTypeAction:
		return validateAction(node)
	case models.NodeTypeCondition, models.NodeTypeData:
		// No external dependency.
		return models.NodeValidation{NodeID: node.ID, Status: models.ValidationValid}
	default:
		if node.Type.IsAIKind() {
			return validateAI(node)
		}

		return models.NodeValidation{NodeID: node.ID, Status: models.ValidationValid}
	}
}

func validateTrigger(node *models.WorkflowNode) models.NodeValidation {
	validation := models.NodeValidation{NodeID: node.ID, Status: models.ValidationValid}

	source := strings.ToLower(node.ConfigString("event_source"))
	if display, external := externalEventSources[source]; external {
		validation.Status = models.ValidationError
		validation.Message = display + " is not connected"
		validation.Requirements = append(validation.Requirements, models.Requirement{
			Name:        display + " credential",
			Status:      models.RequirementMissing,
			Action:      models.RequirementActionCredential,
			Description: fmt.Sprintf("Connect your %s account to receive these events", display),
		})
	}

	if schedule := node.ConfigString("schedule"); schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			if validation.Status == models.ValidationValid {
				validation.Status = models.ValidationWarning
				validation.Message = "Schedule expression is not valid"
			}

			validation.Requirements = append(validation.Requirements, models.Requirement{
				Name:        "Valid cron schedule",
				Status:      models.RequirementMissing,
				Action:      models.RequirementActionConfig,
				Description: "Provide a standard 5-field cron expression",
			})
		}
	}

	return validation
}

func validateAction(node *models.WorkflowNode) models.NodeValidation {
	validation := models.NodeValidation{NodeID: node.ID, Status: models.ValidationValid}

	service := strings.ToLower(node.ConfigString("service"))

	switch service {
	case "", "log":
		return validation
	case "webhook":
		requirement := models.Requirement{
			Name:        "Webhook URL",
			Status:      models.RequirementConfigured,
			Action:      models.RequirementActionConfig,
			Description: "Destination URL the workflow posts to",
		}

		if strings.TrimSpace(node.ConfigString("url")) == "" {
			requirement.Status = models.RequirementMissing
			validation.Status = models.ValidationError
			validation.Message = "Webhook URL is not configured"
		}

		validation.Requirements = append(validation.Requirements, requirement)

		return validation
	}

	if rule, found := actionServiceRules[service]; found {
		validation.Status = rule.status
		validation.Message = rule.message
		validation.Requirements = append(validation.Requirements, rule.requirement)
	}

	return validation
}

func validateAI(node *models.WorkflowNode) models.NodeValidation {
	validation := models.NodeValidation{NodeID: node.ID, Status: models.ValidationValid}

	requirement := models.Requirement{
		Name:        "AI prompt",
		Status:      models.RequirementConfigured,
		Action:      models.RequirementActionConfig,
		Description: "Prompt sent to the model along with upstream data",
	}

	if strings.TrimSpace(node.ConfigString("prompt")) == "" {
		requirement.Status = models.RequirementMissing
		validation.Status = models.ValidationWarning
		validation.Message = "AI prompt is empty; a default prompt will be used"
	}

	validation.Requirements = append(validation.Requirements, requirement)

	return validation
}
