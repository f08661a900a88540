// Package main provides a one-shot runner that validates, scans, admits, and
// executes a workflow from a JSON node list.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/flowgate/flowgate/pkg/admission"
	"github.com/flowgate/flowgate/pkg/interpreter"
	"github.com/flowgate/flowgate/pkg/log"
	"github.com/flowgate/flowgate/pkg/models"
	"github.com/flowgate/flowgate/pkg/security"
	"github.com/flowgate/flowgate/pkg/validation"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:  "flowgate-run",
		Usage: "Run a workflow node list through the full admission pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to a JSON file containing the workflow nodes",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "workspace-id",
				Usage:   "Workspace the execution belongs to",
				Value:   "local",
				Sources: cli.EnvVars("WORKSPACE_ID"),
			},
			&cli.StringFlag{
				Name:  "on-error",
				Usage: "Error policy (continue, halt, skip)",
				Value: string(interpreter.PolicyContinue),
			},
			&cli.BoolFlag{
				Name:  "require-approval",
				Usage: "Block workflows with high risk findings",
			},
			&cli.BoolFlag{
				Name:  "skip-checks",
				Usage: "Execute without validation and admission (local debugging only)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("run")

	nodes, err := loadNodes(command.String("file"))
	if err != nil {
		return err
	}

	if !command.Bool("skip-checks") {
		// Advisory only; schema hints never change the validation outcome.
		for _, node := range nodes {
			if schemaErr := validation.ValidateConfigSchema(node); schemaErr != nil {
				logger.Warn("Node configuration does not match its schema", "hint", schemaErr.Error())
			}
		}

		result := validation.Validate(nodes)

		printJSON("validation", result)

		if !result.IsValid && !result.CanRunAnyway {
			return fmt.Errorf("workflow failed validation with %d node errors", countErrors(result))
		}

		scan := security.Scan(nodes)

		printJSON("scan", scan)

		gate := admission.NewGate(logger)

		decision := gate.Decide(ctx, nodes, command.Bool("require-approval"))
		if !decision.Valid {
			return fmt.Errorf("workflow blocked: %s", decision.Reason)
		}
	}

	executor := interpreter.NewExecutor(logger)

	trace, err := executor.Execute(ctx, interpreter.ExecutionRequest{
		Nodes:       nodes,
		WorkspaceID: command.String("workspace-id"),
		TriggeredBy: "cli",
		OnError:     interpreter.Policy(command.String("on-error")),
	})
	if err != nil {
		return err
	}

	printJSON("execution", trace)

	return nil
}

func loadNodes(path string) ([]*models.WorkflowNode, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var nodes []*models.WorkflowNode
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nodes, nil
}

func countErrors(result models.ValidationResult) int {
	count := 0

	for _, node := range result.Validations {
		if node.Status == models.ValidationError {
			count++
		}
	}

	return count
}

func printJSON(label string, value any) {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to encode", label, "output:", err)

		return
	}

	fmt.Printf("%s:\n%s\n", label, encoded)
}
