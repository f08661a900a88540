// Package main provides the Flowgate API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/flowgate/flowgate/pkg/admission"
	"github.com/flowgate/flowgate/pkg/interpreter"
	"github.com/flowgate/flowgate/pkg/persistence"
	"github.com/flowgate/flowgate/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger   *slog.Logger
	gate     *admission.Gate
	executor *interpreter.Executor
	traces   persistence.ExecutionRepository
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	gate *admission.Gate,
	executor *interpreter.Executor,
	traces persistence.ExecutionRepository,
) *API {
	return &API{
		logger:   logger,
		gate:     gate,
		executor: executor,
		traces:   traces,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.logger, a.gate, a.executor, a.traces, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowgate API")
	})

	w := app.Group("/workflows")
	w.Post("/validate", handlers.ValidateWorkflow)
	w.Post("/scan", handlers.ScanWorkflow)
	w.Post("/admit", handlers.AdmitWorkflow)
	w.Post("/execute", handlers.ExecuteWorkflow)

	app.Get("/executions/:id", handlers.GetExecution)
	app.Get("/workspaces/:id/executions", handlers.ListWorkspaceExecutions)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
