package main

import (
	"context"
	"os"

	"github.com/flowgate/flowgate/pkg/admission"
	"github.com/flowgate/flowgate/pkg/cmd"
	"github.com/flowgate/flowgate/pkg/interpreter"
	"github.com/flowgate/flowgate/pkg/log"
	"github.com/flowgate/flowgate/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "flowgate-api",
		Usage:                 "Validate, scan, admit, and execute workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for execution trace persistence",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the scan result cache (optional)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "ai-endpoint",
				Usage:   "Completion endpoint used by AI nodes",
				Sources: cli.EnvVars("AI_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "ai-api-key",
				Usage:   "API key for the AI completion endpoint",
				Sources: cli.EnvVars("AI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "ai-model",
				Usage:   "Model name passed to the AI completion endpoint",
				Sources: cli.EnvVars("AI_MODEL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Flowgate API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			gateOpts := []admission.Option{}

			if redisURL := command.String("redis-url"); redisURL != "" {
				cache, err := admission.NewRedisScanCache(redisURL)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to connect scan cache, continuing without it", "error", err)
				} else {
					defer func() {
						if err := cache.Close(); err != nil {
							logger.ErrorContext(ctx, "Failed to close scan cache", "error", err)
						}
					}()

					gateOpts = append(gateOpts, admission.WithScanCache(cache))
				}
			}

			execOpts := []interpreter.Option{
				interpreter.WithEventBus(eventBus),
				interpreter.WithTraceRepository(persistence.ExecutionRepository()),
				interpreter.WithAIConfig(interpreter.AIConfig{
					Endpoint: command.String("ai-endpoint"),
					APIKey:   command.String("ai-api-key"),
					Model:    command.String("ai-model"),
				}),
			}

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "flowgate-api")
				if err != nil {
					logger.ErrorContext(ctx, "Failed to initialize tracer, continuing without it", "error", err)
				} else {
					execOpts = append(execOpts, interpreter.WithTracer(tracer))
				}
			}

			api := NewAPI(
				logger,
				admission.NewGate(logger, gateOpts...),
				interpreter.NewExecutor(logger, execOpts...),
				persistence.ExecutionRepository(),
			)

			if err := api.Start(int(command.Int("port"))); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
