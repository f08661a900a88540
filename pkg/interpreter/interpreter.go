// Package interpreter executes an admitted node list strictly in order,
// threading each node's output data into the next node and producing an
// execution trace.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flowgate/flowgate/pkg/eventbus"
	"github.com/flowgate/flowgate/pkg/events"
	"github.com/flowgate/flowgate/pkg/models"
	"github.com/flowgate/flowgate/pkg/otelhelper"
	"github.com/flowgate/flowgate/pkg/persistence"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxNodes is the hard upper bound on the number of nodes per execution.
const MaxNodes = 100

const defaultNodeTimeout = 30 * time.Second

// Input-shape errors. Each is rejected before any node runs.
var (
	ErrNoNodes          = errors.New("workflow nodes are required")
	ErrTooManyNodes     = fmt.Errorf("workflow exceeds the maximum of %d nodes", MaxNodes)
	ErrMissingWorkspace = errors.New("workspace id is required")
)

// IsInputError checks whether an error is an input-shape error that should
// surface as a client error.
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoNodes) ||
		errors.Is(err, ErrTooManyNodes) ||
		errors.Is(err, ErrMissingWorkspace)
}

// Policy decides how the loop proceeds after a node reports an error.
type Policy string

const (
	// PolicyContinue runs every node regardless of earlier failures.
	PolicyContinue Policy = "continue"
	// PolicyHalt stops the loop after the first failed node.
	PolicyHalt Policy = "halt"
	// PolicySkip keeps running but passes no upstream data to nodes that
	// follow a failure, until a node succeeds again.
	PolicySkip Policy = "skip"
)

// ExecutionRequest describes one execution call.
type ExecutionRequest struct {
	Nodes       []*models.WorkflowNode
	WorkspaceID string
	WorkflowID  string
	TriggeredBy string
	TriggerData map[string]any
	OnError     Policy
}

// execState is the rolling execution data visible to a node handler: the
// trace built so far and the previous node's output. There is no lookup by
// node id; a handler can only consume the immediately preceding output.
type execState struct {
	Trace    *models.ExecutionTrace
	Upstream map[string]any
}

type handler interface {
	Handle(ctx context.Context, node *models.WorkflowNode, state *execState) models.NodeResult
}

// AIConfig points the AI handler at a completion endpoint.
type AIConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

// Executor runs workflows. Each Execute call owns its own execution state;
// concurrent calls share nothing and need no coordination.
type Executor struct {
	logger   *slog.Logger
	client   *http.Client
	ai       AIConfig
	bus      eventbus.EventPublisher
	traces   persistence.ExecutionRepository
	tracer   trace.Tracer
	handlers map[models.NodeType]handler
}

type Option func(*Executor)

func WithHTTPClient(client *http.Client) Option {
	return func(e *Executor) {
		e.client = client
	}
}

func WithAIConfig(config AIConfig) Option {
	return func(e *Executor) {
		e.ai = config
	}
}

// WithEventBus publishes execution lifecycle events. Optional.
func WithEventBus(bus eventbus.EventPublisher) Option {
	return func(e *Executor) {
		e.bus = bus
	}
}

// WithTraceRepository persists finished traces. Optional; persistence
// failures are logged and never fail the execution call.
func WithTraceRepository(repo persistence.ExecutionRepository) Option {
	return func(e *Executor) {
		e.traces = repo
	}
}

// WithTracer enables OpenTelemetry spans per execution and per node.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

func NewExecutor(logger *slog.Logger, opts ...Option) *Executor {
	e := &Executor{
		logger: logger.With("module", "interpreter"),
		client: &http.Client{},
	}

	for _, opt := range opts {
		opt(e)
	}

	action := &actionHandler{client: e.client, logger: e.logger}
	ai := &aiHandler{client: e.client, config: e.ai, logger: e.logger}

	// Closed dispatch table: one handler per node type. Adding a node type
	// means adding an entry here and its handler implementation.
	e.handlers = map[models.NodeType]handler{
		models.NodeTypeTrigger:   &triggerHandler{},
		models.NodeTypeCondition: &conditionHandler{},
		models.NodeTypeAction:    action,
		models.NodeTypeData:      &dataHandler{},
		models.NodeTypeAI:        ai,
		models.NodeTypeAIAgent:   ai,
		models.NodeTypeImage:     ai,
		models.NodeTypeVideo:     ai,
	}

	return e
}

// Execute runs the nodes strictly in list order and returns the trace.
//
// Only malformed input fails the call up front; node-level failures are
// encoded into the per-node results and handled per the request's OnError
// policy. A panic escaping a handler is a programming defect: the call
// returns the best-effort trace alongside the error.
func (e *Executor) Execute(ctx context.Context, req ExecutionRequest) (execTrace *models.ExecutionTrace, err error) {
	if len(req.Nodes) == 0 {
		return nil, ErrNoNodes
	}

	if len(req.Nodes) > MaxNodes {
		return nil, ErrTooManyNodes
	}

	if strings.TrimSpace(req.WorkspaceID) == "" {
		return nil, ErrMissingWorkspace
	}

	policy := req.OnError
	if policy == "" {
		policy = PolicyContinue
	}

	started := time.Now()

	execTrace = &models.ExecutionTrace{
		ID:          generateExecutionID(),
		WorkspaceID: req.WorkspaceID,
		WorkflowID:  req.WorkflowID,
		TriggeredBy: req.TriggeredBy,
		Steps:       make([]models.TraceEntry, 0, len(req.Nodes)),
		StartedAt:   started.UTC(),
	}

	logger := e.logger.With(
		"execution_id", execTrace.ID,
		"workspace_id", req.WorkspaceID,
		"workflow_id", req.WorkflowID,
	)

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
			attribute.String(otelhelper.ExecutionIDKey, execTrace.ID),
			attribute.String(otelhelper.WorkspaceIDKey, req.WorkspaceID),
			attribute.String(otelhelper.WorkflowIDKey, req.WorkflowID),
		)

		defer func() {
			if err != nil {
				otelhelper.SetError(span, err)
			}

			span.End()
		}()
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			execTrace.FinishedAt = time.Now().UTC()
			execTrace.DurationMS = time.Since(started).Milliseconds()
			err = fmt.Errorf("execution aborted: %v", recovered)

			logger.ErrorContext(ctx, "Execution aborted by panic", "panic", recovered)
			e.publish(ctx, req.WorkspaceID, events.ExecutionFailed{
				BaseEvent:  events.NewBaseEvent(events.ExecutionFailedEvent, req.WorkspaceID, req.WorkflowID, execTrace.ID),
				Error:      err.Error(),
				DurationMS: execTrace.DurationMS,
			})
		}
	}()

	logger.InfoContext(ctx, "Starting workflow execution", "nodes", len(req.Nodes), "policy", string(policy))

	e.publish(ctx, req.WorkspaceID, events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, req.WorkspaceID, req.WorkflowID, execTrace.ID),
		TriggeredBy: req.TriggeredBy,
		NodeCount:   len(req.Nodes),
	})

	state := &execState{Trace: execTrace, Upstream: req.TriggerData}

loop:
	for _, node := range req.Nodes {
		result := e.runNode(ctx, node, state)

		execTrace.Steps = append(execTrace.Steps, models.TraceEntry{
			NodeID:    node.ID,
			NodeType:  node.Type,
			NodeTitle: node.Title,
			Result:    result,
			Timestamp: time.Now().UTC(),
		})

		e.publish(ctx, req.WorkspaceID, events.NodeCompleted{
			BaseEvent:  events.NewBaseEvent(events.NodeCompletedEvent, req.WorkspaceID, req.WorkflowID, execTrace.ID),
			NodeID:     node.ID,
			NodeType:   string(node.Type),
			Status:     result.Status,
			DurationMS: time.Since(started).Milliseconds(),
		})

		if result.IsError() {
			logger.WarnContext(ctx, "Node finished with error",
				"node_id", node.ID, "node_type", string(node.Type), "error", result.Error)

			switch policy {
			case PolicyHalt:
				break loop
			case PolicySkip:
				state.Upstream = nil

				continue
			}
		}

		state.Upstream = result.Data
	}

	execTrace.FinishedAt = time.Now().UTC()
	execTrace.DurationMS = time.Since(started).Milliseconds()

	logger.InfoContext(ctx, "Workflow execution finished",
		"steps", len(execTrace.Steps), "duration_ms", execTrace.DurationMS)

	e.publish(ctx, req.WorkspaceID, events.ExecutionFinished{
		BaseEvent:  events.NewBaseEvent(events.ExecutionFinishedEvent, req.WorkspaceID, req.WorkflowID, execTrace.ID),
		Steps:      len(execTrace.Steps),
		DurationMS: execTrace.DurationMS,
	})

	e.saveTrace(ctx, logger, execTrace)

	return execTrace, nil
}

func (e *Executor) runNode(ctx context.Context, node *models.WorkflowNode, state *execState) models.NodeResult {
	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "node.execute",
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
		)
		defer span.End()
	}

	h, found := e.handlers[node.Type]
	if !found {
		return models.NodeResult{
			Status: models.ResultStatusError,
			Error:  fmt.Sprintf("unsupported node type %q", node.Type),
		}
	}

	return h.Handle(ctx, node, state)
}

func (e *Executor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.bus == nil {
		return
	}

	if err := e.bus.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish execution event",
			"event_type", string(event.GetType()), "error", err)
	}
}

func (e *Executor) saveTrace(ctx context.Context, logger *slog.Logger, execTrace *models.ExecutionTrace) {
	if e.traces == nil {
		return
	}

	if err := e.traces.SaveTrace(ctx, execTrace); err != nil {
		logger.ErrorContext(ctx, "Failed to persist execution trace", "error", err)
	}
}

// nodeTimeout returns the outbound-call deadline for a node: config.timeout
// seconds when set, otherwise the 30s default.
func nodeTimeout(node *models.WorkflowNode) time.Duration {
	if node.Config != nil {
		if seconds, ok := node.Config["timeout"].(float64); ok && seconds > 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}

	return defaultNodeTimeout
}

func generateExecutionID() string {
	return "exec-" + uuid.New().String()[:8]
}
