package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowgate/flowgate/pkg/models"
	"github.com/flowgate/flowgate/pkg/persistence"
)

// ExecutionRepository stores traces in the execution_traces table. Steps are
// kept as a JSONB document; the surrounding columns support workspace
// listing without unpacking them.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{
		db:     db,
		logger: logger.With("module", "execution_repository"),
	}
}

func (r *ExecutionRepository) SaveTrace(ctx context.Context, trace *models.ExecutionTrace) error {
	steps, err := json.Marshal(trace.Steps)
	if err != nil {
		return fmt.Errorf("failed to encode trace steps: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO execution_traces
			(id, workspace_id, workflow_id, triggered_by, steps, duration_ms, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			steps = EXCLUDED.steps,
			duration_ms = EXCLUDED.duration_ms,
			finished_at = EXCLUDED.finished_at`,
		trace.ID,
		trace.WorkspaceID,
		trace.WorkflowID,
		trace.TriggeredBy,
		steps,
		trace.DurationMS,
		trace.StartedAt,
		trace.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save trace %s: %w", trace.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) TraceByID(ctx context.Context, id string) (*models.ExecutionTrace, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, workflow_id, triggered_by, steps, duration_ms, started_at, finished_at
		FROM execution_traces
		WHERE id = $1`, id)

	trace, err := scanTrace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrTraceNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load trace %s: %w", id, err)
	}

	return trace, nil
}

func (r *ExecutionRepository) TracesByWorkspace(ctx context.Context, workspaceID string) ([]*models.ExecutionTrace, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, workspace_id, workflow_id, triggered_by, steps, duration_ms, started_at, finished_at
		FROM execution_traces
		WHERE workspace_id = $1
		ORDER BY started_at DESC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list traces for workspace %s: %w", workspaceID, err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("Failed to close trace rows", "error", err)
		}
	}()

	traces := make([]*models.ExecutionTrace, 0)

	for rows.Next() {
		trace, err := scanTrace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trace row: %w", err)
		}

		traces = append(traces, trace)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trace rows: %w", err)
	}

	return traces, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrace(row rowScanner) (*models.ExecutionTrace, error) {
	var (
		trace       models.ExecutionTrace
		workflowID  sql.NullString
		triggeredBy sql.NullString
		steps       []byte
	)

	err := row.Scan(
		&trace.ID,
		&trace.WorkspaceID,
		&workflowID,
		&triggeredBy,
		&steps,
		&trace.DurationMS,
		&trace.StartedAt,
		&trace.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	trace.WorkflowID = workflowID.String
	trace.TriggeredBy = triggeredBy.String

	err = json.Unmarshal(steps, &trace.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trace steps: %w", err)
	}

	return &trace, nil
}
