// Package file provides file-based persistence for execution traces.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowgate/flowgate/pkg/models"
	"github.com/flowgate/flowgate/pkg/persistence"
)

const tracesDir = "executions"

// Persistence implements persistence.Persistence on the local filesystem.
// Each trace is stored as one JSON file under <root>/executions.
type Persistence struct {
	root string
	repo *ExecutionRepository
}

// NewPersistence creates file persistence rooted at the given directory.
// A "file://" prefix is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root: cleanRoot,
		repo: &ExecutionRepository{dir: filepath.Join(cleanRoot, tracesDir)},
	}
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.repo
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// ExecutionRepository stores traces as JSON files named by trace ID.
type ExecutionRepository struct {
	dir string
}

func (r *ExecutionRepository) SaveTrace(_ context.Context, trace *models.ExecutionTrace) error {
	err := os.MkdirAll(r.dir, 0o750)
	if err != nil {
		return fmt.Errorf("failed to create traces directory: %w", err)
	}

	raw, err := json.MarshalIndent(trace, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode trace %s: %w", trace.ID, err)
	}

	err = os.WriteFile(r.path(trace.ID), raw, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write trace %s: %w", trace.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) TraceByID(_ context.Context, id string) (*models.ExecutionTrace, error) {
	raw, err := os.ReadFile(r.path(id))
	if os.IsNotExist(err) {
		return nil, persistence.ErrTraceNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read trace %s: %w", id, err)
	}

	var trace models.ExecutionTrace

	err = json.Unmarshal(raw, &trace)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trace %s: %w", id, err)
	}

	return &trace, nil
}

func (r *ExecutionRepository) TracesByWorkspace(ctx context.Context, workspaceID string) ([]*models.ExecutionTrace, error) {
	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return []*models.ExecutionTrace{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}

	traces := make([]*models.ExecutionTrace, 0)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		trace, err := r.TraceByID(ctx, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}

		if trace.WorkspaceID == workspaceID {
			traces = append(traces, trace)
		}
	}

	return traces, nil
}

func (r *ExecutionRepository) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}
