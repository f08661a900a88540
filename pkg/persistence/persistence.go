// Package persistence provides the storage abstraction for execution traces.
package persistence

import (
	"context"

	"github.com/flowgate/flowgate/pkg/models"
)

// ExecutionRepository stores and retrieves finished execution traces.
type ExecutionRepository interface {
	SaveTrace(ctx context.Context, trace *models.ExecutionTrace) error
	TraceByID(ctx context.Context, id string) (*models.ExecutionTrace, error)
	TracesByWorkspace(ctx context.Context, workspaceID string) ([]*models.ExecutionTrace, error)
}

type Persistence interface {
	ExecutionRepository() ExecutionRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
