// Package admission decides whether a workflow may execute, combining the
// security scan with the workspace's approval policy.
package admission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/flowgate/flowgate/pkg/models"
	"github.com/flowgate/flowgate/pkg/security"
)

const defaultCacheTTL = 5 * time.Minute

// Decision is the admission outcome for one workflow.
type Decision struct {
	Valid      bool                      `json:"valid"`
	Reason     string                    `json:"reason,omitempty"`
	ScanResult models.SecurityScanResult `json:"scan_result"`
}

// Gate runs the security scanner and applies the admission policy. It is a
// pure classification step: it performs no execution and has no side effects
// beyond the optional scan cache.
type Gate struct {
	logger *slog.Logger
	cache  ScanCache
	ttl    time.Duration
}

type Option func(*Gate)

// WithScanCache caches scan results keyed by workflow content. Cache failures
// degrade to a fresh scan; they never block admission.
func WithScanCache(cache ScanCache) Option {
	return func(g *Gate) {
		g.cache = cache
	}
}

// WithCacheTTL overrides the default cache entry lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(g *Gate) {
		g.ttl = ttl
	}
}

func NewGate(logger *slog.Logger, opts ...Option) *Gate {
	gate := &Gate{
		logger: logger.With("module", "admission_gate"),
		ttl:    defaultCacheTTL,
	}

	for _, opt := range opts {
		opt(gate)
	}

	return gate
}

// Decide scans the workflow and applies the admission table:
//
//	critical                  -> blocked
//	high + requireApproval    -> blocked
//	high, no approval policy  -> allowed
//	medium/low/safe           -> allowed
func (g *Gate) Decide(ctx context.Context, nodes []*models.WorkflowNode, requireApproval bool) Decision {
	scan := g.scan(ctx, nodes)

	decision := Decision{Valid: true, ScanResult: scan}

	switch scan.RiskLevel {
	case models.SeverityCritical:
		decision.Valid = false
		decision.Reason = "workflow contains critical security risks"
	case models.SeverityHigh:
		if requireApproval {
			decision.Valid = false
			decision.Reason = "workflow requires admin approval"
		}
	}

	return decision
}

func (g *Gate) scan(ctx context.Context, nodes []*models.WorkflowNode) models.SecurityScanResult {
	if g.cache == nil {
		return security.Scan(nodes)
	}

	key, err := contentKey(nodes)
	if err != nil {
		g.logger.WarnContext(ctx, "Failed to derive scan cache key", "error", err)

		return security.Scan(nodes)
	}

	if cached, err := g.cache.Get(ctx, key); err != nil {
		g.logger.WarnContext(ctx, "Scan cache read failed", "error", err)
	} else if cached != nil {
		return *cached
	}

	scan := security.Scan(nodes)

	if err := g.cache.Set(ctx, key, scan, g.ttl); err != nil {
		g.logger.WarnContext(ctx, "Scan cache write failed", "error", err)
	}

	return scan
}

// contentKey derives a cache key from the canonical JSON of the node list.
func contentKey(nodes []*models.WorkflowNode) (string, error) {
	raw, err := json.Marshal(nodes)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(raw)

	return "flowgate:scan:" + hex.EncodeToString(sum[:]), nil
}
