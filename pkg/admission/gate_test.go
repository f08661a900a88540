package admission_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/flowgate/flowgate/pkg/admission"
	"github.com/flowgate/flowgate/pkg/models"
	"github.com/flowgate/flowgate/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryScanCache is an in-memory ScanCache for tests.
type memoryScanCache struct {
	entries map[string]models.SecurityScanResult
	gets    int
	hits    int
	sets    int
	failing bool
}

func newMemoryScanCache() *memoryScanCache {
	return &memoryScanCache{entries: make(map[string]models.SecurityScanResult)}
}

func (c *memoryScanCache) Get(_ context.Context, key string) (*models.SecurityScanResult, error) {
	if c.failing {
		return nil, errors.New("cache unavailable")
	}

	c.gets++

	if entry, found := c.entries[key]; found {
		c.hits++

		return &entry, nil
	}

	return nil, nil
}

func (c *memoryScanCache) Set(_ context.Context, key string, result models.SecurityScanResult, _ time.Duration) error {
	if c.failing {
		return errors.New("cache unavailable")
	}

	c.sets++
	c.entries[key] = result

	return nil
}

func criticalNodes() []*models.WorkflowNode {
	return []*models.WorkflowNode{
		testutil.CreateTestNode(
			testutil.WithID("bad-node"),
			testutil.WithConfig(map[string]any{"query": "DROP TABLE users"}),
		),
	}
}

func highRiskNodes() []*models.WorkflowNode {
	return []*models.WorkflowNode{
		testutil.CreateTestNode(
			testutil.WithID("loop-node"),
			testutil.WithConfig(map[string]any{"code": "while (true) { fetch(url) }"}),
		),
	}
}

func lowRiskNodes() []*models.WorkflowNode {
	return []*models.WorkflowNode{
		testutil.CreateTestNode(
			testutil.WithID("url-node"),
			testutil.WithConfig(map[string]any{"url": "https://api.example.com"}),
		),
	}
}

func mediumRiskNodes() []*models.WorkflowNode {
	return []*models.WorkflowNode{
		testutil.CreateTestNode(
			testutil.WithID("fs-node"),
			testutil.WithConfig(map[string]any{"code": "fs.readFile(path)"}),
		),
	}
}

func safeNodes() []*models.WorkflowNode {
	return []*models.WorkflowNode{
		testutil.CreateTestNode(testutil.WithTriggerNode()),
		testutil.CreateTestNode(),
	}
}

func TestGate_Decide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		nodes           []*models.WorkflowNode
		requireApproval bool
		expectValid     bool
		expectReason    string
	}{
		{
			name:        "safe workflow is admitted",
			nodes:       safeNodes(),
			expectValid: true,
		},
		{
			name:            "safe workflow is admitted even with approval policy",
			nodes:           safeNodes(),
			requireApproval: true,
			expectValid:     true,
		},
		{
			name:        "low risk is admitted",
			nodes:       lowRiskNodes(),
			expectValid: true,
		},
		{
			name:            "low risk is admitted with approval policy",
			nodes:           lowRiskNodes(),
			requireApproval: true,
			expectValid:     true,
		},
		{
			name:        "medium risk is admitted",
			nodes:       mediumRiskNodes(),
			expectValid: true,
		},
		{
			name:            "medium risk is admitted with approval policy",
			nodes:           mediumRiskNodes(),
			requireApproval: true,
			expectValid:     true,
		},
		{
			name:        "high risk is admitted without approval policy",
			nodes:       highRiskNodes(),
			expectValid: true,
		},
		{
			name:            "high risk is blocked with approval policy",
			nodes:           highRiskNodes(),
			requireApproval: true,
			expectValid:     false,
			expectReason:    "requires admin approval",
		},
		{
			name:         "critical risk is always blocked",
			nodes:        criticalNodes(),
			expectValid:  false,
			expectReason: "critical security risks",
		},
		{
			name:            "critical risk is blocked regardless of approval policy",
			nodes:           criticalNodes(),
			requireApproval: true,
			expectValid:     false,
			expectReason:    "critical security risks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gate := admission.NewGate(slog.Default())

			decision := gate.Decide(context.Background(), tt.nodes, tt.requireApproval)

			assert.Equal(t, tt.expectValid, decision.Valid)

			if tt.expectReason != "" {
				assert.True(t, strings.Contains(decision.Reason, tt.expectReason),
					"reason %q should contain %q", decision.Reason, tt.expectReason)
			} else {
				assert.Empty(t, decision.Reason)
			}

			assert.NotNil(t, decision.ScanResult.Issues)
		})
	}
}

func TestGate_DecisionCarriesScanResult(t *testing.T) {
	t.Parallel()

	gate := admission.NewGate(slog.Default())

	decision := gate.Decide(context.Background(), criticalNodes(), false)

	require.NotEmpty(t, decision.ScanResult.Issues)
	assert.Equal(t, models.SeverityCritical, decision.ScanResult.RiskLevel)
	assert.False(t, decision.ScanResult.Passed)
}

func TestGate_ScanCacheHit(t *testing.T) {
	t.Parallel()

	cache := newMemoryScanCache()
	gate := admission.NewGate(slog.Default(), admission.WithScanCache(cache))
	nodes := highRiskNodes()

	first := gate.Decide(context.Background(), nodes, true)
	second := gate.Decide(context.Background(), nodes, true)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets, "only the first decision scans")
	assert.Equal(t, 1, cache.hits)
}

func TestGate_DifferentContentMissesCache(t *testing.T) {
	t.Parallel()

	cache := newMemoryScanCache()
	gate := admission.NewGate(slog.Default(), admission.WithScanCache(cache))

	gate.Decide(context.Background(), safeNodes(), false)
	gate.Decide(context.Background(), criticalNodes(), false)

	assert.Equal(t, 2, cache.sets)
	assert.Equal(t, 0, cache.hits)
}

func TestGate_CacheFailureDegradesToFreshScan(t *testing.T) {
	t.Parallel()

	cache := newMemoryScanCache()
	cache.failing = true

	gate := admission.NewGate(slog.Default(), admission.WithScanCache(cache))

	decision := gate.Decide(context.Background(), criticalNodes(), false)

	assert.False(t, decision.Valid)
	assert.Equal(t, models.SeverityCritical, decision.ScanResult.RiskLevel)
}
