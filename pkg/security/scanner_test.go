package security_test

import (
	"fmt"
	"testing"

	"github.com/flowgate/flowgate/pkg/models"
	"github.com/flowgate/flowgate/pkg/security"
	"github.com/flowgate/flowgate/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_CleanWorkflow(t *testing.T) {
	t.Parallel()

	nodes := []*models.WorkflowNode{
		testutil.CreateTestNode(testutil.WithTriggerNode()),
		testutil.CreateTestNode(testutil.WithTitle("Write a log line")),
	}

	result := security.Scan(nodes)

	assert.True(t, result.Passed)
	assert.Equal(t, models.SeveritySafe, result.RiskLevel)
	assert.Empty(t, result.Issues)
}

func TestScan_RuleMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		node     *models.WorkflowNode
		rule     string
		severity models.Severity
		passed   bool
	}{
		{
			name: "destructive sql in config",
			node: testutil.CreateTestNode(
				testutil.WithConfig(map[string]any{"query": "DROP TABLE users"}),
			),
			rule:     "sql-injection-attempt",
			severity: models.SeverityCritical,
			passed:   false,
		},
		{
			name: "shell execution in description",
			node: testutil.CreateTestNode(
				testutil.WithDescription("runs child_process.spawn on the host"),
			),
			rule:     "command-execution",
			severity: models.SeverityCritical,
			passed:   false,
		},
		{
			name: "mining tool reference",
			node: testutil.CreateTestNode(
				testutil.WithConfig(map[string]any{"pool": "stratum+tcp://pool.example:3333"}),
			),
			rule:     "crypto-mining",
			severity: models.SeverityCritical,
			passed:   false,
		},
		{
			name: "hardcoded credential",
			node: testutil.CreateTestNode(
				testutil.WithConfig(map[string]any{"script": "api_key = 'sk-live-abcdef123456'"}),
			),
			rule:     "hardcoded-credentials",
			severity: models.SeverityHigh,
			passed:   false,
		},
		{
			name: "unconditional loop",
			node: testutil.CreateTestNode(
				testutil.WithConfig(map[string]any{"code": "while (true) { poll() }"}),
			),
			rule:     "infinite-loop",
			severity: models.SeverityHigh,
			passed:   false,
		},
		{
			name: "prototype pollution",
			node: testutil.CreateTestNode(
				testutil.WithConfig(map[string]any{"payload": `{"__proto__": {"admin": true}}`}),
			),
			rule:     "prototype-pollution",
			severity: models.SeverityHigh,
			passed:   false,
		},
		{
			name: "script tag",
			node: testutil.CreateTestNode(
				testutil.WithDescription(`<script>alert(1)</script>`),
			),
			rule:     "script-injection",
			severity: models.SeverityHigh,
			passed:   false,
		},
		{
			name: "filesystem access",
			node: testutil.CreateTestNode(
				testutil.WithConfig(map[string]any{"code": "fs.readFile('/etc/passwd')"}),
			),
			rule:     "filesystem-access",
			severity: models.SeverityMedium,
			passed:   true,
		},
		{
			name: "base64 obfuscation",
			node: testutil.CreateTestNode(
				testutil.WithConfig(map[string]any{"code": "atob(payload)"}),
			),
			rule:     "base64-obfuscation",
			severity: models.SeverityMedium,
			passed:   true,
		},
		{
			name: "unsafe html sink",
			node: testutil.CreateTestNode(
				testutil.WithConfig(map[string]any{"code": "el.innerHTML = data"}),
			),
			rule:     "unsafe-html-sink",
			severity: models.SeverityMedium,
			passed:   true,
		},
		{
			name: "external url",
			node: testutil.CreateTestNode(
				testutil.WithConfig(map[string]any{"url": "https://api.example.com/v1"}),
			),
			rule:     "external-url",
			severity: models.SeverityLow,
			passed:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := security.Scan([]*models.WorkflowNode{tt.node})

			require.NotEmpty(t, result.Issues)

			found := false

			for _, issue := range result.Issues {
				if issue.Rule == tt.rule {
					found = true

					assert.Equal(t, tt.severity, issue.Severity)
					assert.Equal(t, tt.node.ID, issue.NodeID)
					assert.NotEmpty(t, issue.Remediation)
				}
			}

			assert.True(t, found, "expected rule %s to fire", tt.rule)
			assert.Equal(t, tt.passed, result.Passed)
		})
	}
}

func TestScan_MatchesNodeTitle(t *testing.T) {
	t.Parallel()

	node := testutil.CreateTestNode(
		testutil.WithTitle("DROP TABLE users"),
		testutil.WithConfig(map[string]any{}),
	)

	result := security.Scan([]*models.WorkflowNode{node})

	require.NotEmpty(t, result.Issues)
	assert.Equal(t, "sql-injection-attempt", result.Issues[0].Rule)
	assert.Equal(t, models.SeverityCritical, result.RiskLevel)
}

func TestScan_LocalURLDoesNotFire(t *testing.T) {
	t.Parallel()

	node := testutil.CreateTestNode(
		testutil.WithConfig(map[string]any{"url": "http://localhost:8080/hook"}),
	)

	result := security.Scan([]*models.WorkflowNode{node})

	for _, issue := range result.Issues {
		assert.NotEqual(t, "external-url", issue.Rule)
	}
}

func TestScan_RiskLevelIsMaxSeverity(t *testing.T) {
	t.Parallel()

	nodes := []*models.WorkflowNode{
		testutil.CreateTestNode(
			testutil.WithConfig(map[string]any{"url": "https://api.example.com"}),
		),
		testutil.CreateTestNode(
			testutil.WithConfig(map[string]any{"code": "atob(x)"}),
		),
		testutil.CreateTestNode(
			testutil.WithConfig(map[string]any{"query": "TRUNCATE TABLE logs"}),
		),
	}

	result := security.Scan(nodes)

	assert.Equal(t, models.SeverityCritical, result.RiskLevel)
	assert.False(t, result.Passed)
}

func TestScan_AddingNodesNeverLowersRisk(t *testing.T) {
	t.Parallel()

	risky := testutil.CreateTestNode(
		testutil.WithConfig(map[string]any{"query": "DROP TABLE users"}),
	)

	base := security.Scan([]*models.WorkflowNode{risky})

	extended := security.Scan([]*models.WorkflowNode{
		risky,
		testutil.CreateTestNode(testutil.WithTitle("Harmless log")),
		testutil.CreateTestNode(testutil.WithType(models.NodeTypeCondition)),
	})

	assert.GreaterOrEqual(t, extended.RiskLevel.Rank(), base.RiskLevel.Rank())
	assert.GreaterOrEqual(t, len(extended.Issues), len(base.Issues))
}

func TestScan_DuplicateRuleHitsAreNotDeduplicated(t *testing.T) {
	t.Parallel()

	nodes := []*models.WorkflowNode{
		testutil.CreateTestNode(testutil.WithConfig(map[string]any{"query": "DROP TABLE a"})),
		testutil.CreateTestNode(testutil.WithConfig(map[string]any{"query": "DROP TABLE b"})),
	}

	result := security.Scan(nodes)

	hits := 0

	for _, issue := range result.Issues {
		if issue.Rule == "sql-injection-attempt" {
			hits++
		}
	}

	assert.Equal(t, 2, hits)
}

func TestScan_ExcessiveNetworkCalls(t *testing.T) {
	t.Parallel()

	nodes := make([]*models.WorkflowNode, 0, 11)
	for i := range 11 {
		nodes = append(nodes, testutil.CreateTestNode(
			testutil.WithTitle(fmt.Sprintf("Call %d", i)),
			testutil.WithConfig(map[string]any{"method": "API_CALL", "url": "http://localhost/x"}),
		))
	}

	result := security.Scan(nodes)

	found := false

	for _, issue := range result.Issues {
		if issue.Rule == "excessive-network-calls" {
			found = true

			assert.Equal(t, models.SeverityMedium, issue.Severity)
			assert.Equal(t, "workflow", issue.NodeTitle)
		}
	}

	assert.True(t, found)
	assert.True(t, result.Passed, "medium findings still pass the scan")
}

func TestScan_ExcessiveComplexity(t *testing.T) {
	t.Parallel()

	nodes := make([]*models.WorkflowNode, 0, 51)
	for range 51 {
		nodes = append(nodes, testutil.CreateTestNode())
	}

	result := security.Scan(nodes)

	found := false

	for _, issue := range result.Issues {
		if issue.Rule == "excessive-complexity" {
			found = true

			assert.Equal(t, models.SeverityLow, issue.Severity)
		}
	}

	assert.True(t, found)
}

func TestCatalog_IsStable(t *testing.T) {
	t.Parallel()

	first := security.Catalog()
	second := security.Catalog()

	require.Len(t, first, 12)
	require.Len(t, second, 12)

	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
	}
}
