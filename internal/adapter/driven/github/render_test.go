package github

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/guardhook/internal/domain/model"
)

func TestRenderSummary_Clean(t *testing.T) {
	body := renderSummary(model.CleanResult("acme/widgets"))

	assert.Contains(t, body, "No violations found")
	assert.Contains(t, body, "advisory")
}

func TestRenderSummary_Violations(t *testing.T) {
	body := renderSummary(resultWithViolations())

	assert.Contains(t, body, "Found **3** violation(s)")
	assert.Contains(t, body, "| critical | 1 |")
	assert.Contains(t, body, "| medium | 1 |")
	assert.Contains(t, body, "Mergeable: **false**")
	assert.Contains(t, body, "scan scan-1")
}

func TestRenderSummary_Degraded(t *testing.T) {
	body := renderSummary(model.DegradedResult("acme/widgets", "backend unreachable"))

	assert.Contains(t, body, "backend unreachable")
	assert.Contains(t, body, "advisory mode")
	assert.NotContains(t, body, "violation(s)")
}

func TestRenderAnnotation(t *testing.T) {
	v := model.Violation{
		RuleID:        "SEC-001",
		RuleName:      "Hardcoded secret",
		Category:      model.CategorySecurity,
		Severity:      model.SeverityCritical,
		FilePath:      "main.go",
		LineNumber:    10,
		Message:       "secret found",
		Explanation:   "credentials in source leak through history",
		FixSuggestion: "move the value to an environment variable",
		StandardRefs:  []string{"CWE-798"},
		AIGenerated:   true,
	}

	body := renderAnnotation(v)

	assert.True(t, strings.HasPrefix(body, "**Hardcoded secret** (critical, security)"))
	assert.Contains(t, body, "secret found")
	assert.Contains(t, body, "credentials in source leak through history")
	assert.Contains(t, body, "**Suggested fix:** move the value to an environment variable")
	assert.Contains(t, body, "CWE-798")
	assert.Contains(t, body, "AI-generated")
	assert.Contains(t, body, "rule SEC-001")
}

func TestRenderStatusDescription(t *testing.T) {
	assert.Equal(t, "no violations found", renderStatusDescription(model.CleanResult("r")))
	assert.Equal(t, "scan could not complete; enforcement advisory", renderStatusDescription(model.DegradedResult("r", "x")))

	desc := renderStatusDescription(resultWithViolations())
	assert.Equal(t, "3 violation(s): 1 critical, 1 medium, 1 low", desc)
	assert.LessOrEqual(t, len(desc), 140)
}
