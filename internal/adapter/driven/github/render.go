package github

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/guardhook/internal/domain/model"
)

// severityOrder fixes the rendering order of the summary table.
var severityOrder = []model.Severity{
	model.SeverityCritical,
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
}

// renderSummary produces the markdown body of the summary comment.
func renderSummary(result model.ScanResult) string {
	var b strings.Builder

	b.WriteString("## Guardrails scan\n\n")

	if result.Degraded {
		b.WriteString(":warning: The scan could not be completed: ")
		b.WriteString(result.DegradedCause)
		b.WriteString("\n\nEnforcement has defaulted to advisory mode; this change is not blocked.\n")
		return b.String()
	}

	counts := result.SeverityCounts()
	if len(result.Violations) == 0 {
		b.WriteString("No violations found. :white_check_mark:\n")
	} else {
		fmt.Fprintf(&b, "Found **%d** violation(s):\n\n", len(result.Violations))
		b.WriteString("| Severity | Count |\n|---|---|\n")
		for _, sev := range severityOrder {
			if counts[sev] > 0 {
				fmt.Fprintf(&b, "| %s | %d |\n", sev, counts[sev])
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nEnforcement: **%s** · Mergeable: **%v**\n", result.EnforcementMode, result.CanMerge)
	if result.ScanID != "" {
		fmt.Fprintf(&b, "\n<sub>scan %s · %.0f ms</sub>\n", result.ScanID, result.ProcessingTimeMS)
	}

	return b.String()
}

// renderAnnotation produces the body of a line-anchored violation comment.
func renderAnnotation(v model.Violation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s** (%s, %s)\n\n", v.RuleName, v.Severity, v.Category)

	if v.Message != "" {
		b.WriteString(v.Message)
		b.WriteString("\n\n")
	}
	if v.Explanation != "" && v.Explanation != v.Message {
		b.WriteString(v.Explanation)
		b.WriteString("\n\n")
	}
	if v.FixSuggestion != "" {
		fmt.Fprintf(&b, "**Suggested fix:** %s\n\n", v.FixSuggestion)
	}
	if len(v.StandardRefs) > 0 {
		fmt.Fprintf(&b, "References: %s\n\n", strings.Join(v.StandardRefs, ", "))
	}
	if v.AIGenerated {
		b.WriteString("<sub>flagged in AI-generated code</sub>\n")
	}

	fmt.Fprintf(&b, "<sub>rule %s</sub>", v.RuleID)

	return b.String()
}

// renderStatusDescription produces the short commit-status description.
// GitHub truncates descriptions at 140 characters, so this stays terse.
func renderStatusDescription(result model.ScanResult) string {
	if result.Degraded {
		return "scan could not complete; enforcement advisory"
	}
	if len(result.Violations) == 0 {
		return "no violations found"
	}

	counts := result.SeverityCounts()
	parts := make([]string, 0, len(severityOrder))
	for _, sev := range severityOrder {
		if counts[sev] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[sev], sev))
		}
	}
	return fmt.Sprintf("%d violation(s): %s", len(result.Violations), strings.Join(parts, ", "))
}
