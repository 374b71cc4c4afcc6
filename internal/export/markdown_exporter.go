package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/tabaudit/tabaudit/pkg/constants"
	"github.com/tabaudit/tabaudit/pkg/models"
)

// MarkdownExporter renders a human-readable audit summary, suitable
// for CI logs and pull-request comments.
type MarkdownExporter struct{}

// NewMarkdownExporter creates a markdown exporter.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// ExportAudit writes the audit summary.
func (e *MarkdownExporter) ExportAudit(w io.Writer, report *models.AuditReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Audit Summary\n\n")
	fmt.Fprintf(&b, "Outcome: **%s**\n\n", strings.ToUpper(report.Outcome))

	if report.Profile != nil {
		e.writeProfile(&b, report.Profile)
	}
	if report.Drift != nil {
		e.writeDrift(&b, report.Drift)
	}
	if len(report.Results) > 0 {
		e.writeResults(&b, report.Results)
	}
	if len(report.GroupResults) > 0 {
		e.writeGroups(&b, report.GroupResults)
	}
	if len(report.Explanations) > 0 {
		e.writeExplanations(&b, report.Explanations)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (e *MarkdownExporter) writeProfile(b *strings.Builder, profile *models.DatasetProfile) {
	fmt.Fprintf(b, "## Profile\n\n")
	fmt.Fprintf(b, "Rows: %d", profile.RowCount)
	if profile.MalformedRows > 0 {
		fmt.Fprintf(b, " (%d malformed)", profile.MalformedRows)
	}
	fmt.Fprintf(b, " · Schema: `%s`\n\n", profile.SchemaFingerprint)

	fmt.Fprintf(b, "| Column | Type | Nulls | Distinct |\n")
	fmt.Fprintf(b, "|---|---|---|---|\n")
	for i := range profile.Columns {
		col := &profile.Columns[i]
		distinct := fmt.Sprintf("%d", col.Distinct.Count)
		if col.Distinct.Approximate {
			distinct = "~" + distinct
		}
		fmt.Fprintf(b, "| %s | %s | %.2f%% | %s |\n",
			col.Name, col.InferredType, col.NullRate()*100, distinct)
	}
	fmt.Fprintf(b, "\n")
}

func (e *MarkdownExporter) writeDrift(b *strings.Builder, drift *models.DriftReport) {
	fmt.Fprintf(b, "## Drift\n\n")
	if drift.Empty() {
		fmt.Fprintf(b, "No drift detected.\n\n")
		return
	}

	if len(drift.AddedColumns) > 0 {
		fmt.Fprintf(b, "- Added columns: %s\n", strings.Join(drift.AddedColumns, ", "))
	}
	if len(drift.RemovedColumns) > 0 {
		fmt.Fprintf(b, "- Removed columns: %s\n", strings.Join(drift.RemovedColumns, ", "))
	}
	for _, tc := range drift.TypeChanges {
		fmt.Fprintf(b, "- Type change: %s %s → %s\n", tc.Column, tc.OldType, tc.NewType)
	}
	for _, sd := range drift.StatDeltas {
		marker := "⚠"
		if sd.Severity == constants.DriftCritical {
			marker = "✖"
		}
		fmt.Fprintf(b, "- %s %s/%s: %.4g → %.4g (Δ %.1f%%)\n",
			marker, sd.Column, sd.Metric, sd.Baseline, sd.Candidate, sd.RelativeDelta*100)
	}
	for _, cs := range drift.CategoryShifts {
		fmt.Fprintf(b, "- Category shift in %s (distance %.3f)", cs.Column, cs.Distance)
		if len(cs.NewCategories) > 0 {
			fmt.Fprintf(b, ", new: %s", strings.Join(cs.NewCategories, ", "))
		}
		if len(cs.MissingCategories) > 0 {
			fmt.Fprintf(b, ", missing: %s", strings.Join(cs.MissingCategories, ", "))
		}
		fmt.Fprintf(b, "\n")
	}
	fmt.Fprintf(b, "\n")
}

func (e *MarkdownExporter) writeResults(b *strings.Builder, results []models.ValidationResult) {
	fmt.Fprintf(b, "## Rules\n\n")
	fmt.Fprintf(b, "| Rule | Verdict | Severity | Detail |\n")
	fmt.Fprintf(b, "|---|---|---|---|\n")
	for i := range results {
		r := &results[i]
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", r.RuleID, r.Verdict, r.Severity, r.Message)
	}
	fmt.Fprintf(b, "\n")
}

func (e *MarkdownExporter) writeGroups(b *strings.Builder, groups []models.GroupResult) {
	fmt.Fprintf(b, "## Groups\n\n")
	for _, g := range groups {
		fmt.Fprintf(b, "- %s (%s of %s): %s\n",
			g.Name, g.Combine, strings.Join(g.RuleIDs, ", "), g.Verdict)
	}
	fmt.Fprintf(b, "\n")
}

func (e *MarkdownExporter) writeExplanations(b *strings.Builder, explanations []models.Explanation) {
	fmt.Fprintf(b, "## Explanations\n\n")
	for _, exp := range explanations {
		fmt.Fprintf(b, "- **%s** (%s): %s\n  - Fix: %s\n",
			exp.RuleID, exp.RootCause, exp.Summary, exp.SuggestedFix)
	}
	fmt.Fprintf(b, "\n")
}
