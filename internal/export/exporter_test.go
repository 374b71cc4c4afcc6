package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabaudit/tabaudit/pkg/constants"
	"github.com/tabaudit/tabaudit/pkg/models"
)

func sampleReport() *models.AuditReport {
	columns := []models.ColumnProfile{
		{
			Name:         "age",
			InferredType: constants.TypeNumeric,
			RowCount:     4,
			NullCount:    1,
			NonNullCount: 3,
			Distinct:     models.DistinctStats{Count: 3},
		},
	}
	return &models.AuditReport{
		Profile: &models.DatasetProfile{
			RowCount:          4,
			Columns:           columns,
			SchemaFingerprint: models.ComputeSchemaFingerprint(columns),
		},
		Drift: &models.DriftReport{
			AddedColumns:   []string{"email"},
			RemovedColumns: []string{},
			StatDeltas: []models.StatDelta{{
				Column: "age", Metric: "mean", Baseline: 30, Candidate: 45,
				RelativeDelta: 0.5, Severity: constants.DriftCritical,
			}},
		},
		Results: []models.ValidationResult{{
			RuleID:   "age_nulls",
			Verdict:  constants.VerdictFail,
			Severity: constants.SeverityError,
			Observed: 0.25,
			Message:  "null_rate for 'age' is 0.25, exceeds allowed ≤ 0.1",
		}},
		Explanations: []models.Explanation{{
			RuleID:       "age_nulls",
			RootCause:    constants.RootCauseDataQuality,
			Summary:      "null_rate for 'age' is 0.25, exceeds allowed ≤ 0.1",
			SuggestedFix: "Investigate upstream completeness for 'age'.",
		}},
		Outcome: constants.OutcomeFail,
	}
}

func TestJSONExportRoundTrip(t *testing.T) {
	report := sampleReport()

	var buf bytes.Buffer
	require.NoError(t, NewJSONExporter().ExportAudit(&buf, report))

	var decoded models.AuditReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.Outcome, decoded.Outcome)
	assert.Equal(t, report.Profile.SchemaFingerprint, decoded.Profile.SchemaFingerprint)
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, "age_nulls", decoded.Results[0].RuleID)
}

func TestJSONExportProfile(t *testing.T) {
	report := sampleReport()

	var buf bytes.Buffer
	require.NoError(t, NewJSONExporter().ExportProfile(&buf, report.Profile))
	assert.Contains(t, buf.String(), `"row_count": 4`)
}

func TestMarkdownExportSections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownExporter().ExportAudit(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "# Audit Summary")
	assert.Contains(t, out, "Outcome: **FAIL**")
	assert.Contains(t, out, "## Profile")
	assert.Contains(t, out, "| age | numeric | 25.00% | 3 |")
	assert.Contains(t, out, "## Drift")
	assert.Contains(t, out, "Added columns: email")
	assert.Contains(t, out, "✖ age/mean")
	assert.Contains(t, out, "## Rules")
	assert.Contains(t, out, "## Explanations")
	assert.Contains(t, out, "data_quality")
}

func TestMarkdownExportNoDriftSection(t *testing.T) {
	report := sampleReport()
	report.Drift = &models.DriftReport{AddedColumns: []string{}, RemovedColumns: []string{}}

	var buf bytes.Buffer
	require.NoError(t, NewMarkdownExporter().ExportAudit(&buf, report))
	assert.Contains(t, buf.String(), "No drift detected.")
}
