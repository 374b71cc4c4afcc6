package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabaudit/tabaudit/internal/rules"
	"github.com/tabaudit/tabaudit/internal/source"
	"github.com/tabaudit/tabaudit/pkg/constants"
	"github.com/tabaudit/tabaudit/pkg/models"
)

func threshold(v float64) *float64 { return &v }

func fixtureSource() *source.SliceSource {
	return source.NewSliceSource([]string{"age", "country"}, []models.Row{
		{"age": models.Number(20), "country": models.Text("US")},
		{"age": models.Number(30), "country": models.Text("US")},
		{"age": models.Number(40), "country": models.Text("DE")},
		{"age": models.Null(), "country": models.Text("DE")},
	})
}

func expectations(ruleSet ...models.Rule) *models.ExpectationSet {
	set := &models.ExpectationSet{Rules: ruleSet}
	rules.Normalize(set)
	return set
}

func TestRunProfileOnly(t *testing.T) {
	report, err := NewAuditor(nil, nil).Run(context.Background(), fixtureSource(), Options{})
	require.NoError(t, err)

	assert.Equal(t, constants.OutcomePass, report.Outcome)
	assert.Equal(t, 0, models.ExitCode(report.Outcome))
	assert.Nil(t, report.Drift)
	assert.Empty(t, report.Results)
	require.NotNil(t, report.Profile)
	assert.Equal(t, int64(4), report.Profile.RowCount)
}

func TestRunWithExpectations(t *testing.T) {
	set := expectations(
		models.Rule{ID: "age_mean", Column: "age", Metric: "mean", Operator: "le", Threshold: threshold(100)},
		models.Rule{ID: "age_nulls", Column: "age", Metric: "null_rate", Operator: "le", Threshold: threshold(0.1)},
	)

	report, err := NewAuditor(nil, nil).Run(context.Background(), fixtureSource(), Options{Expectations: set})
	require.NoError(t, err)

	assert.Equal(t, constants.OutcomeFail, report.Outcome)
	assert.Equal(t, 1, models.ExitCode(report.Outcome))
	require.Len(t, report.Results, 2)
	assert.Equal(t, constants.VerdictPass, report.Results[0].Verdict)
	assert.Equal(t, constants.VerdictFail, report.Results[1].Verdict)

	// Only the failing rule is explained.
	require.Len(t, report.Explanations, 1)
	assert.Equal(t, "age_nulls", report.Explanations[0].RuleID)
}

func TestRunErrorOutcomeDominates(t *testing.T) {
	set := expectations(
		models.Rule{ID: "broken", Column: "income", Metric: "null_rate", Operator: "le", Threshold: threshold(0.1)},
		models.Rule{ID: "failing", Column: "age", Metric: "null_rate", Operator: "le", Threshold: threshold(0.1)},
	)

	report, err := NewAuditor(nil, nil).Run(context.Background(), fixtureSource(), Options{Expectations: set})
	require.NoError(t, err)

	assert.Equal(t, constants.OutcomeError, report.Outcome)
	assert.Equal(t, 2, models.ExitCode(report.Outcome))
	assert.Len(t, report.Explanations, 2)
}

func TestRunWithBaselineDrift(t *testing.T) {
	auditor := NewAuditor(nil, nil)

	baselineReport, err := auditor.Run(context.Background(), fixtureSource(), Options{})
	require.NoError(t, err)

	candidate := source.NewSliceSource([]string{"age", "country", "email"}, []models.Row{
		{"age": models.Number(20), "country": models.Text("US"), "email": models.Text("a@example.com")},
		{"age": models.Number(30), "country": models.Text("US"), "email": models.Text("b@example.com")},
	})

	report, err := auditor.Run(context.Background(), candidate, Options{Baseline: baselineReport.Profile})
	require.NoError(t, err)

	require.NotNil(t, report.Drift)
	assert.Equal(t, []string{"email"}, report.Drift.AddedColumns)
}

func TestRunInvalidExpectationsFailFast(t *testing.T) {
	set := &models.ExpectationSet{Rules: []models.Rule{
		{ID: "bad", Column: "age", Metric: "median", Operator: "le", Threshold: threshold(1), Severity: "error"},
	}}

	_, err := NewAuditor(nil, nil).Run(context.Background(), fixtureSource(), Options{Expectations: set})
	require.Error(t, err)
}
