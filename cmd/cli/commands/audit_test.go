package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabaudit/tabaudit/pkg/constants"
	"github.com/tabaudit/tabaudit/pkg/models"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const auditCSV = "age\n20\n30\n40\n50\n"

func TestRunAuditPassOutcome(t *testing.T) {
	dir := t.TempDir()
	input := writeTempFile(t, dir, "data.csv", auditCSV)
	rules := writeTempFile(t, dir, "rules.yaml",
		"rules:\n  - column: age\n    metric: null_rate\n    operator: le\n    threshold: 0.1\n")

	outcome, err := runAudit(context.Background(), &AuditOptions{
		InputFile:    input,
		RulesFile:    rules,
		OutputFile:   filepath.Join(dir, "report.md"),
		OutputFormat: "markdown",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.OutcomePass, outcome)
}

func TestRunAuditFailOutcome(t *testing.T) {
	dir := t.TempDir()
	input := writeTempFile(t, dir, "data.csv", auditCSV)
	rules := writeTempFile(t, dir, "rules.yaml",
		"rules:\n  - column: age\n    metric: mean\n    operator: le\n    threshold: 1\n")

	outcome, err := runAudit(context.Background(), &AuditOptions{
		InputFile:    input,
		RulesFile:    rules,
		OutputFile:   filepath.Join(dir, "report.md"),
		OutputFormat: "markdown",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.OutcomeFail, outcome)
}

func TestRunAuditMissingSnapshotIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	input := writeTempFile(t, dir, "data.csv", auditCSV)

	// An empty snapshot database has no baseline for the dataset; the
	// audit proceeds without drift detection instead of failing.
	outcome, err := runAudit(context.Background(), &AuditOptions{
		InputFile:    input,
		Dataset:      "users",
		SnapshotDB:   filepath.Join(dir, "snapshots.db"),
		OutputFile:   filepath.Join(dir, "report.md"),
		OutputFormat: "markdown",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.OutcomePass, outcome)
}

func TestRunAuditDriftAfterSavedSnapshot(t *testing.T) {
	dir := t.TempDir()
	input := writeTempFile(t, dir, "data.csv", auditCSV)
	db := filepath.Join(dir, "snapshots.db")

	_, err := runAudit(context.Background(), &AuditOptions{
		InputFile:    input,
		Dataset:      "users",
		SnapshotDB:   db,
		SaveSnapshot: true,
		OutputFile:   filepath.Join(dir, "first.md"),
		OutputFormat: "markdown",
	})
	require.NoError(t, err)

	reportPath := filepath.Join(dir, "second.json")
	_, err = runAudit(context.Background(), &AuditOptions{
		InputFile:    input,
		Dataset:      "users",
		SnapshotDB:   db,
		OutputFile:   reportPath,
		OutputFormat: "json",
	})
	require.NoError(t, err)

	body, err := os.ReadFile(reportPath)
	require.NoError(t, err)

	var report models.AuditReport
	require.NoError(t, json.Unmarshal(body, &report))
	require.NotNil(t, report.Drift, "second run should diff against the stored baseline")
	assert.True(t, report.Drift.Empty())
}

func TestRunAuditSurfacesStorageErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeTempFile(t, dir, "data.csv", auditCSV)

	_, err := runAudit(context.Background(), &AuditOptions{
		InputFile:    input,
		Dataset:      "users",
		SnapshotDB:   filepath.Join(dir, "missing", "nested", "snapshots.db"),
		OutputFile:   filepath.Join(dir, "report.md"),
		OutputFormat: "markdown",
	})
	require.Error(t, err)
}
