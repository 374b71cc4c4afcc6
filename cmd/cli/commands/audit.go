package commands

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabaudit/tabaudit/internal/audit"
	"github.com/tabaudit/tabaudit/internal/export"
	"github.com/tabaudit/tabaudit/internal/rules"
	"github.com/tabaudit/tabaudit/internal/snapshot"
	"github.com/tabaudit/tabaudit/internal/source"
	apperrors "github.com/tabaudit/tabaudit/pkg/errors"
	"github.com/tabaudit/tabaudit/pkg/models"
)

type AuditOptions struct {
	InputFile    string
	RulesFile    string
	Dataset      string
	SnapshotDB   string
	SaveSnapshot bool
	OutputFile   string
	OutputFormat string
}

func NewAuditCmd() *cobra.Command {
	opts := &AuditOptions{}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run the full audit pipeline and gate CI on the outcome",
		Long: `Profile a dataset, optionally diff it against the latest stored
snapshot, evaluate a declarative expectation set and explain every
failure. The process exits 0 when all rules pass or are skipped, 1 on
any failed rule, and 2 on any errored rule, so CI can separate bad
data from bad configuration.`,
		Example: `  # Gate a dataset on an expectation file
  tabaudit audit --input users.csv --rules expectations.yaml

  # Also detect drift and refresh the stored snapshot
  tabaudit audit --input users.csv --rules expectations.yaml \
    --dataset users --db snapshots.db --save-snapshot`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := runAudit(cmd.Context(), opts)
			if err != nil {
				return err
			}
			// Exit only after runAudit has returned, so its deferred
			// closes have already run.
			os.Exit(models.ExitCode(outcome))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "CSV file to audit (required)")
	cmd.Flags().StringVarP(&opts.RulesFile, "rules", "r", "", "Expectation YAML file")
	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "Dataset name for snapshot drift and persistence")
	cmd.Flags().StringVar(&opts.SnapshotDB, "db", "tabaudit.db", "Snapshot database path")
	cmd.Flags().BoolVar(&opts.SaveSnapshot, "save-snapshot", false, "Persist the computed profile as the new snapshot")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file (- for stdout)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "markdown", "Output format (markdown, json)")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// runAudit executes the pipeline and returns the aggregate outcome;
// the caller maps it to the process exit code.
func runAudit(ctx context.Context, opts *AuditOptions) (string, error) {
	logger := newLogger()

	var set *models.ExpectationSet
	if opts.RulesFile != "" {
		// Config errors fail fast here, before any data is read.
		loaded, err := rules.LoadFile(opts.RulesFile)
		if err != nil {
			return "", err
		}
		set = loaded
	}

	src, err := source.OpenCSVFile(opts.InputFile)
	if err != nil {
		return "", err
	}
	defer src.Close()

	var store *snapshot.Store
	var baseline *models.DatasetProfile
	if opts.Dataset != "" {
		store, err = snapshot.Open(ctx, opts.SnapshotDB, logger)
		if err != nil {
			return "", err
		}
		defer store.Close()

		_, prior, err := store.Latest(ctx, opts.Dataset)
		switch {
		case err == nil:
			baseline = prior
		case errors.Is(err, apperrors.ErrSnapshotNotFound):
			// First run for this dataset; audit without a baseline.
		default:
			return "", err
		}
	}

	auditor := audit.NewAuditor(auditConfig(), logger)
	report, err := auditor.Run(ctx, src, audit.Options{
		Baseline:     baseline,
		Expectations: set,
	})
	if err != nil {
		return "", err
	}

	if store != nil && opts.SaveSnapshot {
		if _, err := store.Save(ctx, opts.Dataset, report.Profile); err != nil {
			return "", err
		}
	}

	out, closeFn, err := openOutput(opts.OutputFile)
	if err != nil {
		return "", err
	}
	defer closeFn()

	switch opts.OutputFormat {
	case "json":
		err = export.NewJSONExporter().ExportAudit(out, report)
	default:
		err = export.NewMarkdownExporter().ExportAudit(out, report)
	}
	if err != nil {
		return "", err
	}

	return report.Outcome, nil
}
