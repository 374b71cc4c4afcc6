package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabaudit/tabaudit/internal/drift"
	"github.com/tabaudit/tabaudit/internal/export"
	"github.com/tabaudit/tabaudit/internal/profiler"
	"github.com/tabaudit/tabaudit/internal/snapshot"
	"github.com/tabaudit/tabaudit/internal/source"
	"github.com/tabaudit/tabaudit/pkg/models"
)

type DriftOptions struct {
	BaselineFile   string
	InputFile      string
	Dataset        string
	SnapshotDB     string
	OutputFile     string
	FailOnCritical bool
}

func NewDriftCmd() *cobra.Command {
	opts := &DriftOptions{}

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Detect schema and statistical drift between two dataset versions",
		Long: `Diff two dataset profiles: column additions and removals, inferred
type changes, and relative shifts in mean, standard deviation and
null rate scored against warn/critical thresholds.

The baseline comes either from a CSV file (--baseline) or from the
latest stored snapshot of a dataset (--dataset with --db).`,
		Example: `  # Diff two CSV versions
  tabaudit drift --baseline v1.csv --input v2.csv

  # Diff against the latest stored snapshot
  tabaudit drift --dataset users --db snapshots.db --input v2.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrift(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.BaselineFile, "baseline", "", "Baseline CSV file")
	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Candidate CSV file (required)")
	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "Dataset name for snapshot lookup")
	cmd.Flags().StringVar(&opts.SnapshotDB, "db", "tabaudit.db", "Snapshot database path")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file (- for stdout)")
	cmd.Flags().BoolVar(&opts.FailOnCritical, "fail-on-critical", false, "Exit non-zero when critical drift is detected")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runDrift(ctx context.Context, opts *DriftOptions) error {
	logger := newLogger()
	cfg := auditConfig()
	engine := profiler.NewEngine(cfg.Profiler, logger)

	baseline, err := loadBaseline(ctx, engine, opts)
	if err != nil {
		return err
	}

	src, err := source.OpenCSVFile(opts.InputFile)
	if err != nil {
		return err
	}
	defer src.Close()

	candidate, err := engine.Profile(ctx, src)
	if err != nil {
		return err
	}

	report := drift.NewDetector(cfg.Drift, logger).Diff(baseline, candidate)

	out, closeFn, err := openOutput(opts.OutputFile)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := export.NewJSONExporter().ExportDrift(out, report); err != nil {
		return err
	}

	if opts.FailOnCritical && report.HasCritical() {
		return fmt.Errorf("critical drift detected")
	}
	return nil
}

func loadBaseline(ctx context.Context, engine *profiler.Engine, opts *DriftOptions) (*models.DatasetProfile, error) {
	switch {
	case opts.BaselineFile != "":
		src, err := source.OpenCSVFile(opts.BaselineFile)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return engine.Profile(ctx, src)

	case opts.Dataset != "":
		store, err := snapshot.Open(ctx, opts.SnapshotDB, newLogger())
		if err != nil {
			return nil, err
		}
		defer store.Close()
		_, profile, err := store.Latest(ctx, opts.Dataset)
		return profile, err

	default:
		return nil, fmt.Errorf("either --baseline or --dataset is required")
	}
}
