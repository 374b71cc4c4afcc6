package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabaudit/tabaudit/internal/export"
	"github.com/tabaudit/tabaudit/internal/profiler"
	"github.com/tabaudit/tabaudit/internal/source"
)

type ProfileOptions struct {
	InputFile    string
	OutputFile   string
	OutputFormat string
}

func NewProfileCmd() *cobra.Command {
	opts := &ProfileOptions{}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Compute the statistical profile of a CSV dataset",
		Long: `Profile a tabular dataset in a single streaming pass: per-column type
inference, null and distinct counts, numeric aggregates with quantiles
and a histogram, and categorical top-K frequencies.`,
		Example: `  # Profile a dataset to stdout
  tabaudit profile --input users.csv

  # Write the profile to a file
  tabaudit profile --input users.csv --output users-profile.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "CSV file to profile (required)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file (- for stdout)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "json", "Output format (json)")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runProfile(cmd *cobra.Command, opts *ProfileOptions) error {
	logger := newLogger()
	cfg := auditConfig()

	src, err := source.OpenCSVFile(opts.InputFile)
	if err != nil {
		return err
	}
	defer src.Close()

	engine := profiler.NewEngine(cfg.Profiler, logger)
	profile, err := engine.Profile(cmd.Context(), src)
	if err != nil {
		return err
	}

	out, closeFn, err := openOutput(opts.OutputFile)
	if err != nil {
		return err
	}
	defer closeFn()

	return export.NewJSONExporter().ExportProfile(out, profile)
}

// openOutput resolves "-" to stdout and anything else to a created
// file.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
