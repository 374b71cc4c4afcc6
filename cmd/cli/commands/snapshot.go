package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tabaudit/tabaudit/internal/profiler"
	"github.com/tabaudit/tabaudit/internal/snapshot"
	"github.com/tabaudit/tabaudit/internal/source"
)

type SnapshotOptions struct {
	SnapshotDB string
	Dataset    string
	InputFile  string
	Keep       int
}

func NewSnapshotCmd() *cobra.Command {
	opts := &SnapshotOptions{}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored dataset profile snapshots",
	}

	cmd.PersistentFlags().StringVar(&opts.SnapshotDB, "db", "tabaudit.db", "Snapshot database path")
	cmd.PersistentFlags().StringVar(&opts.Dataset, "dataset", "", "Dataset name (required)")
	_ = cmd.MarkPersistentFlagRequired("dataset")

	saveCmd := &cobra.Command{
		Use:     "save",
		Short:   "Profile a CSV file and store the result as a snapshot",
		Example: `  tabaudit snapshot save --dataset users --input users.csv --db snapshots.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotSave(cmd.Context(), opts)
		},
	}
	saveCmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "CSV file to profile (required)")
	_ = saveCmd.MarkFlagRequired("input")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots for a dataset, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotList(cmd.Context(), opts)
		},
	}

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest snapshots of a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotPrune(cmd.Context(), opts)
		},
	}
	pruneCmd.Flags().IntVar(&opts.Keep, "keep", 5, "Number of snapshots to keep")

	cmd.AddCommand(saveCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(pruneCmd)

	return cmd
}

func runSnapshotSave(ctx context.Context, opts *SnapshotOptions) error {
	logger := newLogger()
	cfg := auditConfig()

	src, err := source.OpenCSVFile(opts.InputFile)
	if err != nil {
		return err
	}
	defer src.Close()

	profile, err := profiler.NewEngine(cfg.Profiler, logger).Profile(ctx, src)
	if err != nil {
		return err
	}

	store, err := snapshot.Open(ctx, opts.SnapshotDB, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Save(ctx, opts.Dataset, profile)
	if err != nil {
		return err
	}

	fmt.Println(id)
	return nil
}

func runSnapshotList(ctx context.Context, opts *SnapshotOptions) error {
	store, err := snapshot.Open(ctx, opts.SnapshotDB, newLogger())
	if err != nil {
		return err
	}
	defer store.Close()

	metas, err := store.List(ctx, opts.Dataset)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tROWS\tFINGERPRINT")
	for _, meta := range metas {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			meta.ID, meta.CreatedAt.Format(time.RFC3339), meta.RowCount, meta.SchemaFingerprint)
	}
	return w.Flush()
}

func runSnapshotPrune(ctx context.Context, opts *SnapshotOptions) error {
	store, err := snapshot.Open(ctx, opts.SnapshotDB, newLogger())
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Prune(ctx, opts.Dataset, opts.Keep)
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d snapshot(s), kept the newest %d\n", removed, opts.Keep)
	return nil
}
