package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docscope/internal/pipeline"
)

var (
	ingestForce bool
	ingestName  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Parse, outline, segment and store documents",
	Long: `Run the ingestion pipeline for each file against the configured store.
Documents are stored under their file name unless --name is given (single
file only). Content already stored under another name is skipped unless
--force is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestName != "" && len(args) > 1 {
			return fmt.Errorf("--name can only be used with a single file")
		}
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		snaps := make([]pipeline.JobSnapshot, 0, len(args))
		failed := 0
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			job := pipeline.NewJob(ingestName, filepath.Base(path), data, ingestForce)
			a.Worker.Process(ctx, job)
			snap := job.Snapshot()
			if snap.Status == pipeline.StatusFailed {
				failed++
			}
			snaps = append(snaps, snap)
		}
		if err := output(cmd.OutOrStdout(), snaps); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "store even if the content is already stored")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "document name (default: file name)")
}
