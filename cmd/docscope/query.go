package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/docscope/internal/query"
)

var queryReq query.Request

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Rank stored sections for a persona and job",
	Long: `Rank the sections of stored documents by relevance to a persona and the
job they need done, and summarize the top sections of each document.

Documents are referenced by their stored name; see "docscope ingest".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		res, err := a.Engine.Run(ctx, queryReq)
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), res)
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryReq.Persona, "persona", "", "who is asking (required)")
	queryCmd.Flags().StringVar(&queryReq.Job, "job", "", "the job to be done (required)")
	queryCmd.Flags().StringArrayVar(&queryReq.Documents, "doc", nil, "stored document name (repeat 3-10 times)")
	queryCmd.Flags().IntVar(&queryReq.TopK, "top-k", 0, "sections per document (default from config)")
	queryCmd.MarkFlagRequired("persona")
	queryCmd.MarkFlagRequired("job")
}
