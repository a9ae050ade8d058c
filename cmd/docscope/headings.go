package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docscope/internal/heading"
)

var headingsCmd = &cobra.Command{
	Use:   "headings <name>",
	Short: "List bold headings of a stored document by font-size rank",
	Long: `List the bold spans of a stored document whose font size is among the
three largest distinct sizes. The largest size is H1, the next H2, the
third H3. Unlike "outline" this ignores the stored outline.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		spans, err := a.Store.Spans(ctx, args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if len(spans) == 0 {
			return fmt.Errorf("%s: no spans stored", args[0])
		}
		return output(cmd.OutOrStdout(), heading.Styled(spans))
	},
}
