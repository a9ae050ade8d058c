package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docscope/internal/app"
	"github.com/dgallion1/docscope/internal/config"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "docscope",
	Short: "Persona-driven document outlines, sections and relevance queries",
	Long: `Docscope extracts heading outlines and sections from PDF, DOCX, Markdown,
HTML, text and CSV files, stores them, and ranks stored sections against a
persona and the job they need to get done.

Examples:
  docscope outline report.pdf                 # Print the outline
  docscope outline --out-dir out/ *.pdf       # Write one JSON per file
  docscope ingest a.pdf b.pdf c.pdf           # Store documents
  docscope query --persona "Travel Planner" \
    --job "Plan a 4 day trip" --doc a.pdf --doc b.pdf --doc c.pdf`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case string(OutputFormatYAML), string(OutputFormatJSON):
			return nil
		}
		return fmt.Errorf("unknown output format %q (want yaml or json)", outputFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./docscope.yaml or ~/.docscope/docscope.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	rootCmd.AddCommand(outlineCmd, sectionsCmd, headingsCmd, ingestCmd, queryCmd, evaluateCmd)
}

// loadConfig reads and validates the configuration named by --config.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger logs to stderr so structured output on stdout stays parseable.
func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
}

// openApp wires the components. Commands that never touch stored data pass
// ephemeral=true to keep the store in memory.
func openApp(ctx context.Context, ephemeral bool) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if ephemeral {
		cfg.Store.Backend = "memory"
	}
	return app.New(ctx, cfg, newLogger(cfg))
}
