package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docscope/internal/app"
	"github.com/dgallion1/docscope/internal/doctree"
	"github.com/dgallion1/docscope/internal/parser"
	"github.com/dgallion1/docscope/internal/segment"
)

var outlineOutDir string

var outlineCmd = &cobra.Command{
	Use:   "outline <file>...",
	Short: "Detect the title and heading outline of documents",
	Long: `Detect the title and H1-H3 outline of each file.

With --out-dir, one <name>.json per input is written to the directory
instead of printing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		if outlineOutDir != "" {
			if err := os.MkdirAll(outlineOutDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}

		var outlines []fileOutline
		for _, path := range args {
			_, outline, err := detectFile(ctx, a, path)
			if err != nil {
				return err
			}
			if outlineOutDir != "" {
				dst, err := writeOutlineJSON(outlineOutDir, path, outline)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s\n", path, dst)
				continue
			}
			outlines = append(outlines, fileOutline{File: path, Outline: outline})
		}
		if outlineOutDir != "" {
			return nil
		}
		if len(outlines) == 1 {
			return output(cmd.OutOrStdout(), outlines[0].Outline)
		}
		return output(cmd.OutOrStdout(), outlines)
	},
}

var sectionsCmd = &cobra.Command{
	Use:   "sections <file>",
	Short: "Split a document into heading-bounded sections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		doc, outline, err := detectFile(ctx, a, args[0])
		if err != nil {
			return err
		}
		sections := segment.Segment(outline, doc.Spans)
		if sections == nil {
			sections = []doctree.Section{}
		}
		return output(cmd.OutOrStdout(), sections)
	},
}

func init() {
	outlineCmd.Flags().StringVar(&outlineOutDir, "out-dir", "", "write one JSON outline per file into this directory")
}

type fileOutline struct {
	File    string          `json:"file" yaml:"file"`
	Outline doctree.Outline `json:"outline" yaml:"outline"`
}

// parseFile reads path with the parser for its extension.
func parseFile(path string, opts parser.Options) (*doctree.Document, error) {
	p, err := parser.ForFile(path, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func detectFile(ctx context.Context, a *app.App, path string) (*doctree.Document, doctree.Outline, error) {
	doc, err := parseFile(path, parser.Options{PDFFallbackPdftotext: a.Config.PDFFallbackPdftotext})
	if err != nil {
		return nil, doctree.Outline{}, err
	}
	outline, err := a.Detector.Detect(ctx, doc.Spans)
	if err != nil {
		return nil, doctree.Outline{}, fmt.Errorf("%s: %w", path, err)
	}
	if outline.Headings == nil {
		outline.Headings = []doctree.Heading{}
	}
	return doc, outline, nil
}

// writeOutlineJSON writes dir/<stem>.json and returns its path.
func writeOutlineJSON(dir, src string, outline doctree.Outline) (string, error) {
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dst := filepath.Join(dir, stem+".json")

	data, err := json.MarshalIndent(outline, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	return dst, nil
}
