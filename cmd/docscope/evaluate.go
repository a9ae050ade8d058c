package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docscope/internal/doctree"
	"github.com/dgallion1/docscope/internal/heading"
)

var (
	evalPredDir string
	evalGTDir   string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score predicted outlines against ground truth",
	Long: `Compare every <name>.json outline in --gt-dir with the file of the same
name in --pred-dir. Headings match on (level, trimmed text, page).
Ground-truth files without a prediction are listed and skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := evaluateDirs(evalPredDir, evalGTDir)
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), report)
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evalPredDir, "pred-dir", "", "directory with predicted outline JSON files")
	evaluateCmd.Flags().StringVar(&evalGTDir, "gt-dir", "", "directory with ground truth outline JSON files")
	evaluateCmd.MarkFlagRequired("pred-dir")
	evaluateCmd.MarkFlagRequired("gt-dir")
}

type fileScore struct {
	File      string        `json:"file" yaml:"file"`
	Precision float64       `json:"precision" yaml:"precision"`
	Recall    float64       `json:"recall" yaml:"recall"`
	Counts    heading.Score `json:"counts" yaml:"counts"`
}

type evalReport struct {
	Files     []fileScore   `json:"files" yaml:"files"`
	Missing   []string      `json:"missing,omitempty" yaml:"missing,omitempty"`
	Precision float64       `json:"precision" yaml:"precision"`
	Recall    float64       `json:"recall" yaml:"recall"`
	F1        float64       `json:"f1" yaml:"f1"`
	Counts    heading.Score `json:"counts" yaml:"counts"`
}

func evaluateDirs(predDir, gtDir string) (*evalReport, error) {
	entries, err := os.ReadDir(gtDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	report := &evalReport{Files: []fileScore{}}
	var total heading.Score
	for _, name := range names {
		truth, err := readOutline(filepath.Join(gtDir, name))
		if err != nil {
			return nil, err
		}
		pred, err := readOutline(filepath.Join(predDir, name))
		if errors.Is(err, fs.ErrNotExist) {
			report.Missing = append(report.Missing, name)
			continue
		}
		if err != nil {
			return nil, err
		}
		s := heading.Evaluate(pred, truth)
		total = total.Add(s)
		report.Files = append(report.Files, fileScore{
			File:      name,
			Precision: round2(s.Precision()),
			Recall:    round2(s.Recall()),
			Counts:    s,
		})
	}
	report.Counts = total
	report.Precision = round2(total.Precision())
	report.Recall = round2(total.Recall())
	report.F1 = round2(total.F1())
	return report, nil
}

func readOutline(path string) (doctree.Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return doctree.Outline{}, err
	}
	var o doctree.Outline
	if err := json.Unmarshal(data, &o); err != nil {
		return doctree.Outline{}, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
