package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/docscope/internal/doctree"
)

const docxDefaultSize = 12.0

// DOCXParser handles .docx files. DOCX has no pages, so every span is on
// page 1; size and font come from the paragraph's first run.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docscope-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := &doctree.Document{Name: filename}
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		runs := docxRuns(para)
		font, size := docxFirstRunFont(runs)
		if size == docxDefaultSize {
			if lvl := docxHeadingLevel(para); lvl > 0 {
				size = headingSize(lvl)
			}
		}
		out.Spans = append(out.Spans, newSpan(1, text, font, size, docxAnyBold(runs)))
	}
	return out, nil
}

func docxRuns(para *docx.Paragraph) []*docx.Run {
	var runs []*docx.Run
	for _, child := range para.Children {
		if run, ok := child.(*docx.Run); ok {
			runs = append(runs, run)
		}
	}
	return runs
}

// docxFirstRunFont returns the font name and point size of the first run.
// Sizes are stored in half-points.
func docxFirstRunFont(runs []*docx.Run) (string, float64) {
	font, size := "Unknown", docxDefaultSize
	if len(runs) == 0 || runs[0].RunProperties == nil {
		return font, size
	}
	props := runs[0].RunProperties
	if props.Fonts != nil && props.Fonts.ASCII != "" {
		font = props.Fonts.ASCII
	}
	if props.Size != nil {
		if half, err := strconv.ParseFloat(props.Size.Val, 64); err == nil && half > 0 {
			size = half / 2
		}
	}
	return font, size
}

func docxAnyBold(runs []*docx.Run) bool {
	for _, run := range runs {
		if run.RunProperties != nil && run.RunProperties.Bold != nil {
			return true
		}
	}
	return false
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	switch style {
	case "title":
		return 1
	case "heading1", "heading2", "heading3", "heading4", "heading5", "heading6":
		n, _ := strconv.Atoi(strings.TrimPrefix(style, "heading"))
		return n
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, run := range docxRuns(para) {
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
