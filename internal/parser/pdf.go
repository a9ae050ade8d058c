package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docscope/internal/doctree"
)

// PDFParser handles PDF files. It reads glyph runs with their fonts, then
// falls back to pdftotext if enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// ledongthuc/pdf requires a ReaderAt+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docscope-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	spans, err := extractPDFSpans(tmpPath)
	if (err != nil || len(spans) == 0) && p.FallbackPdftotext {
		if fb, ferr := extractPdftotext(tmpPath); ferr == nil {
			spans, err = fb, nil
		} else if err == nil {
			err = ferr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf spans: %w", err)
	}
	return &doctree.Document{Name: filename, Spans: spans}, nil
}

func extractPDFSpans(path string) (spans []doctree.Span, err error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		glyphs, err := pageGlyphs(page, i)
		if err != nil {
			return nil, err
		}
		spans = append(spans, groupGlyphs(i, glyphs)...)
	}
	return spans, nil
}

// pageGlyphs reads a page's content stream; the library panics on some
// malformed streams.
func pageGlyphs(page pdflib.Page, num int) (texts []pdflib.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse page %d: %v", num, r)
		}
	}()
	return page.Content().Text, nil
}

// groupGlyphs merges consecutive glyphs that share a baseline, font and
// size into spans. A horizontal gap wider than a fraction of the font size
// becomes a space.
func groupGlyphs(page int, glyphs []pdflib.Text) []doctree.Span {
	var spans []doctree.Span
	var (
		cur       strings.Builder
		font      string
		size      float64
		x0, y, x1 float64
		active    bool
	)
	flush := func() {
		if !active {
			return
		}
		if text := cur.String(); strings.TrimSpace(text) != "" {
			s := newSpan(page, text, font, size, isBoldFont(font))
			s.BBox = &[4]float64{x0, y, x1, y + size}
			spans = append(spans, s)
		}
		cur.Reset()
		active = false
	}

	for _, g := range glyphs {
		sameRun := active && g.Font == font && math.Abs(g.FontSize-size) < 0.1 && math.Abs(g.Y-y) < size*0.3
		if !sameRun {
			flush()
			font, size, y = g.Font, g.FontSize, g.Y
			x0, x1 = g.X, g.X
			active = true
		} else if g.X-x1 > size*0.25 && !strings.HasSuffix(cur.String(), " ") && g.S != " " {
			cur.WriteByte(' ')
		}
		cur.WriteString(g.S)
		if end := g.X + g.W; end > x1 {
			x1 = end
		}
	}
	flush()
	return spans
}

func isBoldFont(name string) bool {
	return strings.Contains(name, "Bold")
}

func extractPdftotext(path string) ([]doctree.Span, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return plainTextSpans(string(out)), nil
}

// plainTextSpans turns form-feed separated pages into one span per
// non-blank line, with unknown font size.
func plainTextSpans(text string) []doctree.Span {
	var spans []doctree.Span
	for i, page := range strings.Split(text, "\f") {
		for _, line := range strings.Split(page, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			spans = append(spans, newSpan(i+1, strings.TrimSpace(line), "", 0, false))
		}
	}
	return spans
}
