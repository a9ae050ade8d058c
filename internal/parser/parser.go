package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/docscope/internal/doctree"
)

// Parser converts raw document bytes into font-annotated spans.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options tune parser behavior.
type Options struct {
	// PDFFallbackPdftotext retries failed PDFs with the pdftotext binary.
	// Spans produced that way carry no font information.
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Synthetic sizes for formats that only carry heading levels.
const (
	sizeTitle = 26.0
	sizeBody  = 11.0
)

func headingSize(level int) float64 {
	switch level {
	case 1:
		return 24
	case 2:
		return 18
	case 3:
		return 14
	}
	return 12
}

func newSpan(page int, text, font string, size float64, bold bool) doctree.Span {
	w := doctree.WeightNormal
	if bold {
		w = doctree.WeightBold
	}
	return doctree.Span{
		Page:       page,
		Text:       norm.NFKC.String(text),
		FontName:   font,
		FontSize:   size,
		FontWeight: w,
	}
}
