package heading

import (
	"sort"

	"github.com/dgallion1/docscope/internal/doctree"
)

// StyledHeading is a bold span whose size ranks among the three largest
// distinct sizes of its document.
type StyledHeading struct {
	Level      doctree.Level      `json:"level" yaml:"level"`
	Text       string             `json:"text" yaml:"text"`
	FontName   string             `json:"font_name" yaml:"font_name"`
	FontSize   float64            `json:"font_size" yaml:"font_size"`
	FontWeight doctree.FontWeight `json:"font_weight" yaml:"font_weight"`
	Page       int                `json:"page" yaml:"page"`
	BBox       *[4]float64        `json:"bbox" yaml:"bbox"`
}

// Styled lists headings from font style alone. Distinct known sizes are
// ranked largest first: a bold span of the largest size is H1, of the
// second H2, and of the third H3. Documents with fewer distinct sizes reuse
// the smallest available rank. Spans are returned in document order.
func Styled(spans []doctree.Span) []StyledHeading {
	seen := make(map[float64]bool)
	var sizes []float64
	for _, s := range spans {
		if s.FontSize > 0 && !seen[s.FontSize] {
			seen[s.FontSize] = true
			sizes = append(sizes, s.FontSize)
		}
	}
	out := []StyledHeading{}
	if len(sizes) == 0 {
		return out
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))

	h1 := sizes[0]
	h2 := h1
	if len(sizes) > 1 {
		h2 = sizes[1]
	}
	h3 := h2
	if len(sizes) > 2 {
		h3 = sizes[2]
	}

	for _, s := range spans {
		if !s.Bold() || s.FontSize <= 0 || s.FontSize < h3 {
			continue
		}
		level := doctree.H3
		switch s.FontSize {
		case h1:
			level = doctree.H1
		case h2:
			level = doctree.H2
		}
		out = append(out, StyledHeading{
			Level:      level,
			Text:       s.Text,
			FontName:   s.FontName,
			FontSize:   s.FontSize,
			FontWeight: s.FontWeight,
			Page:       s.Page,
			BBox:       s.BBox,
		})
	}
	return out
}
