package segment

import (
	"strconv"
	"strings"

	"github.com/dgallion1/docscope/internal/doctree"
)

// Segment splits a document into one section per outline heading. A section
// runs from its heading's page to the page before the next heading, or to
// the document's last page for the final heading. When the next heading
// starts on the same page the range collapses to that single page.
//
// Section text is every span whose page falls within the range, joined by
// newlines in document order, so headings that share a page also
// share text.
func Segment(outline doctree.Outline, spans []doctree.Span) []doctree.Section {
	headings := outline.Headings
	if len(headings) == 0 {
		return nil
	}
	lastPage := doctree.MaxPage(spans)

	sections := make([]doctree.Section, 0, len(headings))
	for i, h := range headings {
		start := h.Page
		end := lastPage
		if i+1 < len(headings) {
			end = headings[i+1].Page - 1
		}
		if end < start {
			end = start
		}
		sections = append(sections, doctree.Section{
			ID:        strconv.Itoa(i + 1),
			Level:     h.Level,
			Text:      collect(spans, start, end),
			PageStart: start,
			PageEnd:   end,
		})
	}
	return sections
}

func collect(spans []doctree.Span, start, end int) string {
	var sb strings.Builder
	first := true
	for _, s := range spans {
		if s.Page < start || s.Page > end {
			continue
		}
		if !first {
			sb.WriteByte('\n')
		}
		sb.WriteString(s.Text)
		first = false
	}
	return sb.String()
}
