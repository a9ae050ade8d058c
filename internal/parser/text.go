package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docscope/internal/doctree"
)

// TextParser handles plain text files: one span per paragraph, no font
// size, form feeds start a new page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	out := &doctree.Document{Name: filename}
	page := 1
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			out.Spans = append(out.Spans, newSpan(page, current.String(), "", 0, false))
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		for strings.Contains(line, "\f") {
			before, after, _ := strings.Cut(line, "\f")
			if strings.TrimSpace(before) != "" {
				if current.Len() > 0 {
					current.WriteString("\n")
				}
				current.WriteString(before)
			}
			flush()
			page++
			line = after
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
