package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/docscope/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark. Headings become
// bold spans sized by level; every other top-level block is one body span.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	out := &doctree.Document{Name: filename}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if t := strings.TrimSpace(string(node.Text(src))); t != "" {
				out.Spans = append(out.Spans, newSpan(1, t, "markdown", headingSize(node.Level), true))
			}
		case *ast.ThematicBreak:
		default:
			if t := extractText(n, src); t != "" {
				out.Spans = append(out.Spans, newSpan(1, t, "markdown", sizeBody, false))
			}
		}
	}
	return out, nil
}

// extractText gets the text content of a goldmark AST node. Leaf blocks
// such as code fences carry their text in Lines; everything else is walked.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			if buf.Len() > 0 && c.Type() == ast.TypeBlock {
				buf.WriteByte('\n')
			}
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
