package parser

import (
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docscope/internal/doctree"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"a.pdf", "*parser.PDFParser", false},
		{"a.DOCX", "*parser.DOCXParser", false},
		{"a.md", "*parser.MarkdownParser", false},
		{"a.htm", "*parser.HTMLParser", false},
		{"a.txt", "*parser.TextParser", false},
		{"a.csv", "*parser.CSVParser", false},
		{"a.exe", "", true},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.name, Options{})
		if tt.wantErr {
			if err == nil {
				t.Errorf("ForFile(%q) expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ForFile(%q): %v", tt.name, err)
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("ForFile(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *PDFParser:
		return "*parser.PDFParser"
	case *DOCXParser:
		return "*parser.DOCXParser"
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *TextParser:
		return "*parser.TextParser"
	case *CSVParser:
		return "*parser.CSVParser"
	}
	return "?"
}

func TestForFilePDFFallbackOption(t *testing.T) {
	p, err := ForFile("x.pdf", Options{PDFFallbackPdftotext: true})
	if err != nil {
		t.Fatal(err)
	}
	if !p.(*PDFParser).FallbackPdftotext {
		t.Error("fallback option not propagated")
	}
}

func TestMarkdownParser(t *testing.T) {
	input := `# Travel Guide

Intro paragraph about the region.

## Things to Do

- Visit the coast
- Try local food

### Nightlife

Bars open late.
`
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "guide.md")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "guide.md" {
		t.Errorf("name = %q", doc.Name)
	}

	want := []struct {
		text string
		size float64
		bold bool
	}{
		{"Travel Guide", 24, true},
		{"Intro paragraph about the region.", 11, false},
		{"Things to Do", 18, true},
		{"", 11, false},
		{"Nightlife", 14, true},
		{"Bars open late.", 11, false},
	}
	if len(doc.Spans) != len(want) {
		t.Fatalf("expected %d spans, got %d: %+v", len(want), len(doc.Spans), doc.Spans)
	}
	for i, w := range want {
		s := doc.Spans[i]
		if w.text != "" && s.Text != w.text {
			t.Errorf("span %d text = %q, want %q", i, s.Text, w.text)
		}
		if s.FontSize != w.size || s.Bold() != w.bold {
			t.Errorf("span %d = size %v bold %v, want %v %v", i, s.FontSize, s.Bold(), w.size, w.bold)
		}
		if s.Page != 1 {
			t.Errorf("span %d page = %d", i, s.Page)
		}
	}
	if !strings.Contains(doc.Spans[3].Text, "Visit the coast") || !strings.Contains(doc.Spans[3].Text, "Try local food") {
		t.Errorf("list span = %q", doc.Spans[3].Text)
	}
}

func TestHTMLParser(t *testing.T) {
	input := `<html><head><title>Recipes</title></head><body>
<nav>skip me</nav>
<h1>Dinner</h1>
<p>Vegetarian   options for a   buffet.</p>
<h2>Sides</h2>
<p><strong>Falafel</strong></p>
<script>var x = 1;</script>
</body></html>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input), "r.html")
	if err != nil {
		t.Fatal(err)
	}
	want := []doctree.Span{
		{Text: "Recipes", FontSize: 26, FontWeight: doctree.WeightBold},
		{Text: "Dinner", FontSize: 24, FontWeight: doctree.WeightBold},
		{Text: "Vegetarian options for a buffet.", FontSize: 11, FontWeight: doctree.WeightNormal},
		{Text: "Sides", FontSize: 18, FontWeight: doctree.WeightBold},
		{Text: "Falafel", FontSize: 11, FontWeight: doctree.WeightBold},
	}
	if len(doc.Spans) != len(want) {
		t.Fatalf("expected %d spans, got %d: %+v", len(want), len(doc.Spans), doc.Spans)
	}
	for i, w := range want {
		s := doc.Spans[i]
		if s.Text != w.Text || s.FontSize != w.FontSize || s.FontWeight != w.FontWeight {
			t.Errorf("span %d = %+v, want %+v", i, s, w)
		}
	}
}

func TestTextParser(t *testing.T) {
	input := "First paragraph\ncontinues here.\n\nSecond paragraph.\fThird on page two.\n"
	doc, err := (&TextParser{}).Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Spans) != 3 {
		t.Fatalf("expected 3 spans, got %d: %+v", len(doc.Spans), doc.Spans)
	}
	if doc.Spans[0].Text != "First paragraph\ncontinues here." {
		t.Errorf("span 0 = %q", doc.Spans[0].Text)
	}
	if doc.Spans[1].Page != 1 || doc.Spans[2].Page != 2 {
		t.Errorf("pages = %d, %d", doc.Spans[1].Page, doc.Spans[2].Page)
	}
	for _, s := range doc.Spans {
		if s.FontSize != 0 {
			t.Errorf("text spans should have unknown size, got %v", s.FontSize)
		}
	}
	if doc.Pages() != 2 {
		t.Errorf("Pages() = %d", doc.Pages())
	}
}

func TestTextParserNormalizes(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader("ﬁnance report"), "n.txt")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Spans[0].Text != "finance report" {
		t.Errorf("expected NFKC ligature folding, got %q", doc.Spans[0].Text)
	}
}

func TestCSVParser(t *testing.T) {
	var b strings.Builder
	b.WriteString("city,country\n")
	for i := 0; i < 25; i++ {
		b.WriteString("Nice,France\n")
	}
	doc, err := (&CSVParser{}).Parse(strings.NewReader(b.String()), "cities.csv")
	if err != nil {
		t.Fatal(err)
	}
	// 2 labels + 25 rows
	if len(doc.Spans) != 27 {
		t.Fatalf("expected 27 spans, got %d", len(doc.Spans))
	}
	if doc.Spans[0].Text != "Rows 2-21" || !doc.Spans[0].Bold() || doc.Spans[0].FontSize != 14 {
		t.Errorf("first label = %+v", doc.Spans[0])
	}
	if doc.Spans[1].Text != "city: Nice, country: France" {
		t.Errorf("row = %q", doc.Spans[1].Text)
	}
	if doc.Spans[21].Text != "Rows 22-26" || doc.Spans[21].Page != 2 {
		t.Errorf("second label = %+v", doc.Spans[21])
	}
}

func TestCSVParserEmpty(t *testing.T) {
	doc, err := (&CSVParser{}).Parse(strings.NewReader(""), "empty.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Spans) != 0 {
		t.Errorf("expected no spans, got %d", len(doc.Spans))
	}
}

func glyphs(s string, x, y float64, font string, size float64) []pdflib.Text {
	var out []pdflib.Text
	for _, r := range s {
		out = append(out, pdflib.Text{Font: font, FontSize: size, X: x, Y: y, W: size * 0.5, S: string(r)})
		x += size * 0.5
	}
	return out
}

func TestGroupGlyphs(t *testing.T) {
	var in []pdflib.Text
	in = append(in, glyphs("Intro", 72, 700, "Helvetica-Bold", 18)...)
	in = append(in, glyphs("Body", 72, 650, "Helvetica", 11)...)
	// gap on the same line becomes a space
	in = append(in, glyphs("text", 72+4*5.5+10, 650, "Helvetica", 11)...)

	spans := groupGlyphs(3, in)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].Text != "Intro" || !spans[0].Bold() || spans[0].FontSize != 18 || spans[0].Page != 3 {
		t.Errorf("span 0 = %+v", spans[0])
	}
	if spans[1].Text != "Body text" || spans[1].Bold() {
		t.Errorf("span 1 = %+v", spans[1])
	}
	if spans[0].BBox == nil || spans[0].BBox[0] != 72 || spans[0].BBox[2] != 72+5*9 {
		t.Errorf("bbox = %v", spans[0].BBox)
	}
}

func TestGroupGlyphsSkipsBlank(t *testing.T) {
	spans := groupGlyphs(1, glyphs("   ", 0, 0, "F", 10))
	if len(spans) != 0 {
		t.Errorf("expected no spans, got %+v", spans)
	}
}

func TestPlainTextSpans(t *testing.T) {
	spans := plainTextSpans("Title line\n\n  body  \fsecond page\n")
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	if spans[1].Text != "body" || spans[1].Page != 1 {
		t.Errorf("span 1 = %+v", spans[1])
	}
	if spans[2].Page != 2 || spans[2].FontSize != 0 {
		t.Errorf("span 2 = %+v", spans[2])
	}
}

func TestDOCXHelpers(t *testing.T) {
	para := &docx.Paragraph{
		Properties: &docx.ParagraphProperties{Style: &docx.Style{Val: "Heading2"}},
		Children: []interface{}{
			&docx.Run{
				RunProperties: &docx.RunProperties{
					Fonts: &docx.RunFonts{ASCII: "Calibri"},
					Size:  &docx.Size{Val: "32"},
				},
				Children: []interface{}{&docx.Text{Text: "Getting "}},
			},
			&docx.Run{
				RunProperties: &docx.RunProperties{Bold: &docx.Bold{}},
				Children:      []interface{}{&docx.Text{Text: "Started "}},
			},
		},
	}
	if got := docxParagraphText(para); got != "Getting Started" {
		t.Errorf("text = %q", got)
	}
	runs := docxRuns(para)
	font, size := docxFirstRunFont(runs)
	if font != "Calibri" || size != 16 {
		t.Errorf("font = %q size = %v", font, size)
	}
	if !docxAnyBold(runs) {
		t.Error("expected bold")
	}
	if lvl := docxHeadingLevel(para); lvl != 2 {
		t.Errorf("heading level = %d", lvl)
	}

	plain := &docx.Paragraph{}
	if f, s := docxFirstRunFont(docxRuns(plain)); f != "Unknown" || s != 12 {
		t.Errorf("defaults = %q %v", f, s)
	}
	if docxHeadingLevel(plain) != 0 {
		t.Error("plain paragraph should have no heading level")
	}
}
