package segment

import (
	"strings"
	"testing"

	"github.com/dgallion1/docscope/internal/doctree"
)

func spansOnPages(pages ...int) []doctree.Span {
	var spans []doctree.Span
	for _, p := range pages {
		spans = append(spans, doctree.Span{Page: p, Text: "p" + string(rune('0'+p)), FontSize: 10})
	}
	return spans
}

func outlineAt(pages ...int) doctree.Outline {
	var o doctree.Outline
	for _, p := range pages {
		o.Headings = append(o.Headings, doctree.Heading{Level: doctree.H2, Text: "h", Page: p})
	}
	return o
}

func TestSegment_PageRanges(t *testing.T) {
	spans := spansOnPages(1, 2, 3, 4, 5, 6, 7, 8, 9)
	sections := Segment(outlineAt(1, 3, 7), spans)

	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	want := [][2]int{{1, 2}, {3, 6}, {7, 9}}
	for i, s := range sections {
		if s.PageStart != want[i][0] || s.PageEnd != want[i][1] {
			t.Errorf("section %d: expected pages %v, got [%d %d]", i, want[i], s.PageStart, s.PageEnd)
		}
	}
}

func TestSegment_SequentialIDs(t *testing.T) {
	o := doctree.Outline{Headings: []doctree.Heading{
		{Level: doctree.H3, Text: "a", Page: 1},
		{Level: doctree.H1, Text: "b", Page: 2},
		{Level: doctree.H2, Text: "c", Page: 2},
	}}
	sections := Segment(o, spansOnPages(1, 2, 3))
	for i, s := range sections {
		if want := string(rune('1' + i)); s.ID != want {
			t.Errorf("expected id %q, got %q", want, s.ID)
		}
		if s.Level != o.Headings[i].Level {
			t.Errorf("expected level %s, got %s", o.Headings[i].Level, s.Level)
		}
	}
}

func TestSegment_SamePageCollapses(t *testing.T) {
	sections := Segment(outlineAt(1, 3, 3, 7), spansOnPages(1, 2, 3, 4, 5, 6, 7, 8))

	if sections[1].PageStart != 3 || sections[1].PageEnd != 3 {
		t.Errorf("expected collapsed range [3 3], got [%d %d]", sections[1].PageStart, sections[1].PageEnd)
	}
	for i, s := range sections {
		if s.PageStart > s.PageEnd {
			t.Errorf("section %d: start %d after end %d", i, s.PageStart, s.PageEnd)
		}
	}
}

func TestSegment_TextIsPageRangeInOrder(t *testing.T) {
	spans := []doctree.Span{
		{Page: 1, Text: "Intro"},
		{Page: 1, Text: "first"},
		{Page: 2, Text: "second"},
		{Page: 3, Text: "Next"},
		{Page: 3, Text: "third"},
	}
	sections := Segment(outlineAt(1, 3), spans)

	if got := sections[0].Text; got != "Intro\nfirst\nsecond" {
		t.Errorf("unexpected first section text %q", got)
	}
	if got := sections[1].Text; got != "Next\nthird" {
		t.Errorf("unexpected last section text %q", got)
	}
}

func TestSegment_SharedPageSharesText(t *testing.T) {
	spans := []doctree.Span{{Page: 1, Text: "A"}, {Page: 1, Text: "B"}}
	sections := Segment(outlineAt(1, 1), spans)

	if sections[0].Text != sections[1].Text || !strings.Contains(sections[0].Text, "B") {
		t.Errorf("expected both sections to hold the whole page, got %q and %q", sections[0].Text, sections[1].Text)
	}
}

func TestSegment_EmptyOutline(t *testing.T) {
	if got := Segment(doctree.Outline{Title: "x"}, spansOnPages(1, 2)); len(got) != 0 {
		t.Errorf("expected no sections, got %d", len(got))
	}
}
