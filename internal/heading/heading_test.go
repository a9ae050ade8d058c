package heading

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/dgallion1/docscope/internal/classify"
	"github.com/dgallion1/docscope/internal/doctree"
	"github.com/dgallion1/docscope/internal/segment"
)

type stubClassifier struct {
	mu     sync.Mutex
	calls  []string
	answer map[string]classify.Prediction
	err    error
}

func (s *stubClassifier) Name() string { return "stub" }

func (s *stubClassifier) Classify(_ context.Context, text string) (classify.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, text)
	if s.err != nil {
		return classify.Prediction{}, s.err
	}
	if p, ok := s.answer[text]; ok {
		return p, nil
	}
	return classify.Prediction{Label: classify.LabelBody, Score: 0.99}, nil
}

func span(page int, size float64, text string) doctree.Span {
	return doctree.Span{Page: page, Text: text, FontSize: size, FontWeight: doctree.WeightNormal}
}

func sampleSpans() []doctree.Span {
	return []doctree.Span{
		span(1, 20, "Annual Report"),
		span(1, 14, "Overview"),
		span(1, 12, "Background"),
		span(1, 12, "Scope"),
		span(2, 10, "body text one"),
		span(2, 10, "body text two"),
		span(2, 8, "footnote a"),
		span(3, 8, "footnote b"),
	}
}

func TestComputeThresholds_Percentiles(t *testing.T) {
	th, ok := ComputeThresholds(sampleSpans())
	if !ok {
		t.Fatal("expected thresholds")
	}
	if th.H3 != 11 {
		t.Errorf("expected H3=11, got %f", th.H3)
	}
	if th.H2 < 13.79 || th.H2 > 13.81 {
		t.Errorf("expected H2=13.8, got %f", th.H2)
	}
	if th.H1 < 15.79 || th.H1 > 15.81 {
		t.Errorf("expected H1=15.8, got %f", th.H1)
	}
}

func TestComputeThresholds_IgnoresUnknownSizes(t *testing.T) {
	if _, ok := ComputeThresholds([]doctree.Span{span(1, 0, "A"), span(2, 0, "B")}); ok {
		t.Error("expected no thresholds when no span has a size")
	}
}

func TestDetector_AssignsLevelsBySize(t *testing.T) {
	d := NewDetector(nil, 0, nil)
	headings, err := d.Classify(context.Background(), sampleSpans())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []doctree.Heading{
		{Level: doctree.H1, Text: "Annual Report", Page: 1},
		{Level: doctree.H2, Text: "Overview", Page: 1},
		{Level: doctree.H3, Text: "Background", Page: 1},
		{Level: doctree.H3, Text: "Scope", Page: 1},
	}
	if !reflect.DeepEqual(headings, want) {
		t.Errorf("expected %+v, got %+v", want, headings)
	}
}

func TestDetector_ThresholdIsInclusive(t *testing.T) {
	spans := []doctree.Span{span(1, 10, "Alpha"), span(1, 10, "Beta"), span(2, 10, "Gamma")}
	headings, err := NewDetector(nil, 0, nil).Classify(context.Background(), spans)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(headings) != 3 {
		t.Fatalf("expected 3 headings, got %d", len(headings))
	}
	for _, h := range headings {
		if h.Level != doctree.H1 {
			t.Errorf("expected H1 for size equal to threshold, got %s", h.Level)
		}
	}
}

func TestDetector_PatternOnlyFillsIn(t *testing.T) {
	spans := sampleSpans()
	spans = append(spans,
		span(3, 8, "METHODOLOGY"),
		span(3, 8, "2. Results"),
		span(3, 8, "IV. Appendix"),
		span(3, 20, "SUMMARY"),
	)
	headings, err := NewDetector(nil, 0, nil).Classify(context.Background(), spans)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	levels := map[string]doctree.Level{}
	for _, h := range headings {
		levels[h.Text] = h.Level
	}
	for _, text := range []string{"METHODOLOGY", "2. Results", "IV. Appendix"} {
		if levels[text] != doctree.H2 {
			t.Errorf("expected %q as H2, got %q", text, levels[text])
		}
	}
	if levels["SUMMARY"] != doctree.H1 {
		t.Errorf("expected size to win over pattern, got %q", levels["SUMMARY"])
	}
}

func TestDetector_NoSizesMeansNoHeadings(t *testing.T) {
	spans := []doctree.Span{span(1, 0, "INTRODUCTION"), span(1, 0, "1. Scope")}
	headings, err := NewDetector(&stubClassifier{}, 0, nil).Classify(context.Background(), spans)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(headings) != 0 {
		t.Errorf("expected no headings, got %+v", headings)
	}
}

func TestDetector_SkipsWhitespaceSpans(t *testing.T) {
	spans := []doctree.Span{span(1, 30, "   "), span(1, 10, "Title")}
	headings, err := NewDetector(nil, 0, nil).Classify(context.Background(), spans)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, h := range headings {
		if h.Text == "" {
			t.Error("expected whitespace span to be skipped")
		}
	}
}

func TestDetector_ModelRuleDefaultsToH2(t *testing.T) {
	stub := &stubClassifier{answer: map[string]classify.Prediction{
		"footnote a": {Label: classify.LabelHeading, Score: 0.95},
		"footnote b": {Label: classify.LabelHeading, Score: 0.8},
	}}
	headings, err := NewDetector(stub, 0.8, nil).Classify(context.Background(), sampleSpans())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var foundA, foundB bool
	for _, h := range headings {
		switch h.Text {
		case "footnote a":
			foundA = true
			if h.Level != doctree.H2 {
				t.Errorf("expected H2, got %s", h.Level)
			}
		case "footnote b":
			foundB = true
		}
	}
	if !foundA {
		t.Error("expected confident classifier match to become a heading")
	}
	if foundB {
		t.Error("expected score equal to threshold to be rejected")
	}
}

func TestDetector_ShortTextNeverReachesClassifier(t *testing.T) {
	stub := &stubClassifier{}
	spans := []doctree.Span{
		span(1, 12, "Big heading"),
		span(1, 12, "Another heading"),
		span(1, 12, "Third heading"),
		span(1, 8, "abc"),
		span(1, 8, "abcd"),
	}
	if _, err := NewDetector(stub, 0, nil).Classify(context.Background(), spans); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range stub.calls {
		if len([]rune(c)) < MinClassifierLength {
			t.Errorf("classifier called with short text %q", c)
		}
	}
	if len(stub.calls) != 1 || stub.calls[0] != "abcd" {
		t.Errorf("expected single call for \"abcd\", got %v", stub.calls)
	}
}

func TestDetector_ClassifierErrorPropagates(t *testing.T) {
	boom := errors.New("model offline")
	_, err := NewDetector(&stubClassifier{err: boom}, 0, nil).Detect(context.Background(), sampleSpans())
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *ClassificationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ClassificationError, got %T", err)
	}
	if !errors.Is(err, boom) {
		t.Error("expected cause to be wrapped")
	}
}

func TestTitle_LargestSpanOnFirstPage(t *testing.T) {
	spans := []doctree.Span{
		span(1, 12, "Small"),
		span(1, 14, " Report Title "),
		span(1, 14, "Second Large"),
		span(2, 30, "Huge on page two"),
	}
	if got := Title(spans); got != "Report Title" {
		t.Errorf("expected %q, got %q", "Report Title", got)
	}
	if got := Title(spans[3:]); got != "" {
		t.Errorf("expected empty title without page 1, got %q", got)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	d := NewDetector(classify.NewLexicalClassifier(), 0, nil)
	first, err := d.Detect(context.Background(), sampleSpans())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := d.Detect(context.Background(), sampleSpans())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical outlines, got %+v and %+v", first, second)
	}
	if first.Title != "Annual Report" {
		t.Errorf("expected title %q, got %q", "Annual Report", first.Title)
	}

	secsA := segment.Segment(first, sampleSpans())
	secsB := segment.Segment(second, sampleSpans())
	if len(secsA) == 0 {
		t.Fatal("expected sections")
	}
	if !reflect.DeepEqual(secsA, secsB) {
		t.Errorf("expected identical sections, got %+v and %+v", secsA, secsB)
	}
}

func TestRules_EachRuleInIsolation(t *testing.T) {
	ctx := context.Background()
	size := SizeRule{Thresholds: Thresholds{H1: 18, H2: 14, H3: 11}}
	if lvl, _ := size.Level(ctx, span(1, 14, "x"), "x"); lvl != doctree.H2 {
		t.Errorf("size rule: expected H2, got %s", lvl)
	}
	if lvl, _ := size.Level(ctx, span(1, 9, "x"), "x"); lvl != doctree.LevelNone {
		t.Errorf("size rule: expected none, got %s", lvl)
	}
	if lvl, _ := (PatternRule{}).Level(ctx, doctree.Span{}, "Intro"); lvl != doctree.LevelNone {
		t.Errorf("pattern rule: expected none for mixed case, got %s", lvl)
	}
	if lvl, _ := (ModelRule{}).Level(ctx, doctree.Span{}, "Anything"); lvl != doctree.LevelNone {
		t.Errorf("model rule without classifier: expected none, got %s", lvl)
	}
}

func TestEvaluate_PrecisionRecall(t *testing.T) {
	truth := doctree.Outline{Headings: []doctree.Heading{
		{Level: doctree.H1, Text: "Intro", Page: 1},
		{Level: doctree.H2, Text: "Scope", Page: 2},
	}}
	pred := doctree.Outline{Headings: []doctree.Heading{
		{Level: doctree.H1, Text: " Intro ", Page: 1},
		{Level: doctree.H3, Text: "Scope", Page: 2},
		{Level: doctree.H2, Text: "Extra", Page: 3},
	}}
	s := Evaluate(pred, truth)
	if s.TP != 1 || s.FP != 2 || s.FN != 1 {
		t.Fatalf("expected tp=1 fp=2 fn=1, got %+v", s)
	}
	if p := s.Precision(); p < 0.333 || p > 0.334 {
		t.Errorf("expected precision 1/3, got %f", p)
	}
	if r := s.Recall(); r < 0.499 || r > 0.501 {
		t.Errorf("expected recall 1/2, got %f", r)
	}
	if f := s.F1(); f < 0.39 || f > 0.41 {
		t.Errorf("expected f1 0.4, got %f", f)
	}
}

func boldSpan(page int, size float64, text string) doctree.Span {
	s := span(page, size, text)
	s.FontWeight = doctree.WeightBold
	return s
}

func TestStyled_RanksDistinctSizes(t *testing.T) {
	spans := []doctree.Span{
		boldSpan(1, 24, "Guide"),
		boldSpan(1, 18, "Getting There"),
		span(1, 18, "Plain large text"),
		boldSpan(2, 14, "By Train"),
		boldSpan(2, 11, "Bold body"),
		span(2, 11, "Body"),
		boldSpan(3, 24, "Appendix"),
	}
	got := Styled(spans)
	want := []struct {
		level doctree.Level
		text  string
		page  int
	}{
		{doctree.H1, "Guide", 1},
		{doctree.H2, "Getting There", 1},
		{doctree.H3, "By Train", 2},
		{doctree.H1, "Appendix", 3},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d headings, got %+v", len(want), got)
	}
	for i, w := range want {
		if got[i].Level != w.level || got[i].Text != w.text || got[i].Page != w.page {
			t.Errorf("heading %d = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestStyled_FewSizesReuseRanks(t *testing.T) {
	got := Styled([]doctree.Span{boldSpan(1, 16, "Only"), span(1, 10, "body")})
	if len(got) != 1 || got[0].Level != doctree.H1 {
		t.Fatalf("expected a single H1, got %+v", got)
	}
	// With two sizes the third rank falls back to the second, so bold body
	// text counts as H2.
	got = Styled([]doctree.Span{boldSpan(1, 16, "Top"), boldSpan(1, 10, "Lower")})
	if len(got) != 2 || got[1].Level != doctree.H2 {
		t.Fatalf("expected H1 then H2, got %+v", got)
	}
}

func TestStyled_UnknownSizes(t *testing.T) {
	got := Styled([]doctree.Span{boldSpan(1, 0, "No size")})
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
}
