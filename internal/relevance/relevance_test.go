package relevance

import (
	"errors"
	"math"
	"testing"

	"github.com/dgallion1/docscope/internal/doctree"
)

func sections(n int) []doctree.Section {
	out := make([]doctree.Section, n)
	for i := range out {
		out[i] = doctree.Section{ID: string(rune('1' + i))}
	}
	return out
}

func TestCosine(t *testing.T) {
	s, err := Cosine([]float32{1, 0}, []float32{1, 0})
	if err != nil || math.Abs(s-1) > 1e-9 {
		t.Errorf("expected 1, got %f (%v)", s, err)
	}
	s, _ = Cosine([]float32{1, 0}, []float32{-2, 0})
	if math.Abs(s+1) > 1e-9 {
		t.Errorf("expected -1, got %f", s)
	}
	s, _ = Cosine([]float32{0, 0}, []float32{1, 1})
	if s != 0 {
		t.Errorf("expected 0 for zero vector, got %f", s)
	}
	if _, err := Cosine([]float32{1}, []float32{1, 2}); !errors.Is(err, ErrVectorLengthMismatch) {
		t.Errorf("expected length mismatch error, got %v", err)
	}
}

func TestTopK_KeepsBestFiveOfEight(t *testing.T) {
	scores := []float64{0.1, 0.9, 0.3, 0.8, 0.5, 0.2, 0.7, 0.4}
	got := TopK("doc.pdf", sections(8), scores, 0)

	if len(got) != DefaultTopK {
		t.Fatalf("expected %d results, got %d", DefaultTopK, len(got))
	}
	wantIDs := []string{"2", "4", "7", "5", "8"}
	for i, s := range got {
		if s.Section.ID != wantIDs[i] {
			t.Errorf("rank %d: expected section %s, got %s", i+1, wantIDs[i], s.Section.ID)
		}
		if s.Rank != i+1 {
			t.Errorf("expected rank %d, got %d", i+1, s.Rank)
		}
		if s.Document != "doc.pdf" {
			t.Errorf("expected document doc.pdf, got %s", s.Document)
		}
	}
}

func TestTopK_FewerSectionsThanK(t *testing.T) {
	got := TopK("d", sections(3), []float64{0.2, 0.5, 0.1}, 5)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[0].Section.ID != "2" || got[2].Rank != 3 {
		t.Errorf("unexpected ranking %+v", got)
	}
}

func TestTopK_TiesKeepSectionOrder(t *testing.T) {
	got := TopK("d", sections(4), []float64{0.5, 0.5, 0.9, 0.5}, 3)
	want := []string{"3", "1", "2"}
	for i, s := range got {
		if s.Section.ID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], s.Section.ID)
		}
	}
}

func TestRank_ScoresAgainstPersona(t *testing.T) {
	persona := []float32{1, 0}
	vecs := [][]float32{{0, 1}, {1, 0.1}, {-1, 0}}
	got, err := Rank("d", persona, sections(3), vecs, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Section.ID != "2" || got[1].Section.ID != "1" {
		t.Errorf("unexpected ranking %+v", got)
	}
	for _, s := range got {
		if s.Score < -1 || s.Score > 1 {
			t.Errorf("score out of range: %f", s.Score)
		}
	}
}
