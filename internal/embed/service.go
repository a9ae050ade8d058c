package embed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/docscope/internal/doctree"
	"github.com/dgallion1/docscope/internal/stats"
)

// MinSectionLength is the stripped length (in runes) a section's text must
// exceed to be encoded.
const MinSectionLength = 10

// Service encodes persona queries and sections with one shared encoder.
// Construct it once at startup and pass it to everything that embeds text.
type Service struct {
	enc       Encoder
	maxTokens int
	latency   *stats.Latency
}

// NewService wraps enc. maxTokens bounds each input; 0 disables truncation.
// latency may be nil.
func NewService(enc Encoder, maxTokens int, latency *stats.Latency) *Service {
	return &Service{enc: enc, maxTokens: maxTokens, latency: latency}
}

// ModelID names the underlying encoder.
func (s *Service) ModelID() string { return s.enc.ModelID() }

// Dim is the vector dimension of the underlying encoder.
func (s *Service) Dim() int { return s.enc.Dim() }

// PersonaText builds the text encoded for a persona and job.
func PersonaText(persona, job string) string {
	return persona + ". " + job
}

// EncodePersona embeds "{persona}. {job}".
func (s *Service) EncodePersona(ctx context.Context, persona, job string) ([]float32, error) {
	vecs, err := s.embed(ctx, []string{PersonaText(persona, job)})
	if err != nil {
		return nil, fmt.Errorf("encode persona: %w", err)
	}
	return vecs[0], nil
}

// Eligible reports whether a section carries enough text to be encoded.
func Eligible(sec doctree.Section) bool {
	return utf8.RuneCountInString(strings.TrimSpace(sec.Text)) > MinSectionLength
}

// EncodeSections embeds the eligible sections and returns them alongside
// their vectors, in input order. Ineligible sections are dropped; an empty
// result is not an error.
func (s *Service) EncodeSections(ctx context.Context, sections []doctree.Section) ([]doctree.Section, [][]float32, error) {
	var kept []doctree.Section
	var texts []string
	for _, sec := range sections {
		if !Eligible(sec) {
			continue
		}
		kept = append(kept, sec)
		texts = append(texts, sec.Text)
	}
	if len(kept) == 0 {
		return nil, nil, nil
	}

	vecs, err := s.embed(ctx, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("encode sections: %w", err)
	}
	return kept, vecs, nil
}

func (s *Service) embed(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = Truncate(norm.NFKC.String(t), s.maxTokens)
	}

	start := time.Now()
	vecs, err := s.enc.Embed(ctx, inputs)
	if s.latency != nil {
		s.latency.Observe(time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(inputs) {
		return nil, fmt.Errorf("encoder returned %d vectors for %d inputs", len(vecs), len(inputs))
	}
	return vecs, nil
}
