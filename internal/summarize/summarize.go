package summarize

import (
	"strings"

	"github.com/dgallion1/docscope/internal/textutil"
)

// DefaultSentences is the summary length used when none is configured.
const DefaultSentences = 2

// Method records how a summary was produced.
type Method string

const (
	MethodRanked   Method = "textrank"
	MethodFallback Method = "fallback"
)

// Summary is an extractive summary of one text. Err holds the ranker
// failure when Method is MethodFallback.
type Summary struct {
	Text   string
	Method Method
	Err    error
}

// Summarizer selects the most central sentences of a text, falling back to
// its leading sentences when ranking fails.
type Summarizer struct {
	ranker    Ranker
	sentences int
}

// New returns a summarizer. A nil ranker uses TextRank.
func New(r Ranker, sentences int) *Summarizer {
	if r == nil {
		r = NewTextRank()
	}
	if sentences <= 0 {
		sentences = DefaultSentences
	}
	return &Summarizer{ranker: r, sentences: sentences}
}

// Name identifies the primary method in result metadata.
func (s *Summarizer) Name() string { return s.ranker.Name() }

// Summarize returns up to the configured number of sentences of text.
// The result is non-empty whenever text is non-empty.
func (s *Summarizer) Summarize(text string) Summary {
	sentences := textutil.SplitSentences(text)
	if len(sentences) > 0 && len(sentences) <= s.sentences {
		return Summary{Text: strings.Join(sentences, " "), Method: MethodRanked}
	}

	idx, err := s.ranker.Rank(sentences, s.sentences)
	if err == nil && len(idx) == 0 {
		err = ErrNoSentences
	}
	if err != nil {
		return Summary{Text: Fallback(text, s.sentences), Method: MethodFallback, Err: err}
	}

	picked := make([]string, 0, len(idx))
	for _, i := range idx {
		if i >= 0 && i < len(sentences) {
			picked = append(picked, sentences[i])
		}
	}
	return Summary{Text: strings.Join(picked, " "), Method: MethodRanked}
}

// Fallback returns the first n period-delimited fragments of text, joined
// and terminated with a period. Text without any fragment is returned
// trimmed, or unchanged when trimming would empty it.
func Fallback(text string, n int) string {
	var frags []string
	for _, f := range strings.Split(text, ".") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		frags = append(frags, f)
		if len(frags) == n {
			break
		}
	}
	if len(frags) == 0 {
		if t := strings.TrimSpace(text); t != "" {
			return t
		}
		return text
	}
	return strings.Join(frags, ". ") + "."
}
