package textutil

import (
	"strings"
	"unicode"
)

// Words lower-cases text and returns its letter/digit runs with English
// stop words removed.
func Words(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopWords[f] {
			out = append(out, f)
		}
	}
	return out
}

// SplitSentences does basic sentence splitting on . ! ? followed by
// whitespace. Line breaks inside a sentence are folded into spaces.
func SplitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")

	var sentences []string
	var current strings.Builder
	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

var stopWords = func() map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(`a an and are as at be but by for from has have he her his i
		in into is it its of on or our she so that the their them there these they this to
		was we were what when which who will with you your`) {
		m[w] = true
	}
	return m
}()
