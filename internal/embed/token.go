package embed

import "strings"

// EstimateTokens gives a rough token count of ~1.33 tokens per word.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// Truncate keeps the leading words of text that fit in maxTokens.
// maxTokens <= 0 disables truncation.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || EstimateTokens(text) <= maxTokens {
		return text
	}
	words := strings.Fields(text)
	keep := int(float64(maxTokens) / 1.33)
	if keep < 1 {
		keep = 1
	}
	if keep >= len(words) {
		return text
	}
	return strings.Join(words[:keep], " ")
}
