package classify

import (
	"fmt"
	"strings"
)

const HeadingPrompt = `Decide whether the following line of text, taken from a PDF or office document, is a section heading or ordinary body text.

Rules:
- Headings are short, name a topic, and usually lack terminal punctuation
- Numbered titles ("2.1 Scope", "IV. Results") are headings
- Page numbers, running headers, captions and sentences are body text
- "confidence" is your probability that "label" is correct, from 0 to 1

Respond with ONLY a JSON object of the form {"label": "heading" | "body", "confidence": <number>}, no other text.`

const predictionSchema = `{
  "type": "object",
  "required": ["label", "confidence"],
  "properties": {
    "label": {"enum": ["heading", "body"]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

// BuildHeadingPrompt creates the full prompt for classifying one line.
func BuildHeadingPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString(HeadingPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Line: %q\n", truncate(text, 500)))
	return sb.String()
}
