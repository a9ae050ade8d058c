package doctree

import (
	"fmt"
	"strings"
	"time"
)

// FontWeight is the weight reported by the extractor for a span.
type FontWeight string

const (
	WeightNormal FontWeight = "normal"
	WeightBold   FontWeight = "bold"
)

// Span is one positioned, font-annotated text fragment.
// FontSize 0 means the extractor could not report a size.
type Span struct {
	Page       int         `json:"page" bson:"page" yaml:"page"`
	Text       string      `json:"text" bson:"text" yaml:"text"`
	FontName   string      `json:"font_name,omitempty" bson:"font_name,omitempty" yaml:"font_name,omitempty"`
	FontSize   float64     `json:"font_size" bson:"font_size" yaml:"font_size"`
	FontWeight FontWeight  `json:"font_weight" bson:"font_weight" yaml:"font_weight"`
	BBox       *[4]float64 `json:"bbox,omitempty" bson:"bbox,omitempty" yaml:"bbox,omitempty"`
}

// Bold reports whether the span was rendered in a bold face.
func (s Span) Bold() bool { return s.FontWeight == WeightBold }

// Level is a heading level. The zero value means "not a heading".
type Level int

const (
	LevelNone Level = iota
	H1
	H2
	H3
)

func (l Level) String() string {
	switch l {
	case H1:
		return "H1"
	case H2:
		return "H2"
	case H3:
		return "H3"
	}
	return ""
}

// ParseLevel accepts "H1".."H3" (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "H1":
		return H1, nil
	case "H2":
		return H2, nil
	case "H3":
		return H3, nil
	}
	return LevelNone, fmt.Errorf("unknown heading level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	if l == LevelNone {
		return []byte(""), nil
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*l = LevelNone
		return nil
	}
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Heading is a span promoted to an outline entry.
type Heading struct {
	Level Level  `json:"level" bson:"level" yaml:"level"`
	Text  string `json:"text" bson:"text" yaml:"text"`
	Page  int    `json:"page" bson:"page" yaml:"page"`
}

// Outline is the title plus headings of one document, in span order.
type Outline struct {
	Title    string    `json:"title" bson:"title" yaml:"title"`
	Headings []Heading `json:"outline" bson:"outline" yaml:"outline"`
}

// Section is the contiguous page range owned by one heading.
type Section struct {
	ID        string `json:"section_id" bson:"section_id" yaml:"section_id"`
	Level     Level  `json:"level" bson:"level" yaml:"level"`
	Text      string `json:"text" bson:"text" yaml:"text"`
	PageStart int    `json:"page_start" bson:"page_start" yaml:"page_start"`
	PageEnd   int    `json:"page_end" bson:"page_end" yaml:"page_end"`
}

// Document is a named sequence of spans as produced by a parser.
type Document struct {
	Name  string
	Spans []Span
}

// Pages returns the highest page number among the spans.
func (d *Document) Pages() int {
	return MaxPage(d.Spans)
}

// MaxPage returns the highest page number in spans, or 0 when empty.
func MaxPage(spans []Span) int {
	max := 0
	for _, s := range spans {
		if s.Page > max {
			max = s.Page
		}
	}
	return max
}

// Meta summarizes a stored document.
type Meta struct {
	Name        string    `json:"name" bson:"pdf_name" yaml:"name"`
	Title       string    `json:"title" bson:"title" yaml:"title"`
	ContentHash string    `json:"content_hash" bson:"content_hash" yaml:"content_hash"`
	Pages       int       `json:"pages" bson:"pages" yaml:"pages"`
	Headings    int       `json:"headings" bson:"headings" yaml:"headings"`
	Sections    int       `json:"sections" bson:"sections" yaml:"sections"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" yaml:"created_at"`
}
