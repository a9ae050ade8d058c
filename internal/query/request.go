package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData means no requested document produced a single ranked section.
var ErrNoData = errors.New("no sections found for the requested documents")

// ValidationError rejects a request before any processing starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Request asks which sections of the given documents matter to a persona
// performing a job.
type Request struct {
	Persona   string   `json:"persona" yaml:"persona"`
	Job       string   `json:"job" yaml:"job"`
	Documents []string `json:"documents" yaml:"documents"`
	TopK      int      `json:"top_k,omitempty" yaml:"top_k,omitempty"`
}

// Validate checks r against the document cardinality bounds [min, max].
func (r Request) Validate(min, max int) error {
	if strings.TrimSpace(r.Persona) == "" {
		return &ValidationError{Field: "persona", Reason: "must not be empty"}
	}
	if strings.TrimSpace(r.Job) == "" {
		return &ValidationError{Field: "job", Reason: "must not be empty"}
	}
	if n := len(r.Documents); n < min || n > max {
		return &ValidationError{
			Field:  "documents",
			Reason: fmt.Sprintf("expected between %d and %d documents, got %d", min, max, n),
		}
	}
	seen := make(map[string]bool, len(r.Documents))
	for i, d := range r.Documents {
		if strings.TrimSpace(d) == "" {
			return &ValidationError{Field: fmt.Sprintf("documents[%d]", i), Reason: "must not be blank"}
		}
		if strings.TrimSpace(d) != d {
			return &ValidationError{Field: fmt.Sprintf("documents[%d]", i), Reason: "must not have leading or trailing whitespace"}
		}
		if seen[d] {
			return &ValidationError{Field: fmt.Sprintf("documents[%d]", i), Reason: fmt.Sprintf("duplicate document %q", d)}
		}
		seen[d] = true
	}
	if r.TopK < 0 {
		return &ValidationError{Field: "top_k", Reason: "must not be negative"}
	}
	return nil
}
