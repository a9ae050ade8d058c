package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgallion1/docscope/internal/doctree"
)

func TestOutputToJSON(t *testing.T) {
	var buf bytes.Buffer
	o := doctree.Outline{Title: "Guide", Headings: []doctree.Heading{{Level: doctree.H1, Text: "Intro", Page: 1}}}
	if err := outputTo(&buf, OutputFormatJSON, o); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{`"title": "Guide"`, `"level": "H1"`, `"page": 1`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %s:\n%s", want, got)
		}
	}
}

func TestOutputToYAML(t *testing.T) {
	var buf bytes.Buffer
	o := doctree.Outline{Title: "Guide", Headings: []doctree.Heading{{Level: doctree.H2, Text: "Setup", Page: 3}}}
	if err := outputTo(&buf, OutputFormatYAML, o); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{"title: Guide", "level: H2", "text: Setup", "page: 3"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestOutputToUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := outputTo(&buf, OutputFormat("xml"), struct{}{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
