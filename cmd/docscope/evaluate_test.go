package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEvaluateDirs(t *testing.T) {
	tmp := t.TempDir()
	gt := filepath.Join(tmp, "gt")
	pred := filepath.Join(tmp, "pred")

	writeFile(t, filepath.Join(gt, "a.json"), `{"title":"A","outline":[
		{"level":"H1","text":"Intro","page":1},
		{"level":"H2","text":"Scope","page":2}]}`)
	writeFile(t, filepath.Join(pred, "a.json"), `{"title":"A","outline":[
		{"level":"H1","text":"Intro ","page":1},
		{"level":"H2","text":"Scope","page":3}]}`)
	writeFile(t, filepath.Join(gt, "b.json"), `{"title":"B","outline":[{"level":"H1","text":"Only","page":1}]}`)
	writeFile(t, filepath.Join(gt, "notes.txt"), "ignored")

	report, err := evaluateDirs(pred, gt)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Files) != 1 || report.Files[0].File != "a.json" {
		t.Fatalf("files = %+v, want only a.json", report.Files)
	}
	if len(report.Missing) != 1 || report.Missing[0] != "b.json" {
		t.Errorf("missing = %v, want [b.json]", report.Missing)
	}
	c := report.Counts
	if c.TP != 1 || c.FP != 1 || c.FN != 1 {
		t.Errorf("counts = %+v, want TP=1 FP=1 FN=1", c)
	}
	if report.Precision != 0.5 || report.Recall != 0.5 || report.F1 != 0.5 {
		t.Errorf("p/r/f1 = %v/%v/%v, want 0.5 each", report.Precision, report.Recall, report.F1)
	}
}

func TestEvaluateDirsBadJSON(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "gt", "a.json"), `{"outline":[{"level":"H9","text":"x","page":1}]}`)
	writeFile(t, filepath.Join(tmp, "pred", "a.json"), `{}`)

	if _, err := evaluateDirs(filepath.Join(tmp, "pred"), filepath.Join(tmp, "gt")); err == nil {
		t.Fatal("expected error for unknown heading level")
	}
}

func TestEvaluateDirsMissingGT(t *testing.T) {
	if _, err := evaluateDirs(t.TempDir(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing ground truth dir")
	}
}
