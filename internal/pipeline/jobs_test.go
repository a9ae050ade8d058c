package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/docscope/internal/doctree"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestSpanHash(t *testing.T) {
	a := []doctree.Span{{Text: "hello"}, {Text: "world"}}
	b := []doctree.Span{{Text: "hello", FontSize: 20}, {Text: "world", Page: 3}}
	if SpanHash(a) != SpanHash(b) {
		t.Error("span hash should depend on text only")
	}
	if SpanHash(a) != ContentHashHex([]byte("hello\nworld")) {
		t.Error("span hash should hash newline-joined text")
	}
	c := []doctree.Span{{Text: "hello world"}}
	if SpanHash(a) == SpanHash(c) {
		t.Error("different span boundaries should hash differently")
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("", "guide.pdf", []byte("x"), false)
	if job.ID == "" {
		t.Fatal("expected job id")
	}
	if job.Name != "guide.pdf" {
		t.Errorf("name should default to filename, got %q", job.Name)
	}
	if job.Status != StatusQueued {
		t.Errorf("status = %q", job.Status)
	}
	other := NewJob("custom", "guide.pdf", nil, true)
	if other.ID == job.ID {
		t.Error("job ids should be unique")
	}
	if other.Name != "custom" || !other.Force {
		t.Errorf("job = %+v", other.Snapshot())
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing"},
		{StatusDetecting, "detecting"},
		{StatusSegmenting, "segmenting"},
		{StatusStoring, "storing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
	if !job.Status.Done() {
		t.Error("completed should be terminal")
	}
	if StatusStoring.Done() {
		t.Error("storing should not be terminal")
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("parse failed")
	job.AddError("store failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "parse failed" {
		t.Errorf("expected first error %q, got %q", "parse failed", snap.Progress.Errors[0])
	}
}

func TestJob_Progress(t *testing.T) {
	job := &Job{ID: "progress-test", UpdatedAt: time.Now()}
	job.SetParsed(40, 3, "abc")
	job.SetOutline("Guide", 5)
	job.SetSections(5)

	snap := job.Snapshot()
	if snap.Progress.Spans != 40 || snap.Progress.Pages != 3 {
		t.Errorf("spans/pages = %d/%d", snap.Progress.Spans, snap.Progress.Pages)
	}
	if snap.Title != "Guide" || snap.Progress.Headings != 5 || snap.Progress.Sections != 5 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.ContentHash != "abc" {
		t.Errorf("hash = %q", snap.ContentHash)
	}
}

func TestJob_MarkDuplicate(t *testing.T) {
	job := &Job{ID: "dup-test"}
	job.MarkDuplicate("first.pdf")
	snap := job.Snapshot()
	if snap.Status != StatusDupSkipped || snap.Duplicate != "first.pdf" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestJob_FileData(t *testing.T) {
	job := &Job{ID: "data-test"}
	data := []byte("file content here")
	job.SetFileData(data)
	got := job.FileData()
	if string(got) != string(data) {
		t.Errorf("expected file data %q, got %q", data, got)
	}
	job.releaseFileData()
	if job.FileData() != nil {
		t.Error("expected file data to be released")
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d", store.Len())
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
