package pipeline

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docscope/internal/doctree"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusDetecting  JobStatus = "detecting"
	StatusSegmenting JobStatus = "segmenting"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusDupSkipped
}

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Force    bool   `json:"force"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	Title  string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	Duplicate   string    `json:"duplicate_of,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress counts what the job produced so far.
type Progress struct {
	Spans    int      `json:"spans"`
	Pages    int      `json:"pages"`
	Headings int      `json:"headings"`
	Sections int      `json:"sections"`
	Errors   []string `json:"errors"`
}

// NewJob returns a queued job. The stored document name defaults to the
// filename.
func NewJob(name, filename string, data []byte, force bool) *Job {
	if strings.TrimSpace(name) == "" {
		name = filename
	}
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Name:      name,
		Filename:  filename,
		Force:     force,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetParsed records the span and page counts of the parsed document.
func (j *Job) SetParsed(spans, pages int, hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Spans = spans
	j.Progress.Pages = pages
	j.ContentHash = hash
	j.UpdatedAt = time.Now()
}

// SetOutline records the detected title and heading count.
func (j *Job) SetOutline(title string, headings int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
	j.Progress.Headings = headings
	j.UpdatedAt = time.Now()
}

// SetSections records the section count.
func (j *Job) SetSections(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Sections = n
	j.UpdatedAt = time.Now()
}

// MarkDuplicate ends the job as a duplicate of an already stored document.
func (j *Job) MarkDuplicate(existing string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Duplicate = existing
	j.Status = StatusDupSkipped
	j.Phase = "dedup"
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once it has been parsed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id" yaml:"job_id"`
	Name        string    `json:"name" yaml:"name"`
	Filename    string    `json:"filename" yaml:"filename"`
	Status      JobStatus `json:"status" yaml:"status"`
	Phase       string    `json:"phase" yaml:"phase"`
	Title       string    `json:"title" yaml:"title"`
	ContentHash string    `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`
	Duplicate   string    `json:"duplicate_of,omitempty" yaml:"duplicate_of,omitempty"`
	Progress    Progress  `json:"progress" yaml:"progress"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	return JobSnapshot{
		ID:          j.ID,
		Name:        j.Name,
		Filename:    j.Filename,
		Status:      j.Status,
		Phase:       j.Phase,
		Title:       j.Title,
		ContentHash: j.ContentHash,
		Duplicate:   j.Duplicate,
		Progress: Progress{
			Spans:    j.Progress.Spans,
			Pages:    j.Progress.Pages,
			Headings: j.Progress.Headings,
			Sections: j.Progress.Sections,
			Errors:   errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// SpanHash hashes the newline-joined span text, so re-encoded copies of
// the same document dedupe.
func SpanHash(spans []doctree.Span) string {
	var sb strings.Builder
	for i, s := range spans {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s.Text)
	}
	return ContentHashHex([]byte(sb.String()))
}
