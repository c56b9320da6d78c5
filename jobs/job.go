// Package jobs tracks conversion jobs created by the HTTP service.
//
// A job moves through pending, processing and then completed or failed.
// Stores hand out copies, so callers modify a Job and write it back with
// Update.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for an unknown job ID.
var ErrNotFound = errors.New("job not found")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// File is an uploaded source document.
type File struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Result is the outcome for one file.
type Result struct {
	OriginalName string `json:"original_name"`
	WordFile     string `json:"word_file,omitempty"`
	DisplayName  string `json:"display_name"`
	Status       Status `json:"status"`
	Error        string `json:"error,omitempty"`
	Warnings     string `json:"warnings,omitempty"`
}

// Job is one upload and its conversion progress.
type Job struct {
	ID     string `json:"job_id"`
	Status Status `json:"status"`
	Files  []File `json:"files"`

	Total     int `json:"total"`
	Processed int `json:"processed"`

	// CurrentIndex is 1-based while processing
	CurrentIndex int    `json:"current_index"`
	CurrentFile  string `json:"current_file"`

	Results []Result `json:"results"`
	Error   string   `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a pending job for files with a fresh ID.
func New(files []File) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Files:     files,
		Total:     len(files),
		Results:   []Result{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start marks the job as processing.
func (j *Job) Start() {
	j.Status = StatusProcessing
	j.Error = ""
}

// Begin records the file being processed. index is 1-based.
func (j *Job) Begin(index int, filename string) {
	j.CurrentIndex = index
	j.CurrentFile = filename
}

// Record appends the result of the current file.
func (j *Job) Record(r Result) {
	j.Results = append(j.Results, r)
	j.Processed = len(j.Results)
}

// Finish marks the job completed, or failed when err is non-nil.
func (j *Job) Finish(err error) {
	if err != nil {
		j.Status = StatusFailed
		j.Error = err.Error()
		return
	}
	j.Status = StatusCompleted
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	c := *j
	c.Files = append([]File(nil), j.Files...)
	c.Results = append([]Result{}, j.Results...)
	return &c
}

// Store persists jobs.
type Store interface {
	// Create stores a new job. Creating an existing ID is an error.
	Create(ctx context.Context, job *Job) error

	// Get returns a copy of the job, or ErrNotFound.
	Get(ctx context.Context, id string) (*Job, error)

	// Update replaces a stored job, or returns ErrNotFound.
	Update(ctx context.Context, job *Job) error

	Close() error
}

// Open returns the store named by kind: "memory" or "sqlite" (with a
// database path).
func Open(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, errors.New("unknown job store " + kind)
	}
}
