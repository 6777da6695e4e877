package domain

import (
	"fmt"
	"time"
)

type JobStatus string

const (
	StatusStarting    JobStatus = "starting"
	StatusDownloading JobStatus = "downloading"
	StatusCompleted   JobStatus = "completed"
	StatusError       JobStatus = "error"

	// StatusNotFound is never stored; it is the tracker's reply for
	// identifiers it does not know about.
	StatusNotFound JobStatus = "not_found"
)

// IsTerminal reports whether a job in this status will never change again.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Job represents one tracked download request and its lifecycle state.
// It is mutated only by the goroutine that owns it; everyone else reads
// copies handed out by the tracker.
type Job struct {
	ID         string    `json:"id"`
	VideoID    string    `json:"video_id"`
	Quality    string    `json:"quality"`
	Status     JobStatus `json:"status"`
	Percentage float64   `json:"percentage"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename,omitempty"`
	FilePath   string    `json:"-"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// NewJobID synthesizes the identifier for a download request. Uniqueness is
// best-effort: two requests for the same video and quality within the same
// second collide, and the later one wins.
func NewJobID(videoID, quality string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d", videoID, quality, now.Unix())
}

// JobPatch carries a partial state update. Nil fields are left untouched by
// the tracker's merge.
type JobPatch struct {
	Status     *JobStatus
	Percentage *float64
	Title      *string
	Filename   *string
	FilePath   *string
	Error      *string
}

func (p *JobPatch) SetStatus(s JobStatus) { p.Status = &s }

func (p *JobPatch) SetPercentage(v float64) { p.Percentage = &v }

func (p *JobPatch) SetTitle(t string) { p.Title = &t }

func (p *JobPatch) SetFilename(f string) { p.Filename = &f }

func (p *JobPatch) SetFilePath(f string) { p.FilePath = &f }

func (p *JobPatch) SetError(e string) { p.Error = &e }
