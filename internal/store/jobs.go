package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tracyhilton810-ctrl/tubefetch/internal/domain"
)

const jobColumns = "id, video_id, quality, status, percentage, title, filename, file_path, error, created_at, updated_at"

// SaveJob upserts the full job record. Called on creation and on every
// status transition, so the row always reflects the last known state.
func (s *PersistentStore) SaveJob(job *domain.Job) error {
	query := `INSERT OR REPLACE INTO jobs (` + jobColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		job.ID,
		job.VideoID,
		job.Quality,
		string(job.Status),
		job.Percentage,
		job.Title,
		job.Filename,
		job.FilePath,
		job.Error,
		job.CreatedAt.Unix(),
		job.UpdatedAt.Unix(),
	)
	return err
}

// GetJob fetches one job by ID. Returns nil, nil when the row does not
// exist, mirroring the tracker's not-found reply.
func (s *PersistentStore) GetJob(id string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ? LIMIT 1`

	job, err := scanJob(s.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch job: %w", err)
	}
	return job, nil
}

// ListRecentJobs returns the newest jobs first, bounded by limit.
func (s *PersistentStore) ListRecentJobs(limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	job := &domain.Job{}
	var status string
	var createdAt, updatedAt int64

	err := row.Scan(&job.ID, &job.VideoID, &job.Quality, &status, &job.Percentage,
		&job.Title, &job.Filename, &job.FilePath, &job.Error, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	job.Status = domain.JobStatus(status)
	job.CreatedAt = time.Unix(createdAt, 0)
	job.UpdatedAt = time.Unix(updatedAt, 0)
	return job, nil
}
