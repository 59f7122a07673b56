package primary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"bookgenre/internal/models"
	"bookgenre/internal/store"
)

const jobColumns = `job_id, task_type, payload, queue, status, book_id, last_error, created_at, updated_at`

// RecordJobEnqueue inserts a background_jobs row. Recording the same job twice is not an error.
func (s *StoreImpl) RecordJobEnqueue(ctx context.Context, params store.JobRecordParams) error {
	payload := "{}"
	if len(params.Payload) > 0 {
		payload = string(params.Payload)
	}
	now := s.now()

	query := s.db.Rebind(`INSERT INTO background_jobs (` + jobColumns + `) VALUES (?, ?, ?, ?, ?, ?, '', ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		params.JobID, params.TaskType, payload, params.Queue, params.Status, params.BookID, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			log.WithField("job_id", params.JobID).Debug("Job already recorded, skipping insertion")
			return nil
		}
		return fmt.Errorf("failed to record job enqueue event for job %s: %w", params.JobID, err)
	}
	return nil
}

// UpdateJobStatus sets the status and last error of a job.
func (s *StoreImpl) UpdateJobStatus(ctx context.Context, jobID, status, lastError string) error {
	query := s.db.Rebind(`UPDATE background_jobs SET status = ?, last_error = ?, updated_at = ? WHERE job_id = ?`)
	res, err := s.db.ExecContext(ctx, query, status, lastError, s.now(), jobID)
	if err != nil {
		return fmt.Errorf("failed to update job status for job %s: %w", jobID, err)
	}
	return requireRow(res, "job", jobID)
}

// GetJob returns a job by its task ID.
func (s *StoreImpl) GetJob(ctx context.Context, jobID string) (*models.BackgroundJob, error) {
	job := &models.BackgroundJob{}
	query := s.db.Rebind(`SELECT ` + jobColumns + ` FROM background_jobs WHERE job_id = ?`)
	if err := s.db.GetContext(ctx, job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", jobID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	return job, nil
}

// ListJobs returns the most recent jobs first.
func (s *StoreImpl) ListJobs(ctx context.Context, limit, offset int) ([]*models.BackgroundJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := s.db.Rebind(`SELECT ` + jobColumns + ` FROM background_jobs ORDER BY created_at DESC, job_id LIMIT ? OFFSET ?`)
	jobs := []*models.BackgroundJob{}
	if err := s.db.SelectContext(ctx, &jobs, query, limit, max(offset, 0)); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

var _ store.JobStore = (*StoreImpl)(nil)
