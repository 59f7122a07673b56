// Package worker holds the asynq task handlers.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"bookgenre/internal/models"
	"bookgenre/internal/store"
	"bookgenre/internal/tasks"
)

// Reclassifier re-runs the prediction for a stored book.
type Reclassifier interface {
	Reclassify(ctx context.Context, id string) (*models.Book, error)
}

// JobStatusUpdater records job progress.
type JobStatusUpdater interface {
	UpdateJobStatus(ctx context.Context, jobID, status, lastError string) error
}

// ClassifyDeps holds what the classify handler needs.
type ClassifyDeps struct {
	Books Reclassifier
	Jobs  JobStatusUpdater
}

// RegisterHandlers wires all task handlers into mux.
func RegisterHandlers(mux *asynq.ServeMux, deps ClassifyDeps) {
	log.WithField("task_type", tasks.TypeClassifyBook).Info("Registering task handler")
	mux.HandleFunc(tasks.TypeClassifyBook, HandleClassifyJob(deps))
}

// HandleClassifyJob reclassifies the book named in the task payload. A
// missing book or a malformed payload is not retried; a model failure is.
func HandleClassifyJob(deps ClassifyDeps) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		taskID, _ := asynq.GetTaskID(ctx)
		logger := log.WithFields(log.Fields{"task_id": taskID, "task_type": t.Type()})

		p, err := tasks.ParseClassifyBookPayload(t)
		if err != nil {
			recordStatus(ctx, deps.Jobs, taskID, models.JobStatusFailed, err)
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		logger = logger.WithField("book_id", p.BookID)
		recordStatus(ctx, deps.Jobs, taskID, models.JobStatusRunning, nil)

		book, err := deps.Books.Reclassify(ctx, p.BookID)
		if err != nil {
			recordStatus(ctx, deps.Jobs, taskID, models.JobStatusFailed, err)
			if errors.Is(err, store.ErrNotFound) {
				logger.Warn("Book no longer exists, dropping task")
				return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
			}
			logger.WithError(err).Error("Reclassification failed")
			return err
		}

		recordStatus(ctx, deps.Jobs, taskID, models.JobStatusCompleted, nil)
		logger.WithField("ml_category", book.MLCategory).Info("Book reclassified")
		return nil
	}
}

func recordStatus(ctx context.Context, js JobStatusUpdater, taskID, status string, cause error) {
	if js == nil || taskID == "" {
		return
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := js.UpdateJobStatus(ctx, taskID, status, msg); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.WithError(err).WithField("task_id", taskID).Warn("Failed to record job status")
	}
}
