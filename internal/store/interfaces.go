package store

import (
	"context"

	"github.com/hibiken/asynq"

	"bookgenre/internal/models"
)

// --- Job Client ---

type JobClient interface {
	Enqueue(ctx context.Context, task *asynq.Task, bookID string, opts ...asynq.Option) (*asynq.TaskInfo, error)
	EnqueueClassifyJob(ctx context.Context, bookID string) (string, error)
	Close() error
}

// --- Book Store ---

type BookStore interface {
	CreateBook(ctx context.Context, book *models.Book) error
	GetBook(ctx context.Context, id string) (*models.Book, error)
	ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error)
	UpdateUserCategory(ctx context.Context, id, category string) (*models.Book, error)
	UpdatePrediction(ctx context.Context, id, category string, scores models.Scores) error
	CountBooks(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
}

// --- Job Store ---

// JobRecordParams holds parameters for recording a job event.
type JobRecordParams struct {
	JobID    string
	TaskType string
	Payload  []byte
	Queue    string
	Status   string
	BookID   string
}

type JobStore interface {
	RecordJobEnqueue(ctx context.Context, params JobRecordParams) error
	UpdateJobStatus(ctx context.Context, jobID, status, lastError string) error
	GetJob(ctx context.Context, jobID string) (*models.BackgroundJob, error)
	ListJobs(ctx context.Context, limit, offset int) ([]*models.BackgroundJob, error)
}
