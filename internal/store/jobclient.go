package store

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"bookgenre/internal/models"
	"bookgenre/internal/tasks"
)

var _ JobClient = (*AsynqJobClient)(nil)

// AsynqJobClient enqueues classification tasks and records them in the JobStore.
type AsynqJobClient struct {
	client   *asynq.Client
	jobStore JobStore
}

// NewAsynqJobClient connects to Redis with opt.
func NewAsynqJobClient(opt asynq.RedisClientOpt, js JobStore) (*AsynqJobClient, error) {
	if js == nil {
		return nil, fmt.Errorf("JobStore cannot be nil for AsynqJobClient")
	}
	return &AsynqJobClient{client: asynq.NewClient(opt), jobStore: js}, nil
}

func (jc *AsynqJobClient) Close() error {
	return jc.client.Close()
}

// Enqueue enqueues a task and records the event. A failure to record is
// logged but does not fail the call, since the task is already queued.
func (jc *AsynqJobClient) Enqueue(ctx context.Context, task *asynq.Task, bookID string, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if jc.client == nil {
		return nil, fmt.Errorf("AsynqJobClient internal client is not initialized")
	}
	info, err := jc.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		log.WithError(err).WithField("task_type", task.Type()).Error("Failed to enqueue task")
		return nil, err
	}
	log.WithFields(log.Fields{"task_type": task.Type(), "task_id": info.ID, "queue": info.Queue}).Debug("Enqueued task")

	params := JobRecordParams{
		JobID:    info.ID,
		TaskType: task.Type(),
		Payload:  task.Payload(),
		Queue:    info.Queue,
		Status:   models.JobStatusEnqueued,
		BookID:   bookID,
	}
	if err := jc.jobStore.RecordJobEnqueue(ctx, params); err != nil {
		log.WithError(err).WithField("task_id", info.ID).Error("Failed to record job enqueue event")
	}
	return info, nil
}

// EnqueueClassifyJob queues a reclassification of bookID and returns the task ID.
func (jc *AsynqJobClient) EnqueueClassifyJob(ctx context.Context, bookID string) (string, error) {
	task, err := tasks.NewClassifyBookTask(bookID)
	if err != nil {
		return "", err
	}
	info, err := jc.Enqueue(ctx, task, bookID, asynq.Queue(tasks.QueueClassify), asynq.MaxRetry(3))
	if err != nil {
		return "", fmt.Errorf("enqueue classify job for book %s: %w", bookID, err)
	}
	return info.ID, nil
}
