package tasks

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// TypeClassifyBook re-runs the genre prediction for a stored book.
	TypeClassifyBook = "book:classify"

	// QueueClassify is the queue classification tasks are sent to.
	QueueClassify = "classify"
)

// ClassifyBookPayload is the payload of a TypeClassifyBook task.
type ClassifyBookPayload struct {
	BookID string `json:"book_id"`
}

// NewClassifyBookTask builds a TypeClassifyBook task for bookID.
func NewClassifyBookTask(bookID string) (*asynq.Task, error) {
	if bookID == "" {
		return nil, errors.New("book id is required")
	}
	payload, err := json.Marshal(ClassifyBookPayload{BookID: bookID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeClassifyBook, payload), nil
}

// ParseClassifyBookPayload decodes the payload of a TypeClassifyBook task.
func ParseClassifyBookPayload(t *asynq.Task) (ClassifyBookPayload, error) {
	var p ClassifyBookPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	if p.BookID == "" {
		return p, errors.New("payload has no book_id")
	}
	return p, nil
}
