package services

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"bookgenre/internal/models"
	"bookgenre/pkg/genre"
)

type mockPredictor struct {
	mock.Mock
}

func (m *mockPredictor) Predict(ctx context.Context, in genre.Input) (*genre.Prediction, error) {
	args := m.Called(ctx, in)
	pred, _ := args.Get(0).(*genre.Prediction)
	return pred, args.Error(1)
}

type mockBookStore struct {
	mock.Mock
}

func (m *mockBookStore) CreateBook(ctx context.Context, book *models.Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *mockBookStore) GetBook(ctx context.Context, id string) (*models.Book, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*models.Book)
	return b, args.Error(1)
}

func (m *mockBookStore) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	args := m.Called(ctx, filter)
	books, _ := args.Get(0).([]*models.Book)
	return books, args.Error(1)
}

func (m *mockBookStore) UpdateUserCategory(ctx context.Context, id, category string) (*models.Book, error) {
	args := m.Called(ctx, id, category)
	b, _ := args.Get(0).(*models.Book)
	return b, args.Error(1)
}

func (m *mockBookStore) UpdatePrediction(ctx context.Context, id, category string, scores models.Scores) error {
	return m.Called(ctx, id, category, scores).Error(0)
}

func (m *mockBookStore) CountBooks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockBookStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockJobClient struct {
	mock.Mock
}

func (m *mockJobClient) Enqueue(ctx context.Context, task *asynq.Task, bookID string, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, bookID)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

func (m *mockJobClient) EnqueueClassifyJob(ctx context.Context, bookID string) (string, error) {
	args := m.Called(ctx, bookID)
	return args.String(0), args.Error(1)
}

func (m *mockJobClient) Close() error {
	return m.Called().Error(0)
}
