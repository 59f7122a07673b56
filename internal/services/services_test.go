package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookgenre/internal/models"
	"bookgenre/internal/store"
	"bookgenre/pkg/genre"
)

type loaded bool

func (l loaded) Loaded() bool { return bool(l) }

func dunePrediction(t *testing.T) *genre.Prediction {
	t.Helper()
	enc, err := genre.NewLabelEncoder([]string{"Fantasy", "Mystery", "Romance", "Science Fiction", "Thriller"})
	require.NoError(t, err)
	return genre.Normalize(genre.ClassScores{0.05, 0.03, 0.02, 0.85, 0.05}, enc)
}

var dune = genre.Input{Title: "Dune", Authors: "Frank Herbert", Description: "A desert planet and a noble family."}

func TestPredictionServiceShortCircuitsEmptyDescription(t *testing.T) {
	p := new(mockPredictor)
	svc := NewPredictionService(p, nil)

	for _, desc := range []string{"", "   \n"} {
		pred, err := svc.Predict(context.Background(), genre.Input{Title: "Dune", Authors: "Frank Herbert", Description: desc})
		require.NoError(t, err)
		assert.Equal(t, genre.FlatResult{Genre: "Unknown", Scores: []float64{}}, pred.Flat())
	}
	p.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestPredictionServicePredicts(t *testing.T) {
	p := new(mockPredictor)
	want := dunePrediction(t)
	p.On("Predict", mock.Anything, dune).Return(want, nil).Once()

	pred, err := NewPredictionService(p, loaded(true)).Predict(context.Background(), dune)
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", pred.Genre)
	p.AssertExpectations(t)
}

func TestPredictionServicePropagatesModelUnavailable(t *testing.T) {
	p := new(mockPredictor)
	p.On("Predict", mock.Anything, dune).Return(nil, fmt.Errorf("%w: %w", genre.ErrModelUnavailable, genre.ErrArtifactLoad))

	_, err := NewPredictionService(p, nil).Predict(context.Background(), dune)
	assert.ErrorIs(t, err, genre.ErrModelUnavailable)
}

func TestPredictionServiceReady(t *testing.T) {
	assert.True(t, NewPredictionService(nil, nil).Ready())
	assert.False(t, NewPredictionService(nil, loaded(false)).Ready())
	assert.True(t, NewPredictionService(nil, loaded(true)).Ready())
}

func TestAddBookStoresPrediction(t *testing.T) {
	books := new(mockBookStore)
	p := new(mockPredictor)
	p.On("Predict", mock.Anything, dune).Return(dunePrediction(t), nil)
	books.On("CreateBook", mock.Anything, mock.MatchedBy(func(b *models.Book) bool {
		return b.MLCategory == "Science Fiction" && len(b.MLScores) == 5 && b.ID != ""
	})).Return(nil)

	svc := NewBookService(books, NewPredictionService(p, nil), nil)
	book, err := svc.AddBook(context.Background(), AddBookParams{
		Title: " Dune ", Author: "Frank Herbert", Description: "A desert planet and a noble family.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Len(t, book.ID, 36)
	books.AssertExpectations(t)
}

func TestAddBookKeepsDefaultsWhenModelFails(t *testing.T) {
	books := new(mockBookStore)
	p := new(mockPredictor)
	p.On("Predict", mock.Anything, mock.Anything).Return(nil, genre.ErrModelUnavailable)
	books.On("GetBook", mock.Anything, "b-1").Return(nil, fmt.Errorf("book b-1: %w", store.ErrNotFound))
	books.On("CreateBook", mock.Anything, mock.MatchedBy(func(b *models.Book) bool {
		return b.ID == "b-1" && b.MLCategory == "Unknown" && len(b.MLScores) == 0 && b.MLScores != nil
	})).Return(nil)

	svc := NewBookService(books, NewPredictionService(p, nil), nil)
	book, err := svc.AddBook(context.Background(), AddBookParams{
		ID: "b-1", Title: "Dune", Author: "Frank Herbert", Description: "desert",
	})
	require.NoError(t, err)
	assert.Equal(t, "Unknown", book.MLCategory)
	books.AssertExpectations(t)
}

func TestAddBookValidation(t *testing.T) {
	books := new(mockBookStore)
	svc := NewBookService(books, NewPredictionService(new(mockPredictor), nil), nil)

	_, err := svc.AddBook(context.Background(), AddBookParams{Title: "Dune", Author: "Frank Herbert"})
	assert.ErrorIs(t, err, models.ErrValidation)
	books.AssertNotCalled(t, "CreateBook", mock.Anything, mock.Anything)
}

func TestSetCategory(t *testing.T) {
	books := new(mockBookStore)
	books.On("UpdateUserCategory", mock.Anything, "b-1", "Fantasy").Return(&models.Book{ID: "b-1", UsrCategory: "Fantasy"}, nil)
	svc := NewBookService(books, nil, nil)

	b, err := svc.SetCategory(context.Background(), "b-1", " Fantasy ")
	require.NoError(t, err)
	assert.Equal(t, "Fantasy", b.Category())

	_, err = svc.SetCategory(context.Background(), "b-1", "")
	assert.ErrorIs(t, err, models.ErrValidation)
	books.AssertExpectations(t)
}

func TestReclassify(t *testing.T) {
	books := new(mockBookStore)
	p := new(mockPredictor)
	stored := &models.Book{ID: "b-1", Title: "Dune", Author: "Frank Herbert", Description: "A desert planet and a noble family."}
	books.On("GetBook", mock.Anything, "b-1").Return(stored, nil)
	p.On("Predict", mock.Anything, dune).Return(dunePrediction(t), nil)
	books.On("UpdatePrediction", mock.Anything, "b-1", "Science Fiction", mock.AnythingOfType("models.Scores")).Return(nil)

	svc := NewBookService(books, NewPredictionService(p, nil), nil)
	b, err := svc.Reclassify(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", b.MLCategory)
	books.AssertExpectations(t)
}

func TestReclassifyFailsWhenModelUnavailable(t *testing.T) {
	books := new(mockBookStore)
	p := new(mockPredictor)
	books.On("GetBook", mock.Anything, "b-1").Return(&models.Book{ID: "b-1", Description: "x"}, nil)
	p.On("Predict", mock.Anything, mock.Anything).Return(nil, genre.ErrModelUnavailable)

	_, err := NewBookService(books, NewPredictionService(p, nil), nil).Reclassify(context.Background(), "b-1")
	assert.ErrorIs(t, err, genre.ErrModelUnavailable)
	books.AssertNotCalled(t, "UpdatePrediction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnqueueReclassify(t *testing.T) {
	books := new(mockBookStore)
	jobs := new(mockJobClient)
	books.On("GetBook", mock.Anything, "b-1").Return(&models.Book{ID: "b-1"}, nil)
	books.On("GetBook", mock.Anything, "nope").Return(nil, store.ErrNotFound)
	jobs.On("EnqueueClassifyJob", mock.Anything, "b-1").Return("task-1", nil)

	svc := NewBookService(books, nil, jobs)
	id, err := svc.EnqueueReclassify(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)

	_, err = svc.EnqueueReclassify(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = NewBookService(books, nil, nil).EnqueueReclassify(context.Background(), "b-1")
	assert.ErrorIs(t, err, ErrJobsDisabled)
	jobs.AssertNumberOfCalls(t, "EnqueueClassifyJob", 1)
}

func TestSeed(t *testing.T) {
	books := new(mockBookStore)
	books.On("CountBooks", mock.Anything).Return(0, nil).Once()
	books.On("CreateBook", mock.Anything, mock.AnythingOfType("*models.Book")).Return(nil).Times(4)

	svc := NewBookService(books, nil, nil)
	n, err := svc.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	books.On("CountBooks", mock.Anything).Return(4, nil).Once()
	n, err = svc.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	books.AssertExpectations(t)
}

func TestSeedStopsOnInsertError(t *testing.T) {
	books := new(mockBookStore)
	books.On("CountBooks", mock.Anything).Return(0, nil)
	books.On("CreateBook", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	n, err := NewBookService(books, nil, nil).Seed(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, err.Error(), "Art of War")
}

func TestImportCountsOutcomes(t *testing.T) {
	books := new(mockBookStore)
	p := new(mockPredictor)
	p.On("Predict", mock.Anything, mock.Anything).Return(dunePrediction(t), nil)
	books.On("GetBook", mock.Anything, "dup").Return(&models.Book{ID: "dup"}, nil)
	books.On("CreateBook", mock.Anything, mock.Anything).Return(nil)

	svc := NewBookService(books, NewPredictionService(p, nil), nil)
	sum, err := svc.Import(context.Background(), []AddBookParams{
		{Title: "Dune", Author: "Frank Herbert", Description: "Sand."},
		{ID: "dup", Title: "Dune", Author: "Frank Herbert", Description: "Sand."},
		{Title: "No author", Description: "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Added: 1, Skipped: 1, Failed: 1}, sum)
	p.AssertNumberOfCalls(t, "Predict", 1)
	books.AssertNumberOfCalls(t, "CreateBook", 1)
}

func TestAddBookKnownIDSkipsModel(t *testing.T) {
	books := new(mockBookStore)
	p := new(mockPredictor)
	books.On("GetBook", mock.Anything, "b-1").Return(&models.Book{ID: "b-1"}, nil)

	_, err := NewBookService(books, NewPredictionService(p, nil), nil).AddBook(context.Background(), AddBookParams{
		ID: "b-1", Title: "Dune", Author: "Frank Herbert", Description: "desert",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrDuplicate)
	p.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
	books.AssertNotCalled(t, "CreateBook", mock.Anything, mock.Anything)
}

func TestImportStopsOnStoreError(t *testing.T) {
	books := new(mockBookStore)
	p := new(mockPredictor)
	p.On("Predict", mock.Anything, mock.Anything).Return(dunePrediction(t), nil)
	books.On("CreateBook", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	sum, err := NewBookService(books, NewPredictionService(p, nil), nil).Import(context.Background(), []AddBookParams{
		{Title: "A", Author: "B", Description: "C"},
		{Title: "D", Author: "E", Description: "F"},
	})
	require.Error(t, err)
	assert.Equal(t, ImportSummary{}, sum)
	books.AssertNumberOfCalls(t, "CreateBook", 1)
}
