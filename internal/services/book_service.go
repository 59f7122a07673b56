package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"bookgenre/internal/models"
	"bookgenre/internal/store"
	"bookgenre/pkg/genre"
)

// ErrJobsDisabled is returned when background jobs are requested without a job client.
var ErrJobsDisabled = errors.New("background jobs are not configured")

// AddBookParams holds the fields accepted when adding a book.
type AddBookParams struct {
	ID          string
	Title       string
	Author      string
	UsrCategory string
	Description string
}

// BookService manages the book catalogue and keeps model predictions on it.
type BookService struct {
	books       store.BookStore
	predictions *PredictionService
	jobs        store.JobClient
}

// NewBookService creates a BookService. jobs may be nil when Redis is not configured.
func NewBookService(books store.BookStore, predictions *PredictionService, jobs store.JobClient) *BookService {
	return &BookService{books: books, predictions: predictions, jobs: jobs}
}

// AddBook validates and stores a new book with a fresh prediction. A failed
// prediction does not block the insert; the book keeps the Unknown defaults.
func (s *BookService) AddBook(ctx context.Context, p AddBookParams) (*models.Book, error) {
	book := &models.Book{
		ID:          strings.TrimSpace(p.ID),
		Title:       strings.TrimSpace(p.Title),
		Author:      strings.TrimSpace(p.Author),
		UsrCategory: strings.TrimSpace(p.UsrCategory),
		Description: strings.TrimSpace(p.Description),
		MLCategory:  genre.Unknown,
		MLScores:    models.Scores{},
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}
	if book.ID == "" {
		book.ID = uuid.NewString()
	} else if err := s.ensureNew(ctx, book.ID); err != nil {
		return nil, err
	}

	pred, err := s.predictions.Predict(ctx, inputFor(book))
	if err != nil {
		log.WithError(err).WithField("book_id", book.ID).Warn("Prediction failed, storing book with defaults")
	} else {
		book.MLCategory = pred.Genre
		book.MLScores = models.Scores(pred.Scores)
	}

	if err := s.books.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"book_id": book.ID, "ml_category": book.MLCategory}).Info("Book added")
	return book, nil
}

// ensureNew fails with store.ErrDuplicate when id is taken, before any model
// call is spent on the book. CreateBook still enforces uniqueness.
func (s *BookService) ensureNew(ctx context.Context, id string) error {
	_, err := s.books.GetBook(ctx, id)
	switch {
	case err == nil:
		return fmt.Errorf("book %s: %w", id, store.ErrDuplicate)
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return err
	}
}

// GetBook returns a book by ID.
func (s *BookService) GetBook(ctx context.Context, id string) (*models.Book, error) {
	return s.books.GetBook(ctx, id)
}

// ListBooks returns the books matching filter.
func (s *BookService) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	return s.books.ListBooks(ctx, filter)
}

// SetCategory records the reader's category for a book.
func (s *BookService) SetCategory(ctx context.Context, id, category string) (*models.Book, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category required", models.ErrValidation)
	}
	return s.books.UpdateUserCategory(ctx, id, category)
}

// Reclassify runs the model again for a stored book and persists the result.
func (s *BookService) Reclassify(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.books.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	pred, err := s.predictions.Predict(ctx, inputFor(book))
	if err != nil {
		return nil, err
	}
	if err := s.books.UpdatePrediction(ctx, id, pred.Genre, models.Scores(pred.Scores)); err != nil {
		return nil, err
	}
	book.MLCategory = pred.Genre
	book.MLScores = models.Scores(pred.Scores)
	return book, nil
}

// EnqueueReclassify queues Reclassify for a worker and returns the task ID.
func (s *BookService) EnqueueReclassify(ctx context.Context, id string) (string, error) {
	if s.jobs == nil {
		return "", ErrJobsDisabled
	}
	if _, err := s.books.GetBook(ctx, id); err != nil {
		return "", err
	}
	return s.jobs.EnqueueClassifyJob(ctx, id)
}

// ImportSummary counts the outcome of an Import.
type ImportSummary struct {
	Added   int
	Skipped int
	Failed  int
}

// Import adds every book in params. Books whose ID already exists are
// skipped; invalid books are counted as failed and do not stop the import.
func (s *BookService) Import(ctx context.Context, params []AddBookParams) (ImportSummary, error) {
	var sum ImportSummary
	for _, p := range params {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		_, err := s.AddBook(ctx, p)
		switch {
		case err == nil:
			sum.Added++
		case errors.Is(err, store.ErrDuplicate):
			sum.Skipped++
		case models.IsValidation(err):
			sum.Failed++
			log.WithError(err).WithField("title", p.Title).Warn("Skipping invalid book")
		default:
			return sum, err
		}
	}
	return sum, nil
}

// sampleBooks are inserted by Seed into an empty catalogue.
var sampleBooks = []models.Book{
	{
		Title: "Art of War", Author: "Sun Tzu", MLCategory: "Art", UsrCategory: "Art",
		Description: "Classic military strategy book",
		MLScores:    models.Scores{0.1, 0.1, -0.3, 0.5, -0.1, 0.5, 0.1, 0.9, 0.2},
	},
	{
		Title: "Business 101", Author: "John Doe", MLCategory: "Business/Finance", UsrCategory: "Business/Finance",
		Description: "Basics of business",
		MLScores:    models.Scores{0.1, 0.1, 0.3, 0.2, 0.9, 0.2, 0.4, 0.1, 0.2},
	},
	{
		Title: "The Fantasy Tale", Author: "Jane Smith", MLCategory: "Fantasy/Science Fiction", UsrCategory: "Fantasy/Science Fiction",
		Description: "Epic fantasy story",
		MLScores:    models.Scores{0.2, 0.1, 0.3, -0.2, -0.1, 0.8, -0.1, 0.1, -0.2},
	},
	{
		Title: "Romantic Stories", Author: "Author X", MLCategory: "Romance", UsrCategory: "Romance",
		Description: "Love and relationships",
		MLScores:    models.Scores{0.7, 0.1, -0.3, 0.2, -0.1, 0.5, 0.1, 0.1, 0.2},
	},
}

// Seed inserts the sample books when the catalogue is empty and returns how
// many were added.
func (s *BookService) Seed(ctx context.Context) (int, error) {
	n, err := s.books.CountBooks(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.WithField("books", n).Debug("Catalogue not empty, skipping seed")
		return 0, nil
	}
	for i := range sampleBooks {
		book := sampleBooks[i]
		book.ID = uuid.NewString()
		book.MLScores = append(models.Scores{}, book.MLScores...)
		if err := s.books.CreateBook(ctx, &book); err != nil {
			return i, fmt.Errorf("seed %q: %w", book.Title, err)
		}
	}
	log.WithField("books", len(sampleBooks)).Info("Seeded sample books")
	return len(sampleBooks), nil
}

func inputFor(b *models.Book) genre.Input {
	return genre.Input{Title: b.Title, Authors: b.Author, Description: b.Description}
}
