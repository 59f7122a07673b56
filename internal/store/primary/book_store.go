package primary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bookgenre/internal/models"
	"bookgenre/internal/store"
)

const bookColumns = `id, title, author, ml_category, usr_category, description, ml_scores, created_at, updated_at`

// CreateBook inserts book, stamping CreatedAt and UpdatedAt.
func (s *StoreImpl) CreateBook(ctx context.Context, book *models.Book) error {
	now := s.now()
	book.CreatedAt, book.UpdatedAt = now, now
	if book.MLScores == nil {
		book.MLScores = models.Scores{}
	}

	query := s.db.Rebind(`INSERT INTO books (` + bookColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		book.ID, book.Title, book.Author, book.MLCategory, book.UsrCategory,
		book.Description, book.MLScores, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("book %s: %w", book.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert book %s: %w", book.ID, err)
	}
	return nil
}

// GetBook returns the book with id.
func (s *StoreImpl) GetBook(ctx context.Context, id string) (*models.Book, error) {
	book := &models.Book{}
	query := s.db.Rebind(`SELECT ` + bookColumns + ` FROM books WHERE id = ?`)
	if err := s.db.GetContext(ctx, book, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get book %s: %w", id, err)
	}
	return book, nil
}

// ListBooks returns books matching filter in insertion order.
func (s *StoreImpl) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	var (
		where []string
		args  []any
	)
	if filter.Title != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Title)+"%")
	}
	if filter.Author != "" {
		where = append(where, "LOWER(author) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Author)+"%")
	}
	if filter.Category != "" {
		where = append(where, "usr_category = ?")
		args = append(args, filter.Category)
	}

	query := `SELECT ` + bookColumns + ` FROM books`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, max(filter.Offset, 0))
	}

	books := []*models.Book{}
	if err := s.db.SelectContext(ctx, &books, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// UpdateUserCategory sets the reader-chosen category and returns the updated book.
func (s *StoreImpl) UpdateUserCategory(ctx context.Context, id, category string) (*models.Book, error) {
	query := s.db.Rebind(`UPDATE books SET usr_category = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, category, s.now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update category for book %s: %w", id, err)
	}
	if err := requireRow(res, "book", id); err != nil {
		return nil, err
	}
	return s.GetBook(ctx, id)
}

// UpdatePrediction stores a fresh model prediction for the book.
func (s *StoreImpl) UpdatePrediction(ctx context.Context, id, category string, scores models.Scores) error {
	if scores == nil {
		scores = models.Scores{}
	}
	query := s.db.Rebind(`UPDATE books SET ml_category = ?, ml_scores = ?, updated_at = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, category, scores, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update prediction for book %s: %w", id, err)
	}
	return requireRow(res, "book", id)
}

// CountBooks returns the number of stored books.
func (s *StoreImpl) CountBooks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM books`); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return n, nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

var _ store.BookStore = (*StoreImpl)(nil)
