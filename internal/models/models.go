package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookgenre/pkg/genre"
)

// Scores is the per-class score list persisted as a JSON array.
type Scores []float64

// Value implements driver.Valuer.
func (s Scores) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]float64(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner. NULL and empty text scan as an empty list.
func (s *Scores) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = Scores{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scores: unsupported type %T", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		*s = Scores{}
		return nil
	}
	var out []float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scores: %w", err)
	}
	if out == nil {
		out = []float64{}
	}
	*s = out
	return nil
}

// Book mirrors the books table.
type Book struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Author      string    `db:"author" json:"author"`
	MLCategory  string    `db:"ml_category" json:"mlCategory"`
	UsrCategory string    `db:"usr_category" json:"usrCategory"`
	Description string    `db:"description" json:"description"`
	MLScores    Scores    `db:"ml_scores" json:"mlScores"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Category is the category shown to readers: the user's choice unless it is
// blank or "unknown", then the model's, then genre.Unknown.
func (b *Book) Category() string {
	if u := strings.TrimSpace(b.UsrCategory); u != "" && !strings.EqualFold(u, "unknown") {
		return u
	}
	if b.MLCategory != "" {
		return b.MLCategory
	}
	return genre.Unknown
}

// Validate checks the fields required to store a book.
func (b *Book) Validate() error {
	var missing []string
	if strings.TrimSpace(b.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(b.Author) == "" {
		missing = append(missing, "author")
	}
	if strings.TrimSpace(b.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// BookFilter narrows ListBooks. Title and Author match substrings; Category
// matches the user category exactly.
type BookFilter struct {
	Title    string
	Author   string
	Category string
	Limit    int
	Offset   int
}

// BackgroundJob mirrors the background_jobs table.
type BackgroundJob struct {
	JobID     string    `db:"job_id"`
	TaskType  string    `db:"task_type"`
	Payload   string    `db:"payload"`
	Queue     string    `db:"queue"`
	Status    string    `db:"status"`
	BookID    string    `db:"book_id"`
	LastError string    `db:"last_error"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
