package primary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		author       TEXT NOT NULL,
		ml_category  TEXT NOT NULL DEFAULT 'Unknown',
		usr_category TEXT NOT NULL DEFAULT '',
		description  TEXT NOT NULL,
		ml_scores    TEXT NOT NULL DEFAULT '[]',
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_books_usr_category ON books (usr_category)`,
	`CREATE TABLE IF NOT EXISTS background_jobs (
		job_id     TEXT PRIMARY KEY,
		task_type  TEXT NOT NULL,
		payload    TEXT NOT NULL DEFAULT '{}',
		queue      TEXT NOT NULL,
		status     TEXT NOT NULL,
		book_id    TEXT NOT NULL DEFAULT '',
		last_error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_background_jobs_book ON background_jobs (book_id)`,
}

// StoreImpl implements store.BookStore and store.JobStore on SQLite or
// PostgreSQL through database/sql.
type StoreImpl struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPrimaryStore opens the database, checks the connection and creates the
// schema when missing.
func NewPrimaryStore(ctx context.Context, driver, dsn string) (*StoreImpl, error) {
	if dsn == "" {
		return nil, errors.New("database DSN cannot be empty")
	}
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if driver == DriverSQLite {
		// A single connection keeps ":memory:" databases shared and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	s := &StoreImpl{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.WithField("driver", driver).Debug("Database ready")
	return s, nil
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *StoreImpl) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Ping checks the database connection.
func (s *StoreImpl) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *StoreImpl) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports a primary key or unique constraint failure from
// either driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
