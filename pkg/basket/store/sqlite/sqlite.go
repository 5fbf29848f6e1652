package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/basket/pkg/basket/internalerr"
	"github.com/cognicore/basket/pkg/basket/report"
	"github.com/cognicore/basket/pkg/basket/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	transactions INTEGER NOT NULL DEFAULT 0,
	rule_count INTEGER NOT NULL DEFAULT 0,
	body BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);

CREATE TABLE IF NOT EXISTS stoplist (
	token TEXT PRIMARY KEY
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveReport inserts or replaces a report
func (s *sqliteStore) SaveReport(ctx context.Context, r *report.Report) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("sqlite: report without id: %w", internalerr.ErrInvalidInput)
	}
	body, err := report.Marshal(r)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO reports (id, created_at, source, transactions, rule_count, body)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	created_at=excluded.created_at,
	source=excluded.source,
	transactions=excluded.transactions,
	rule_count=excluded.rule_count,
	body=excluded.body;
`, r.ID, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.Source, r.Stats.Transactions, len(r.Rules), body)
	return err
}

// GetReport loads a report by id
func (s *sqliteStore) GetReport(ctx context.Context, id string) (*report.Report, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM reports WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return report.Unmarshal(body)
}

// ListReports returns report summaries, newest first
func (s *sqliteStore) ListReports(ctx context.Context, limit int) ([]report.Summary, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, created_at, source, transactions, rule_count
FROM reports
ORDER BY id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []report.Summary{}
	for rows.Next() {
		var sum report.Summary
		var created string
		if err := rows.Scan(&sum.ID, &created, &sum.Source, &sum.Transactions, &sum.Rules); err != nil {
			return nil, err
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("report %s: bad created_at %q: %w", sum.ID, created, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteReport removes a report
func (s *sqliteStore) DeleteReport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("report %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

// AddStopwords records accepted stopwords
func (s *sqliteStore) AddStopwords(ctx context.Context, tokens []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO stoplist (token) VALUES (?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Stopwords returns the accepted stopwords, sorted
func (s *sqliteStore) Stopwords(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token FROM stoplist ORDER BY token`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
