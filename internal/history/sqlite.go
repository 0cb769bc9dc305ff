package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mr1hm/airsense/internal/models"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// :memory: databases are per-connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteStore{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS query_history (
			id TEXT PRIMARY KEY,
			intent TEXT NOT NULL,
			params TEXT NOT NULL,
			outcome TEXT NOT NULL,
			summary TEXT,
			error TEXT,
			latency_ns INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_query_history_created_at ON query_history(created_at);
		CREATE INDEX IF NOT EXISTS idx_query_history_intent ON query_history(intent);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Add(ctx context.Context, e *models.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_history (id, intent, params, outcome, summary, error, latency_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Intent, e.Params, string(e.Outcome), e.Summary, e.Error,
		int64(e.Latency), e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("error inserting history entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*models.HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, intent, params, outcome, summary, error, latency_ns, created_at
		FROM query_history WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading history entry: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]models.HistoryEntry, error) {
	query := `SELECT id, intent, params, outcome, summary, error, latency_ns, created_at FROM query_history`
	var where []string
	var args []any

	if f.Intent != "" {
		where = append(where, "intent = ?")
		args = append(args, f.Intent)
	}
	if f.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(f.Outcome))
	}
	if f.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UnixNano())
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing history: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoryEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning history entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.HistoryEntry, error) {
	var (
		e         models.HistoryEntry
		outcome   string
		summary   sql.NullString
		errText   sql.NullString
		latency   int64
		createdAt int64
	)
	if err := row.Scan(&e.ID, &e.Intent, &e.Params, &outcome, &summary, &errText, &latency, &createdAt); err != nil {
		return nil, err
	}
	e.Outcome = models.QueryOutcome(outcome)
	e.Summary = summary.String
	e.Error = errText.String
	e.Latency = time.Duration(latency)
	e.CreatedAt = time.Unix(0, createdAt).UTC()
	return &e, nil
}
