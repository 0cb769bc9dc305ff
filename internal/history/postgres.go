package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mr1hm/airsense/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a pool and creates the history table if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping: %w", err)
	}

	s := NewPostgresStoreFromPool(pool)
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to migrate: %w", err)
	}
	return s, nil
}

func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS query_history (
			id UUID PRIMARY KEY,
			intent TEXT NOT NULL,
			params JSONB NOT NULL,
			outcome TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			latency_ns BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_query_history_created_at ON query_history(created_at);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) Add(ctx context.Context, e *models.HistoryEntry) error {
	query := `
		INSERT INTO query_history (id, intent, params, outcome, summary, error, latency_ns, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		e.ID, e.Intent, e.Params, string(e.Outcome), e.Summary, e.Error,
		int64(e.Latency), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save history entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.HistoryEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id::text, intent, params::text, outcome, summary, error, latency_ns, created_at
		FROM query_history WHERE id = $1`, id)

	e, err := scanPostgresEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to read history entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]models.HistoryEntry, error) {
	query := `SELECT id::text, intent, params::text, outcome, summary, error, latency_ns, created_at FROM query_history`
	var where []string
	var args []any

	if f.Intent != "" {
		args = append(args, f.Intent)
		where = append(where, fmt.Sprintf("intent = $%d", len(args)))
	}
	if f.Outcome != "" {
		args = append(args, string(f.Outcome))
		where = append(where, fmt.Sprintf("outcome = $%d", len(args)))
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoryEntry, 0)
	for rows.Next() {
		e, err := scanPostgresEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan history entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgresEntry(row pgx.Row) (*models.HistoryEntry, error) {
	var (
		e       models.HistoryEntry
		outcome string
		latency int64
	)
	if err := row.Scan(&e.ID, &e.Intent, &e.Params, &outcome, &e.Summary, &e.Error, &latency, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Outcome = models.QueryOutcome(outcome)
	e.Latency = time.Duration(latency)
	return &e, nil
}
