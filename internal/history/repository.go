// Package history keeps an audit log of answered queries. It never reads or
// writes the dataset or the models.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mr1hm/airsense/internal/models"
)

var ErrNotFound = errors.New("history entry not found")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Filter struct {
	Limit   int
	Intent  string
	Outcome models.QueryOutcome
	Since   *time.Time
}

type Repository interface {
	Add(ctx context.Context, e *models.HistoryEntry) error
	GetByID(ctx context.Context, id string) (*models.HistoryEntry, error)
	List(ctx context.Context, f Filter) ([]models.HistoryEntry, error)
	Close() error
}

// Open connects to the store for driver. dsn is a file path for sqlite and a
// connection string for postgres. The memory driver ignores it and loses its
// entries on exit.
func Open(ctx context.Context, driver, dsn string) (Repository, error) {
	switch driver {
	case DriverSQLite:
		return NewSQLiteStore(dsn)
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", driver)
	}
}
