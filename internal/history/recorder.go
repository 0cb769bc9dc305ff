package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mr1hm/airsense/internal/models"
	"github.com/mr1hm/airsense/internal/worker"
)

const writeTimeout = 5 * time.Second

// Recorder writes entries in the background so answering a request never
// waits on the store. Entries are dropped, with a warning, when the queue is
// full.
type Recorder struct {
	repo Repository
	pool *worker.WorkerPool
}

func NewRecorder(repo Repository, workers, buffer int) *Recorder {
	r := &Recorder{repo: repo}
	r.pool = worker.NewWorkerPool("history", workers, buffer, r.process)
	return r
}

func (r *Recorder) Start(ctx context.Context) {
	r.pool.Start(ctx)
}

func (r *Recorder) process(ctx context.Context, job worker.Job) error {
	e, ok := job.(models.HistoryEntry)
	if !ok {
		return fmt.Errorf("unexpected job type %T", job)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return r.repo.Add(ctx, &e)
}

// Record assigns an id and timestamp when missing and queues the entry.
func (r *Recorder) Record(e models.HistoryEntry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	if err := r.pool.TrySubmit(e); err != nil {
		slog.Warn("dropping history entry", "id", e.ID, "intent", e.Intent, "error", err)
	}
}

func (r *Recorder) Recent(ctx context.Context, f Filter) ([]models.HistoryEntry, error) {
	return r.repo.List(ctx, f)
}

func (r *Recorder) Get(ctx context.Context, id string) (*models.HistoryEntry, error) {
	return r.repo.GetByID(ctx, id)
}

// Stop flushes queued entries. Call it before cancelling the start context.
func (r *Recorder) Stop() {
	r.pool.Stop()
	slog.Info("history recorder stopped", "written", r.pool.Processed(), "failed", r.pool.Failed())
}
