package worker

import (
	"context"
	"errors"
	"time"

	"paperarchive/internal/common"

	"go.uber.org/zap"
)

type Recounter interface {
	RecountPapers(ctx context.Context, categoryID string) (int, error)
}

type Invalidator interface {
	Invalidate(ctx context.Context, names ...string) error
}

// PaperCountWorker keeps categories.paper_count in step with the papers table.
// Paper writes push the affected category ids; the worker recomputes each one
// and drops the cached category reads.
type PaperCountWorker struct {
	queue      RecountQueue
	categories Recounter
	queries    Invalidator
	log        *zap.Logger
	retryDelay time.Duration
}

func NewPaperCountWorker(queue RecountQueue, categories Recounter, queries Invalidator, log *zap.Logger) *PaperCountWorker {
	return &PaperCountWorker{
		queue:      queue,
		categories: categories,
		queries:    queries,
		log:        log,
		retryDelay: 5 * time.Second,
	}
}

// Start runs until ctx is cancelled.
func (w *PaperCountWorker) Start(ctx context.Context) {
	w.log.Info("paper count worker started")
	for {
		id, err := w.queue.Pop(ctx)
		if ctx.Err() != nil {
			w.log.Info("paper count worker stopping")
			return
		}
		if err != nil {
			if errors.Is(err, errQueueIdle) {
				continue
			}
			w.log.Error("failed to pop recount queue", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(w.retryDelay):
			}
			continue
		}
		w.recount(ctx, id)
	}
}

func (w *PaperCountWorker) recount(ctx context.Context, categoryID string) {
	n, err := w.categories.RecountPapers(ctx, categoryID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			w.log.Debug("category gone before recount", zap.String("category_id", categoryID))
			return
		}
		w.log.Error("failed to recount papers", zap.String("category_id", categoryID), zap.Error(err))
		return
	}
	w.log.Debug("recounted papers", zap.String("category_id", categoryID), zap.Int("paper_count", n))

	if err := w.queries.Invalidate(ctx, "categories", "category"); err != nil {
		w.log.Warn("recount not reflected until cache expiry", zap.String("category_id", categoryID), zap.Error(err))
	}
}
