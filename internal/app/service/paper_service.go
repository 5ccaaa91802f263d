package service

import (
	"context"

	"paperarchive/internal/app/query"
	"paperarchive/internal/domain/model"
	"paperarchive/internal/domain/repository"

	"go.uber.org/zap"
)

// RecountScheduler queues categories whose paper_count must be recomputed.
type RecountScheduler interface {
	Push(ctx context.Context, categoryIDs ...string) error
}

type PaperManager = Manager[model.Paper, model.PaperInput]

func NewPaperManager(repo repository.PaperRepository, recounts RecountScheduler, deps Deps) *PaperManager {
	return NewManager[model.Paper, model.PaperInput]("papers", repo, deps, ManagerOptions[model.Paper]{
		ListKey:     query.NewKey("papers", "all"),
		Invalidates: []string{"papers", "search", "stats"},
		OnWrite: func(ctx context.Context, before, after *model.Paper) {
			ids := affectedCategories(before, after)
			if err := recounts.Push(ctx, ids...); err != nil {
				deps.Log.Error("failed to schedule paper recount", zap.Strings("category_ids", ids), zap.Error(err))
			}
		},
	})
}

// affectedCategories lists the categories whose paper_count a write can change:
// both the old and the new one when a paper moves.
func affectedCategories(before, after *model.Paper) []string {
	var ids []string
	if before != nil {
		ids = append(ids, before.CategoryID)
	}
	if after != nil && (before == nil || after.CategoryID != before.CategoryID) {
		ids = append(ids, after.CategoryID)
	}
	return ids
}
