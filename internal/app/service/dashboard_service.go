package service

import (
	"context"
	"fmt"

	"paperarchive/internal/app/query"
	"paperarchive/internal/domain/model"

	"golang.org/x/sync/errgroup"
)

type counter interface {
	Count(ctx context.Context) (int, error)
}

type DashboardService struct {
	categories    counter
	papers        counter
	notifications counter
	queries       *query.Client
}

func NewDashboardService(categories, papers, notifications counter, queries *query.Client) *DashboardService {
	return &DashboardService{
		categories:    categories,
		papers:        papers,
		notifications: notifications,
		queries:       queries,
	}
}

// Stats counts the three tables concurrently; any failed count fails the whole result.
func (s *DashboardService) Stats(ctx context.Context) (*model.Stats, error) {
	return query.Fetch(ctx, s.queries, query.NewKey("stats"), func(ctx context.Context) (*model.Stats, error) {
		stats := &model.Stats{}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			stats.Categories, err = s.categories.Count(gctx)
			return err
		})
		g.Go(func() (err error) {
			stats.Papers, err = s.papers.Count(gctx)
			return err
		})
		g.Go(func() (err error) {
			stats.Notifications, err = s.notifications.Count(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("counting rows: %w", err)
		}
		return stats, nil
	})
}
