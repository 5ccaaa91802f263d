package service

import (
	"context"
	"errors"
	"fmt"

	"paperarchive/internal/app/query"
	"paperarchive/internal/common"
	"paperarchive/internal/domain/model"
	"paperarchive/internal/domain/repository"

	"github.com/google/uuid"
)

const notificationFeedSize = 5

// CatalogService serves the public read views.
type CatalogService struct {
	categories    repository.CategoryRepository
	papers        repository.PaperRepository
	notifications repository.NotificationRepository
	queries       *query.Client
}

func NewCatalogService(
	categories repository.CategoryRepository,
	papers repository.PaperRepository,
	notifications repository.NotificationRepository,
	queries *query.Client,
) *CatalogService {
	return &CatalogService{
		categories:    categories,
		papers:        papers,
		notifications: notifications,
		queries:       queries,
	}
}

// CategoryDetail is the category page. A missing category is a normal,
// empty result: Category is nil and Papers is empty.
type CategoryDetail struct {
	Category *model.Category `json:"category"`
	Papers   []model.Paper   `json:"papers"`
	Message  string          `json:"message,omitempty"`
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return query.Fetch(ctx, s.queries, query.NewKey("categories"), s.categories.List)
}

func (s *CatalogService) CategoryOptions(ctx context.Context) ([]model.CategoryOption, error) {
	return query.Fetch(ctx, s.queries, query.NewKey("categories", "options"), s.categories.ListOptions)
}

// GetCategoryDetail resolves ref as a category id, or as a slug when it is not a UUID.
func (s *CatalogService) GetCategoryDetail(ctx context.Context, ref string) (*CategoryDetail, error) {
	category, err := query.Fetch(ctx, s.queries, query.NewKey("category", ref), func(ctx context.Context) (*model.Category, error) {
		var (
			c   *model.Category
			err error
		)
		if _, perr := uuid.Parse(ref); perr == nil {
			c, err = s.categories.FindByID(ctx, ref)
		} else {
			c, err = s.categories.FindBySlug(ctx, ref)
		}
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("loading category %q: %w", ref, err)
	}
	if category == nil {
		return &CategoryDetail{Papers: []model.Paper{}, Message: "Category not found"}, nil
	}

	papers, err := query.Fetch(ctx, s.queries, query.NewKey("papers", category.ID), func(ctx context.Context) ([]model.Paper, error) {
		return s.papers.ListByCategory(ctx, category.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("loading papers for category %s: %w", category.ID, err)
	}
	return &CategoryDetail{Category: category, Papers: papers}, nil
}

// DownloadURL returns the stored link of the given kind for a paper.
func (s *CatalogService) DownloadURL(ctx context.Context, paperID, kind string) (string, error) {
	if kind != model.DownloadKindPaper && kind != model.DownloadKindMarkingScheme {
		return "", fmt.Errorf("unknown download kind %q: %w", kind, common.ErrBadRequest)
	}
	if _, err := uuid.Parse(paperID); err != nil {
		return "", common.ErrNotFound
	}

	paper, err := s.papers.FindByID(ctx, paperID)
	if err != nil {
		return "", err
	}
	u := paper.DownloadURL(kind)
	if u == "" {
		return "", fmt.Errorf("no %s available: %w", kind, common.ErrNotFound)
	}
	return u, nil
}

// NotificationFeed returns the latest notifications and how many of them are unread.
func (s *CatalogService) NotificationFeed(ctx context.Context) (*model.NotificationFeed, error) {
	latest, err := query.Fetch(ctx, s.queries, query.NewKey("notifications", "latest"), func(ctx context.Context) ([]model.Notification, error) {
		return s.notifications.List(ctx, notificationFeedSize)
	})
	if err != nil {
		return nil, fmt.Errorf("loading notifications: %w", err)
	}

	feed := &model.NotificationFeed{Notifications: latest}
	for i := range latest {
		if latest[i].Unread() {
			feed.UnreadCount++
		}
	}
	return feed, nil
}
