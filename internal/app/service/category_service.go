package service

import (
	"paperarchive/internal/app/query"
	"paperarchive/internal/domain/model"
	"paperarchive/internal/domain/repository"
)

type CategoryManager = Manager[model.Category, model.CategoryInput]

// NewCategoryManager backs the admin categories screen. Category names are
// joined into paper listings and search results, so those go stale too.
func NewCategoryManager(repo repository.CategoryRepository, deps Deps) *CategoryManager {
	return NewManager[model.Category, model.CategoryInput]("categories", repo, deps, ManagerOptions[model.Category]{
		ListKey:     query.NewKey("categories"),
		Invalidates: []string{"categories", "category", "papers", "search", "stats"},
	})
}
