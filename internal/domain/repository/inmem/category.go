package inmem

import (
	"context"
	"fmt"
	"sort"

	"paperarchive/internal/common"
	"paperarchive/internal/domain/model"
	"paperarchive/internal/domain/repository"

	"github.com/google/uuid"
)

type categoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

// sorted returns copies ordered by name. Callers hold db.mu.
func (r *categoryRepository) sorted() []model.Category {
	categories := make([]model.Category, 0, len(r.db.categories))
	for _, c := range r.db.categories {
		categories = append(categories, *c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories
}

func (r *categoryRepository) List(_ context.Context) ([]model.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.sorted(), nil
}

func (r *categoryRepository) ListOptions(_ context.Context) ([]model.CategoryOption, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	options := []model.CategoryOption{}
	for _, c := range r.sorted() {
		options = append(options, model.CategoryOption{ID: c.ID, Name: c.Name})
	}
	return options, nil
}

func (r *categoryRepository) FindByID(_ context.Context, id string) (*model.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if c, ok := r.db.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (r *categoryRepository) FindBySlug(_ context.Context, s string) (*model.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if s == "" {
		return nil, common.ErrNotFound
	}
	for _, c := range r.db.categories {
		if c.Slug == s {
			cp := *c
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

// freeSlug picks the first slug candidate no other category holds, the way
// the Postgres repository retries on a unique violation. Callers hold db.mu.
func (r *categoryRepository) freeSlug(op, id, name string) (string, error) {
	for _, s := range repository.SlugCandidates(name, id) {
		taken := false
		for _, c := range r.db.categories {
			if c.ID != id && c.Slug == s {
				taken = true
				break
			}
		}
		if !taken {
			return s, nil
		}
	}
	return "", fmt.Errorf("%s: no free slug for %q: %w", op, name, common.ErrConflict)
}

func (r *categoryRepository) Create(_ context.Context, in model.CategoryInput) (*model.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	id := uuid.NewString()
	s, err := r.freeSlug("inmem.CategoryRepository.Create", id, in.Name)
	if err != nil {
		return nil, err
	}
	now := r.db.tick()
	c := &model.Category{
		ID:          id,
		Name:        in.Name,
		Slug:        s,
		Description: optional(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.db.categories[c.ID] = c
	cp := *c
	return &cp, nil
}

func (r *categoryRepository) Update(_ context.Context, id string, in model.CategoryInput) (*model.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.categories[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if stale(in.Precondition, c.UpdatedAt) {
		return nil, fmt.Errorf("inmem.CategoryRepository.Update: %w", common.ErrVersionConflict)
	}
	s, err := r.freeSlug("inmem.CategoryRepository.Update", id, in.Name)
	if err != nil {
		return nil, err
	}
	c.Name = in.Name
	c.Slug = s
	c.Description = optional(in.Description)
	c.UpdatedAt = r.db.tick()
	cp := *c
	return &cp, nil
}

// Delete cascades to the category's papers.
func (r *categoryRepository) Delete(_ context.Context, id string) (*model.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.categories[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(r.db.categories, id)
	for pid, p := range r.db.papers {
		if p.CategoryID == id {
			delete(r.db.papers, pid)
		}
	}
	return c, nil
}

func (r *categoryRepository) Count(_ context.Context) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return len(r.db.categories), nil
}

func (r *categoryRepository) RecountPapers(_ context.Context, id string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.categories[id]
	if !ok {
		return 0, common.ErrNotFound
	}
	n := 0
	for _, p := range r.db.papers {
		if p.CategoryID == id {
			n++
		}
	}
	c.PaperCount = n
	return n, nil
}
