package inmem

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"paperarchive/internal/common"
	"paperarchive/internal/domain/model"
	"paperarchive/internal/domain/repository"

	"github.com/google/uuid"
)

type paperRepository struct {
	db *DB
}

func NewPaperRepository(db *DB) repository.PaperRepository {
	return &paperRepository{db: db}
}

// selectPapers returns copies of the matching papers, newest year first.
// Callers hold db.mu.
func (r *paperRepository) selectPapers(joined bool, match func(*model.Paper) bool) []model.Paper {
	papers := []model.Paper{}
	for _, p := range r.db.papers {
		if !match(p) {
			continue
		}
		cp := *p
		if joined {
			cp.CategoryName = r.db.categories[p.CategoryID].Name
		}
		papers = append(papers, cp)
	}
	sort.Slice(papers, func(i, j int) bool {
		if papers[i].Year != papers[j].Year {
			return papers[i].Year > papers[j].Year
		}
		return papers[i].Title < papers[j].Title
	})
	return papers
}

func (r *paperRepository) List(_ context.Context) ([]model.Paper, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.selectPapers(true, func(*model.Paper) bool { return true }), nil
}

func (r *paperRepository) ListByCategory(_ context.Context, categoryID string) ([]model.Paper, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.selectPapers(false, func(p *model.Paper) bool { return p.CategoryID == categoryID }), nil
}

func (r *paperRepository) Search(_ context.Context, term string, limit int) ([]model.Paper, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	needle := strings.ToLower(term)
	papers := r.selectPapers(true, func(p *model.Paper) bool {
		if strings.Contains(strings.ToLower(p.Title), needle) {
			return true
		}
		return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), needle)
	})
	if limit > 0 && len(papers) > limit {
		papers = papers[:limit]
	}
	return papers, nil
}

func (r *paperRepository) FindByID(_ context.Context, id string) (*model.Paper, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.papers[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	cp.CategoryName = r.db.categories[p.CategoryID].Name
	return &cp, nil
}

// apply copies the form onto p, enforcing the category foreign key. Callers hold db.mu.
func (r *paperRepository) apply(op string, p *model.Paper, in model.PaperInput) error {
	if _, ok := r.db.categories[in.CategoryID]; !ok {
		return fmt.Errorf("%s: referenced category does not exist: %w", op, common.ErrBadRequest)
	}
	p.Title = in.Title
	p.Year = in.Year
	p.Description = optional(in.Description)
	p.PaperURL = optional(in.PaperURL)
	p.MarkingSchemeURL = optional(in.MarkingSchemeURL)
	p.CategoryID = in.CategoryID
	return nil
}

func (r *paperRepository) Create(_ context.Context, in model.PaperInput) (*model.Paper, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p := &model.Paper{ID: uuid.NewString()}
	if err := r.apply("inmem.PaperRepository.Create", p, in); err != nil {
		return nil, err
	}
	p.CreatedAt = r.db.tick()
	p.UpdatedAt = p.CreatedAt
	r.db.papers[p.ID] = p

	cp := *p
	cp.CategoryName = r.db.categories[p.CategoryID].Name
	return &cp, nil
}

func (r *paperRepository) Update(_ context.Context, id string, in model.PaperInput) (*model.Paper, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.papers[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if stale(in.Precondition, current.UpdatedAt) {
		return nil, fmt.Errorf("inmem.PaperRepository.Update: %w", common.ErrVersionConflict)
	}
	next := *current
	if err := r.apply("inmem.PaperRepository.Update", &next, in); err != nil {
		return nil, err
	}
	next.UpdatedAt = r.db.tick()
	*current = next

	cp := next
	cp.CategoryName = r.db.categories[next.CategoryID].Name
	return &cp, nil
}

func (r *paperRepository) Delete(_ context.Context, id string) (*model.Paper, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.papers[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(r.db.papers, id)
	return p, nil
}

func (r *paperRepository) Count(_ context.Context) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return len(r.db.papers), nil
}
