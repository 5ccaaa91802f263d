package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"paperarchive/internal/common"
	"paperarchive/internal/domain/model"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	ListOptions(ctx context.Context) ([]model.CategoryOption, error)
	FindByID(ctx context.Context, id string) (*model.Category, error)
	FindBySlug(ctx context.Context, slug string) (*model.Category, error)
	Create(ctx context.Context, in model.CategoryInput) (*model.Category, error)
	Update(ctx context.Context, id string, in model.CategoryInput) (*model.Category, error)
	Delete(ctx context.Context, id string) (*model.Category, error)
	Count(ctx context.Context) (int, error)
	RecountPapers(ctx context.Context, id string) (int, error)
}

const categoryColumns = `id, name, slug, description, paper_count, created_at, updated_at`

type pgCategoryRepository struct {
	db *sql.DB
}

func NewPgCategoryRepository(db *sql.DB) CategoryRepository {
	return &pgCategoryRepository{db: db}
}

func scanCategory(row rowScanner) (*model.Category, error) {
	c := &model.Category{}
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.PaperCount, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *pgCategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pgCategoryRepository.List: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("pgCategoryRepository.List scan: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCategoryRepository.List rows: %w", err)
	}
	return categories, nil
}

func (r *pgCategoryRepository) ListOptions(ctx context.Context) ([]model.CategoryOption, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pgCategoryRepository.ListOptions: %w", err)
	}
	defer rows.Close()

	options := []model.CategoryOption{}
	for rows.Next() {
		var o model.CategoryOption
		if err := rows.Scan(&o.ID, &o.Name); err != nil {
			return nil, fmt.Errorf("pgCategoryRepository.ListOptions scan: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (r *pgCategoryRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCategoryRepository.FindByID: %w", err)
	}
	return c, nil
}

func (r *pgCategoryRepository) FindBySlug(ctx context.Context, s string) (*model.Category, error) {
	if s == "" {
		return nil, common.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, s)
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCategoryRepository.FindBySlug: %w", err)
	}
	return c, nil
}

// SlugCandidates lists the slugs tried for a category, most readable first.
// Names with nothing sluggable fall back to the id, so a slug is never empty
// and two names that slug alike both get stored.
func SlugCandidates(name, id string) []string {
	short := strings.SplitN(id, "-", 2)[0]
	base := slug.Make(name)
	if base == "" {
		return []string{short, id}
	}
	return []string{base, base + "-" + short, base + "-" + id}
}

func (r *pgCategoryRepository) Create(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	query := `INSERT INTO categories (id, name, slug, description)
	          VALUES ($1, $2, $3, $4)
	          RETURNING ` + categoryColumns
	id := uuid.NewString()

	var err error
	for _, s := range SlugCandidates(in.Name, id) {
		var c *model.Category
		c, err = scanCategory(r.db.QueryRowContext(ctx, query, id, in.Name, s, nullIfEmpty(in.Description)))
		if err == nil {
			return c, nil
		}
		if !isUniqueViolation(err) {
			break
		}
	}
	return nil, mapWriteError("pgCategoryRepository.Create", err)
}

func (r *pgCategoryRepository) Update(ctx context.Context, id string, in model.CategoryInput) (*model.Category, error) {
	query := `UPDATE categories
	          SET name = $2, slug = $3, description = $4, updated_at = now()
	          WHERE id = $1 AND ($5::timestamptz IS NULL OR updated_at = $5)
	          RETURNING ` + categoryColumns

	var err error
	for _, s := range SlugCandidates(in.Name, id) {
		var c *model.Category
		c, err = scanCategory(r.db.QueryRowContext(ctx, query, id, in.Name, s, nullIfEmpty(in.Description), in.ExpectedUpdatedAt))
		if err == nil {
			return c, nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, missingOrStale(ctx, r.db, "categories", id, "pgCategoryRepository.Update")
		}
		if !isUniqueViolation(err) {
			break
		}
	}
	return nil, mapWriteError("pgCategoryRepository.Update", err)
}

// Delete removes the category; its papers go with it (ON DELETE CASCADE).
func (r *pgCategoryRepository) Delete(ctx context.Context, id string) (*model.Category, error) {
	row := r.db.QueryRowContext(ctx, `DELETE FROM categories WHERE id = $1 RETURNING `+categoryColumns, id)
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, mapWriteError("pgCategoryRepository.Delete", err)
	}
	return c, nil
}

func (r *pgCategoryRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "categories", "pgCategoryRepository.Count")
}

// RecountPapers refreshes the denormalized paper_count and returns the new value.
func (r *pgCategoryRepository) RecountPapers(ctx context.Context, id string) (int, error) {
	query := `UPDATE categories
	          SET paper_count = (SELECT count(*) FROM papers WHERE category_id = $1)
	          WHERE id = $1
	          RETURNING paper_count`
	var n int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("pgCategoryRepository.RecountPapers: %w", err)
	}
	return n, nil
}
