package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paperarchive/internal/common"
	"paperarchive/internal/domain/model"

	"github.com/google/uuid"
)

type PaperRepository interface {
	List(ctx context.Context) ([]model.Paper, error)
	ListByCategory(ctx context.Context, categoryID string) ([]model.Paper, error)
	Search(ctx context.Context, term string, limit int) ([]model.Paper, error)
	FindByID(ctx context.Context, id string) (*model.Paper, error)
	Create(ctx context.Context, in model.PaperInput) (*model.Paper, error)
	Update(ctx context.Context, id string, in model.PaperInput) (*model.Paper, error)
	Delete(ctx context.Context, id string) (*model.Paper, error)
	Count(ctx context.Context) (int, error)
}

const (
	paperColumns       = `p.id, p.title, p.year, p.description, p.paper_url, p.marking_scheme_url, p.category_id, p.created_at, p.updated_at`
	paperJoinedColumns = paperColumns + `, c.name`
)

type pgPaperRepository struct {
	db *sql.DB
}

func NewPgPaperRepository(db *sql.DB) PaperRepository {
	return &pgPaperRepository{db: db}
}

func scanPaper(row rowScanner, joined bool) (*model.Paper, error) {
	p := &model.Paper{}
	dest := []interface{}{
		&p.ID, &p.Title, &p.Year, &p.Description, &p.PaperURL, &p.MarkingSchemeURL,
		&p.CategoryID, &p.CreatedAt, &p.UpdatedAt,
	}
	if joined {
		dest = append(dest, &p.CategoryName)
	}
	return p, row.Scan(dest...)
}

func (r *pgPaperRepository) queryPapers(ctx context.Context, op string, joined bool, query string, args ...interface{}) ([]model.Paper, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	papers := []model.Paper{}
	for rows.Next() {
		p, err := scanPaper(rows, joined)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		papers = append(papers, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return papers, nil
}

func (r *pgPaperRepository) List(ctx context.Context) ([]model.Paper, error) {
	query := `SELECT ` + paperJoinedColumns + `
	          FROM papers p JOIN categories c ON c.id = p.category_id
	          ORDER BY p.year DESC, p.title`
	return r.queryPapers(ctx, "pgPaperRepository.List", true, query)
}

func (r *pgPaperRepository) ListByCategory(ctx context.Context, categoryID string) ([]model.Paper, error) {
	query := `SELECT ` + paperColumns + `
	          FROM papers p
	          WHERE p.category_id = $1
	          ORDER BY p.year DESC, p.title`
	return r.queryPapers(ctx, "pgPaperRepository.ListByCategory", false, query, categoryID)
}

// Search matches term as a literal, case-insensitive substring of title or description.
func (r *pgPaperRepository) Search(ctx context.Context, term string, limit int) ([]model.Paper, error) {
	query := `SELECT ` + paperJoinedColumns + `
	          FROM papers p JOIN categories c ON c.id = p.category_id
	          WHERE p.title ILIKE $1 ESCAPE '\' OR p.description ILIKE $1 ESCAPE '\'
	          ORDER BY p.year DESC, p.title
	          LIMIT $2`
	pattern := "%" + escapeLike(term) + "%"
	return r.queryPapers(ctx, "pgPaperRepository.Search", true, query, pattern, limit)
}

func (r *pgPaperRepository) FindByID(ctx context.Context, id string) (*model.Paper, error) {
	query := `SELECT ` + paperJoinedColumns + `
	          FROM papers p JOIN categories c ON c.id = p.category_id
	          WHERE p.id = $1`
	p, err := scanPaper(r.db.QueryRowContext(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPaperRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *pgPaperRepository) Create(ctx context.Context, in model.PaperInput) (*model.Paper, error) {
	query := `WITH p AS (
	              INSERT INTO papers (id, title, year, description, paper_url, marking_scheme_url, category_id)
	              VALUES ($1, $2, $3, $4, $5, $6, $7)
	              RETURNING *
	          )
	          SELECT ` + paperJoinedColumns + ` FROM p JOIN categories c ON c.id = p.category_id`
	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), in.Title, in.Year, nullIfEmpty(in.Description),
		nullIfEmpty(in.PaperURL), nullIfEmpty(in.MarkingSchemeURL), in.CategoryID,
	)
	p, err := scanPaper(row, true)
	if err != nil {
		return nil, mapWriteError("pgPaperRepository.Create", err)
	}
	return p, nil
}

func (r *pgPaperRepository) Update(ctx context.Context, id string, in model.PaperInput) (*model.Paper, error) {
	query := `WITH p AS (
	              UPDATE papers
	              SET title = $2, year = $3, description = $4, paper_url = $5,
	                  marking_scheme_url = $6, category_id = $7, updated_at = now()
	              WHERE id = $1 AND ($8::timestamptz IS NULL OR updated_at = $8)
	              RETURNING *
	          )
	          SELECT ` + paperJoinedColumns + ` FROM p JOIN categories c ON c.id = p.category_id`
	row := r.db.QueryRowContext(ctx, query,
		id, in.Title, in.Year, nullIfEmpty(in.Description),
		nullIfEmpty(in.PaperURL), nullIfEmpty(in.MarkingSchemeURL), in.CategoryID, in.ExpectedUpdatedAt,
	)
	p, err := scanPaper(row, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, missingOrStale(ctx, r.db, "papers", id, "pgPaperRepository.Update")
		}
		return nil, mapWriteError("pgPaperRepository.Update", err)
	}
	return p, nil
}

func (r *pgPaperRepository) Delete(ctx context.Context, id string) (*model.Paper, error) {
	query := `DELETE FROM papers p WHERE p.id = $1 RETURNING ` + paperColumns
	p, err := scanPaper(r.db.QueryRowContext(ctx, query, id), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPaperRepository.Delete: %w", err)
	}
	return p, nil
}

func (r *pgPaperRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "papers", "pgPaperRepository.Count")
}
