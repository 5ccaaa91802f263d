package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"paperarchive/internal/common"

	"github.com/jackc/pgx/v5/pgconn"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// nullIfEmpty stores optional text as NULL rather than "".
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// escapeLike makes s match literally inside a LIKE/ILIKE pattern using '\' as the escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// mapWriteError translates Postgres constraint errors into domain errors.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %s: %w", op, pgErr.Detail, common.ErrConflict)
		case "23503":
			return fmt.Errorf("%s: referenced category does not exist: %w", op, common.ErrBadRequest)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// missingOrStale decides why an id-scoped UPDATE touched no row.
func missingOrStale(ctx context.Context, db *sql.DB, table, id, op string) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE id = $1)`
	if err := db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return fmt.Errorf("%s: %w", op, common.ErrVersionConflict)
	}
	return fmt.Errorf("%s: %w", op, common.ErrNotFound)
}

func countRows(ctx context.Context, db *sql.DB, table, op string) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
