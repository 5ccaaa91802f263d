package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paperarchive/internal/common"
	"paperarchive/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id, hashedPassword string) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// RoleRepository reads the user_roles table. User ids may come from the local
// users table or from the hosted auth provider, so there is no foreign key.
type RoleRepository interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
	Grant(ctx context.Context, userID, role string) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, email, hashed_password)
	          VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.HashedPassword)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET hashed_password = $2 WHERE id = $1`, id, hashedPassword)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdatePassword: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgUserRepository) findOne(ctx context.Context, op, column, value string) (*model.User, error) {
	query := `SELECT id, email, hashed_password, created_at FROM users WHERE ` + column + ` = $1`
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(&user.ID, &user.Email, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "pgUserRepository.FindByEmail", "email", email)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "pgUserRepository.FindByID", "id", id)
}

type pgRoleRepository struct {
	db *sql.DB
}

func NewPgRoleRepository(db *sql.DB) RoleRepository {
	return &pgRoleRepository{db: db}
}

func (r *pgRoleRepository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var ok bool
	query := `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`
	if err := r.db.QueryRowContext(ctx, query, userID, role).Scan(&ok); err != nil {
		return false, fmt.Errorf("pgRoleRepository.HasRole: %w", err)
	}
	return ok, nil
}

func (r *pgRoleRepository) Grant(ctx context.Context, userID, role string) error {
	query := `INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, role); err != nil {
		return fmt.Errorf("pgRoleRepository.Grant: %w", err)
	}
	return nil
}
