package inmem

import (
	"context"
	"fmt"

	"paperarchive/internal/common"
	"paperarchive/internal/domain/model"
	"paperarchive/internal/domain/repository"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(_ context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == user.Email {
			return fmt.Errorf("inmem.UserRepository.Create: email %q taken: %w", user.Email, common.ErrConflict)
		}
	}
	user.CreatedAt = r.db.tick()
	cp := *user
	r.db.users[user.ID] = &cp
	return nil
}

func (r *userRepository) UpdatePassword(_ context.Context, id, hashedPassword string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.HashedPassword = hashedPassword
	return nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *userRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if u, ok := r.db.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

type roleRepository struct {
	db *DB
}

func NewRoleRepository(db *DB) repository.RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) HasRole(_ context.Context, userID, role string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.db.roles[userID][role]
	return ok, nil
}

func (r *roleRepository) Grant(_ context.Context, userID, role string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.roles[userID] == nil {
		r.db.roles[userID] = make(map[string]struct{})
	}
	r.db.roles[userID][role] = struct{}{}
	return nil
}
