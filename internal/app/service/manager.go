package service

import (
	"context"
	"fmt"

	"paperarchive/internal/app/inflight"
	"paperarchive/internal/app/query"
	"paperarchive/internal/common"

	"go.uber.org/zap"
)

// Normalizer trims and canonicalizes form input before validation.
type Normalizer[In any] interface {
	Normalized() In
}

// Store is the table access a Manager needs.
type Store[T any, In any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, in In) (*T, error)
	Update(ctx context.Context, id string, in In) (*T, error)
	Delete(ctx context.Context, id string) (*T, error)
}

// finder is implemented by stores that can load a row before it is changed.
type finder[T any] interface {
	FindByID(ctx context.Context, id string) (*T, error)
}

// Deps are the collaborators every Manager shares.
type Deps struct {
	Queries   *query.Client
	Guard     inflight.Guard
	Validator *common.Validator
	Log       *zap.Logger
}

type ManagerOptions[T any] struct {
	// ListKey caches the admin listing.
	ListKey query.Key
	// Invalidates names the cached reads a successful write makes stale.
	Invalidates []string
	// OnWrite runs after a successful write. before is nil on create, and on
	// update when the store cannot load rows by id; after is nil on delete.
	OnWrite func(ctx context.Context, before, after *T)
}

// Manager is the list/create/edit/delete workflow shared by the admin screens.
// Nothing changes until the store call succeeds; cached reads are invalidated
// only afterwards. Mutations are serialized per row, never per entity.
type Manager[T any, In Normalizer[In]] struct {
	entity string
	store  Store[T, In]
	deps   Deps
	opts   ManagerOptions[T]
}

func NewManager[T any, In Normalizer[In]](entity string, store Store[T, In], deps Deps, opts ManagerOptions[T]) *Manager[T, In] {
	if opts.ListKey.Name == "" {
		opts.ListKey = query.NewKey(entity, "all")
	}
	return &Manager[T, In]{entity: entity, store: store, deps: deps, opts: opts}
}

func (m *Manager[T, In]) Entity() string {
	return m.entity
}

func (m *Manager[T, In]) List(ctx context.Context) ([]T, error) {
	items, err := query.Fetch(ctx, m.deps.Queries, m.opts.ListKey, m.store.List)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", m.entity, err)
	}
	return items, nil
}

// validate runs before any backend call; a failure leaves the store untouched.
func (m *Manager[T, In]) validate(in In) (In, error) {
	in = in.Normalized()
	if err := m.deps.Validator.Struct(in); err != nil {
		return in, err
	}
	return in, nil
}

func (m *Manager[T, In]) Create(ctx context.Context, in In) (*T, error) {
	in, err := m.validate(in)
	if err != nil {
		return nil, err
	}

	created, err := m.store.Create(ctx, in)
	if err != nil {
		m.deps.Log.Warn("create failed", zap.String("entity", m.entity), zap.Error(err))
		return nil, err
	}

	m.afterWrite(ctx, nil, created)
	m.deps.Log.Info("created", zap.String("entity", m.entity))
	return created, nil
}

func (m *Manager[T, In]) Update(ctx context.Context, id string, in In) (*T, error) {
	in, err := m.validate(in)
	if err != nil {
		return nil, err
	}

	release, err := m.deps.Guard.Acquire(ctx, m.entity, id)
	if err != nil {
		return nil, err
	}
	defer release()

	var before *T
	if f, ok := m.store.(finder[T]); ok && m.opts.OnWrite != nil {
		before, _ = f.FindByID(ctx, id)
	}

	updated, err := m.store.Update(ctx, id, in)
	if err != nil {
		m.deps.Log.Warn("update failed", zap.String("entity", m.entity), zap.String("id", id), zap.Error(err))
		return nil, err
	}

	m.afterWrite(ctx, before, updated)
	m.deps.Log.Info("updated", zap.String("entity", m.entity), zap.String("id", id))
	return updated, nil
}

func (m *Manager[T, In]) Delete(ctx context.Context, id string) error {
	release, err := m.deps.Guard.Acquire(ctx, m.entity, id)
	if err != nil {
		return err
	}
	defer release()

	deleted, err := m.store.Delete(ctx, id)
	if err != nil {
		m.deps.Log.Warn("delete failed", zap.String("entity", m.entity), zap.String("id", id), zap.Error(err))
		return err
	}

	m.afterWrite(ctx, deleted, nil)
	m.deps.Log.Info("deleted", zap.String("entity", m.entity), zap.String("id", id))
	return nil
}

func (m *Manager[T, In]) afterWrite(ctx context.Context, before, after *T) {
	// The write already happened; a failed invalidation only delays freshness.
	_ = m.deps.Queries.Invalidate(ctx, m.opts.Invalidates...)
	if m.opts.OnWrite != nil {
		m.opts.OnWrite(ctx, before, after)
	}
}
