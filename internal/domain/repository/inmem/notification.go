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

type notificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) List(_ context.Context, limit int) ([]model.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	notifications := make([]model.Notification, 0, len(r.db.notifications))
	for _, n := range r.db.notifications {
		notifications = append(notifications, *n)
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	if limit > 0 && len(notifications) > limit {
		notifications = notifications[:limit]
	}
	return notifications, nil
}

func (r *notificationRepository) Create(_ context.Context, in model.NotificationInput) (*model.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	unread := false
	now := r.db.tick()
	n := &model.Notification{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Message:   in.Message,
		IsRead:    &unread,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.db.notifications[n.ID] = n
	cp := *n
	return &cp, nil
}

func (r *notificationRepository) Update(_ context.Context, id string, in model.NotificationInput) (*model.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	n, ok := r.db.notifications[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if stale(in.Precondition, n.UpdatedAt) {
		return nil, fmt.Errorf("inmem.NotificationRepository.Update: %w", common.ErrVersionConflict)
	}
	n.Title = in.Title
	n.Message = in.Message
	n.UpdatedAt = r.db.tick()
	cp := *n
	return &cp, nil
}

func (r *notificationRepository) Delete(_ context.Context, id string) (*model.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	n, ok := r.db.notifications[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(r.db.notifications, id)
	return n, nil
}

func (r *notificationRepository) Count(_ context.Context) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return len(r.db.notifications), nil
}
