package service

import (
	"context"

	"paperarchive/internal/app/query"
	"paperarchive/internal/domain/model"
	"paperarchive/internal/domain/repository"
)

type NotificationManager = Manager[model.Notification, model.NotificationInput]

// notificationStore lists every notification for the admin screen.
type notificationStore struct {
	repository.NotificationRepository
}

func (s notificationStore) List(ctx context.Context) ([]model.Notification, error) {
	return s.NotificationRepository.List(ctx, 0)
}

func NewNotificationManager(repo repository.NotificationRepository, deps Deps) *NotificationManager {
	return NewManager[model.Notification, model.NotificationInput]("notifications", notificationStore{repo}, deps, ManagerOptions[model.Notification]{
		ListKey:     query.NewKey("notifications", "all"),
		Invalidates: []string{"notifications", "stats"},
	})
}
