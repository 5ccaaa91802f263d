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

type NotificationRepository interface {
	// List returns notifications newest first; limit <= 0 means all.
	List(ctx context.Context, limit int) ([]model.Notification, error)
	Create(ctx context.Context, in model.NotificationInput) (*model.Notification, error)
	Update(ctx context.Context, id string, in model.NotificationInput) (*model.Notification, error)
	Delete(ctx context.Context, id string) (*model.Notification, error)
	Count(ctx context.Context) (int, error)
}

const notificationColumns = `id, title, message, is_read, created_at, updated_at`

type pgNotificationRepository struct {
	db *sql.DB
}

func NewPgNotificationRepository(db *sql.DB) NotificationRepository {
	return &pgNotificationRepository{db: db}
}

func scanNotification(row rowScanner) (*model.Notification, error) {
	n := &model.Notification{}
	err := row.Scan(&n.ID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func (r *pgNotificationRepository) List(ctx context.Context, limit int) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgNotificationRepository.List: %w", err)
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("pgNotificationRepository.List scan: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgNotificationRepository.List rows: %w", err)
	}
	return notifications, nil
}

func (r *pgNotificationRepository) Create(ctx context.Context, in model.NotificationInput) (*model.Notification, error) {
	query := `INSERT INTO notifications (id, title, message)
	          VALUES ($1, $2, $3)
	          RETURNING ` + notificationColumns
	n, err := scanNotification(r.db.QueryRowContext(ctx, query, uuid.NewString(), in.Title, in.Message))
	if err != nil {
		return nil, mapWriteError("pgNotificationRepository.Create", err)
	}
	return n, nil
}

func (r *pgNotificationRepository) Update(ctx context.Context, id string, in model.NotificationInput) (*model.Notification, error) {
	query := `UPDATE notifications
	          SET title = $2, message = $3, updated_at = now()
	          WHERE id = $1 AND ($4::timestamptz IS NULL OR updated_at = $4)
	          RETURNING ` + notificationColumns
	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id, in.Title, in.Message, in.ExpectedUpdatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, missingOrStale(ctx, r.db, "notifications", id, "pgNotificationRepository.Update")
		}
		return nil, mapWriteError("pgNotificationRepository.Update", err)
	}
	return n, nil
}

func (r *pgNotificationRepository) Delete(ctx context.Context, id string) (*model.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx, `DELETE FROM notifications WHERE id = $1 RETURNING `+notificationColumns, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgNotificationRepository.Delete: %w", err)
	}
	return n, nil
}

func (r *pgNotificationRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "notifications", "pgNotificationRepository.Count")
}
