package repository

import (
	"context"
	"fmt"

	"github.com/vidmark/platform/internal/domain"
)

type notificationRepo struct{}

// NewNotificationRepository returns a pgx-backed NotificationRepository.
func NewNotificationRepository() NotificationRepository {
	return &notificationRepo{}
}

func (r *notificationRepo) Insert(ctx context.Context, db DBTX, n *domain.Notification) error {
	err := db.QueryRow(ctx, `
		INSERT INTO notifications (recipient_id, content, occurred_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		n.RecipientID, n.Content, n.OccurredAt,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *notificationRepo) ListByRecipient(ctx context.Context, db DBTX, recipientID string, limit int) ([]domain.Notification, error) {
	rows, err := db.Query(ctx, `
		SELECT id, recipient_id, content, occurred_at, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(&n.ID, &n.RecipientID, &n.Content, &n.OccurredAt, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
