package service

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidmark/platform/internal/domain"
	"github.com/vidmark/platform/internal/repository"
)

// NotificationService serves the persisted notification feed. Clients that
// were offline when an event was published fetch what they missed from here.
type NotificationService struct {
	pool          *pgxpool.Pool
	notifications repository.NotificationRepository
	logger        *slog.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(pool *pgxpool.Pool, notifications repository.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{pool: pool, notifications: notifications, logger: logger}
}

// ListForUser returns the user's most recent notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	items, err := s.notifications.ListByRecipient(ctx, s.pool, userID, limit)
	if err != nil {
		return nil, domain.ErrInternal("list notifications", err)
	}
	return items, nil
}
