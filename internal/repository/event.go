package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vidmark/platform/internal/domain"
)

type eventRepo struct{}

// NewEventRepository returns a pgx-backed EventRepository.
func NewEventRepository() EventRepository {
	return &eventRepo{}
}

func (r *eventRepo) Insert(ctx context.Context, db DBTX, events []domain.DomainEvent) error {
	for i := range events {
		ev := &events[i]
		if err := ev.Validate(); err != nil {
			return fmt.Errorf("validate event: %w", err)
		}
		err := db.QueryRow(ctx, `
			INSERT INTO domain_events (user_id, message_content, event_type, event_data, occurred_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			ev.UserID, ev.Message, ev.EventType, ev.EventData, ev.OccurredAt,
		).Scan(&ev.ID)
		if err != nil {
			return fmt.Errorf("insert domain event: %w", err)
		}
	}
	return nil
}

func (r *eventRepo) ListUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.DomainEvent, error) {
	rows, err := db.Query(ctx, `
		SELECT id, user_id, message_content, event_type, event_data, occurred_at, is_published, published_at
		FROM domain_events
		WHERE is_published = false
		ORDER BY id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished events: %w", err)
	}
	defer rows.Close()

	var events []domain.DomainEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// LockUnpublished holds the row lock until the caller's transaction ends, so
// a concurrent sweeper skips the row instead of dispatching it twice.
func (r *eventRepo) LockUnpublished(ctx context.Context, tx pgx.Tx, id int64) (*domain.DomainEvent, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, user_id, message_content, event_type, event_data, occurred_at, is_published, published_at
		FROM domain_events
		WHERE id = $1 AND is_published = false
		FOR UPDATE SKIP LOCKED`, id)

	ev, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *eventRepo) MarkPublished(ctx context.Context, db DBTX, id int64, at time.Time) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE domain_events
		SET is_published = true, published_at = $2
		WHERE id = $1 AND is_published = false`, id, at)
	if err != nil {
		return false, fmt.Errorf("mark event published: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *eventRepo) CountUnpublished(ctx context.Context, db DBTX) (int, error) {
	var count int
	err := db.QueryRow(ctx,
		`SELECT count(*) FROM domain_events WHERE is_published = false`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unpublished events: %w", err)
	}
	return count, nil
}

func scanEvent(row pgx.Row) (*domain.DomainEvent, error) {
	var ev domain.DomainEvent
	err := row.Scan(&ev.ID, &ev.UserID, &ev.Message, &ev.EventType, &ev.EventData,
		&ev.OccurredAt, &ev.Published, &ev.PublishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan domain event: %w", err)
	}
	return &ev, nil
}
