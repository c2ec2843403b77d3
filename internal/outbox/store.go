package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidmark/platform/internal/domain"
	"github.com/vidmark/platform/internal/repository"
)

// PgEventStore implements EventStore on Postgres. Claiming is done by
// re-selecting the row FOR UPDATE SKIP LOCKED inside a short per-event
// transaction: concurrent sweepers skip locked rows instead of dispatching
// them twice, and a failed dispatch rolls the claim back so the row stays
// pending with is_published untouched.
type PgEventStore struct {
	pool   *pgxpool.Pool
	events repository.EventRepository
}

// NewPgEventStore creates a Postgres-backed event store.
func NewPgEventStore(pool *pgxpool.Pool, events repository.EventRepository) *PgEventStore {
	return &PgEventStore{pool: pool, events: events}
}

func (s *PgEventStore) ListUnpublished(ctx context.Context, limit int) ([]domain.DomainEvent, error) {
	return s.events.ListUnpublished(ctx, s.pool, limit)
}

func (s *PgEventStore) WithClaim(ctx context.Context, id int64, process func(ctx context.Context, db repository.DBTX, event *domain.DomainEvent) error) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback(ctx)

	event, err := s.events.LockUnpublished(ctx, tx, id)
	if err != nil {
		return false, fmt.Errorf("lock event %d: %w", id, err)
	}
	if event == nil {
		// published or claimed elsewhere since the listing
		return false, nil
	}

	if err := process(ctx, tx, event); err != nil {
		return false, err
	}

	marked, err := s.events.MarkPublished(ctx, tx, id, time.Now().UTC())
	if err != nil {
		return false, err
	}
	if !marked {
		// unreachable while we hold the row lock, but never publish twice
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit claim: %w", err)
	}
	return true, nil
}
