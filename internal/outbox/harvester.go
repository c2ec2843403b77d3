package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/vidmark/platform/internal/domain"
	"github.com/vidmark/platform/internal/repository"
)

// Tx is the narrow transaction surface the unit of work needs. pgx.Tx
// satisfies it.
type Tx interface {
	repository.DBTX
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Aggregate is any entity carrying a pending-event buffer.
type Aggregate interface {
	Drain() []domain.PendingEvent
}

// SoftDeletable is an aggregate following the soft-delete convention.
// Deleting one through the unit of work always yields an audit event, even
// when no business method recorded anything.
type SoftDeletable interface {
	Aggregate
	Label() string
	MarkDeleted(at time.Time)
	Record(message, userID string)
}

// UnitOfWork wraps a pgx transaction and harvests aggregate event buffers at
// commit time, inserting the drained events into the domain_events log within
// the same transaction as the business mutation. A harvest failure aborts the
// whole transaction.
type UnitOfWork struct {
	tx      Tx
	events  repository.EventRepository
	actorID string
	now     func() time.Time

	tracked []Aggregate
	deleted []SoftDeletable
	done    bool
}

// NewUnitOfWork creates a unit of work bound to an open transaction, acting
// on behalf of the given user.
func NewUnitOfWork(tx Tx, events repository.EventRepository, actorID string) *UnitOfWork {
	return &UnitOfWork{
		tx:      tx,
		events:  events,
		actorID: actorID,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Tx exposes the wrapped transaction for repository calls.
func (u *UnitOfWork) Tx() Tx { return u.tx }

// Track registers an aggregate whose buffer is drained at commit. Tracking
// the same instance twice is harmless: the first drain empties the buffer.
func (u *UnitOfWork) Track(agg Aggregate) {
	u.tracked = append(u.tracked, agg)
}

// Delete soft-deletes an aggregate: the deletion timestamp is set right away
// so the caller can persist it, and the audit event is synthesized at commit.
func (u *UnitOfWork) Delete(agg SoftDeletable) {
	agg.MarkDeleted(u.now())
	u.deleted = append(u.deleted, agg)
	u.tracked = append(u.tracked, agg)
}

// Commit synthesizes soft-delete events, drains every tracked buffer in
// discovery order, inserts the harvested rows, and commits the transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}
	u.done = true

	u.synthesizeDeletions()

	harvested := u.harvest()
	if len(harvested) > 0 {
		if err := u.events.Insert(ctx, u.tx, harvested); err != nil {
			return fmt.Errorf("harvest events: %w", err)
		}
	}

	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. Safe to defer alongside Commit.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	return u.tx.Rollback(ctx)
}

// synthesizeDeletions appends one audit event per soft-deleted aggregate,
// before drainage, so deletions stay auditable regardless of what the domain
// methods recorded.
func (u *UnitOfWork) synthesizeDeletions() {
	actor := u.actorID
	if actor == "" {
		actor = "system"
	}
	for _, agg := range u.deleted {
		agg.Record(domain.MsgEntityDeleted(agg.Label()), actor)
	}
}

func (u *UnitOfWork) harvest() []domain.DomainEvent {
	occurredAt := u.now()

	var rows []domain.DomainEvent
	for _, agg := range u.tracked {
		for _, pending := range agg.Drain() {
			rows = append(rows, domain.NewDomainEvent(pending, occurredAt))
		}
	}
	return rows
}
