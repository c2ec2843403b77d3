package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vidmark/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// EventRepository provides access to the domain_events log.
type EventRepository interface {
	// Insert appends harvested events to the log. Called by the unit of work
	// within the same transaction as the business mutation.
	Insert(ctx context.Context, db DBTX, events []domain.DomainEvent) error

	// ListUnpublished returns pending events in insertion order.
	ListUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.DomainEvent, error)

	// LockUnpublished re-selects one pending event with FOR UPDATE SKIP LOCKED.
	// Returns nil if the row is already published or locked by another sweeper.
	LockUnpublished(ctx context.Context, tx pgx.Tx, id int64) (*domain.DomainEvent, error)

	// MarkPublished flips is_published for a single row. The update is
	// conditional on is_published = false; the boolean reports whether this
	// caller won the transition.
	MarkPublished(ctx context.Context, db DBTX, id int64, at time.Time) (bool, error)

	// CountUnpublished returns the number of pending events.
	CountUnpublished(ctx context.Context, db DBTX) (int, error)
}

// NotificationRepository provides access to the notifications table.
type NotificationRepository interface {
	Insert(ctx context.Context, db DBTX, n *domain.Notification) error
	ListByRecipient(ctx context.Context, db DBTX, recipientID string, limit int) ([]domain.Notification, error)
}

// ProjectRepository provides access to projects.
type ProjectRepository interface {
	Insert(ctx context.Context, db DBTX, p *domain.Project) error

	// FindByID returns a project by ID, excluding soft-deleted rows.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Project, error)

	// Update persists mutable columns including the soft-delete timestamp.
	Update(ctx context.Context, db DBTX, p *domain.Project) error
}

// SubjectRepository provides access to subjects.
type SubjectRepository interface {
	Insert(ctx context.Context, db DBTX, s *domain.Subject) error
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Subject, error)
	Update(ctx context.Context, db DBTX, s *domain.Subject) error
}

// ReportRepository provides access to generated_reports.
type ReportRepository interface {
	Insert(ctx context.Context, db DBTX, r *domain.GeneratedReport) error
}
