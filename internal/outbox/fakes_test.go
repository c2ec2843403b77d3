package outbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vidmark/platform/internal/domain"
	"github.com/vidmark/platform/internal/notify"
	"github.com/vidmark/platform/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTx satisfies the unit of work's Tx interface without a database.
type fakeTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, nil
}
func (t *fakeTx) QueryRow(context.Context, string, ...interface{}) pgx.Row { return nil }

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

// fakeEventRepo captures harvested rows in memory.
type fakeEventRepo struct {
	mu        sync.Mutex
	inserted  []domain.DomainEvent
	insertErr error
	nextID    int64
}

func (r *fakeEventRepo) Insert(_ context.Context, _ repository.DBTX, events []domain.DomainEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
		r.nextID++
		events[i].ID = r.nextID
		r.inserted = append(r.inserted, events[i])
	}
	return nil
}

func (r *fakeEventRepo) ListUnpublished(context.Context, repository.DBTX, int) ([]domain.DomainEvent, error) {
	return nil, nil
}

func (r *fakeEventRepo) LockUnpublished(context.Context, pgx.Tx, int64) (*domain.DomainEvent, error) {
	return nil, nil
}

func (r *fakeEventRepo) MarkPublished(context.Context, repository.DBTX, int64, time.Time) (bool, error) {
	return false, nil
}

func (r *fakeEventRepo) CountUnpublished(context.Context, repository.DBTX) (int, error) {
	return 0, nil
}

// fakeStore is an in-memory EventStore with single-process claim semantics.
type fakeStore struct {
	mu      sync.Mutex
	events  []domain.DomainEvent
	listErr error
}

func (s *fakeStore) add(events ...domain.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range events {
		ev.ID = int64(len(s.events) + 1)
		s.events = append(s.events, ev)
	}
}

func (s *fakeStore) ListUnpublished(_ context.Context, limit int) ([]domain.DomainEvent, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []domain.DomainEvent
	for _, ev := range s.events {
		if !ev.Published && len(pending) < limit {
			pending = append(pending, ev)
		}
	}
	return pending, nil
}

func (s *fakeStore) WithClaim(ctx context.Context, id int64, process func(ctx context.Context, db repository.DBTX, event *domain.DomainEvent) error) (bool, error) {
	s.mu.Lock()
	var event *domain.DomainEvent
	for i := range s.events {
		if s.events[i].ID == id {
			event = &s.events[i]
			break
		}
	}
	s.mu.Unlock()

	if event == nil || event.Published {
		return false, nil
	}
	if err := process(ctx, nil, event); err != nil {
		return false, err
	}

	s.mu.Lock()
	event.MarkPublished(time.Now().UTC())
	s.mu.Unlock()
	return true, nil
}

func (s *fakeStore) publishedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, ev := range s.events {
		if ev.Published {
			count++
		}
	}
	return count
}

func (s *fakeStore) find(id int64) domain.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return ev
		}
	}
	return domain.DomainEvent{}
}

// fakeGateway records pushes and can fail on demand.
type fakeGateway struct {
	mu     sync.Mutex
	sent   []push
	failOn func(userID string, kind notify.Kind) error
}

type push struct {
	userID  string
	kind    notify.Kind
	payload interface{}
}

func (g *fakeGateway) SendToUser(_ context.Context, userID string, kind notify.Kind, payload interface{}) error {
	if g.failOn != nil {
		if err := g.failOn(userID, kind); err != nil {
			return err
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, push{userID: userID, kind: kind, payload: payload})
	return nil
}

func (g *fakeGateway) pushes() []push {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]push(nil), g.sent...)
}

// fakeNotifications is an in-memory NotificationRepository.
type fakeNotifications struct {
	mu        sync.Mutex
	rows      []domain.Notification
	insertErr error
}

func (r *fakeNotifications) Insert(_ context.Context, _ repository.DBTX, n *domain.Notification) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = int64(len(r.rows) + 1)
	n.CreatedAt = time.Now().UTC()
	r.rows = append(r.rows, *n)
	return nil
}

func (r *fakeNotifications) ListByRecipient(_ context.Context, _ repository.DBTX, recipientID string, limit int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.rows {
		if n.RecipientID == recipientID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

// fakeRelay records relayed events and can fail on demand.
type fakeRelay struct {
	mu       sync.Mutex
	relayed  []int64
	relayErr error
}

func (r *fakeRelay) Publish(_ context.Context, event *domain.DomainEvent) error {
	if r.relayErr != nil {
		return r.relayErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relayed = append(r.relayed, event.ID)
	return nil
}

func legacyEvent(userID, message string) domain.DomainEvent {
	return domain.NewDomainEvent(domain.PendingEvent{UserID: userID, Message: message}, time.Now().UTC())
}

func typedEvent(userID, eventType string, data string) domain.DomainEvent {
	return domain.NewDomainEvent(domain.PendingEvent{
		UserID:    userID,
		EventType: eventType,
		EventData: []byte(data),
	}, time.Now().UTC())
}

var errBoom = fmt.Errorf("boom")
