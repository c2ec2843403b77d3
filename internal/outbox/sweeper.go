package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/vidmark/platform/internal/domain"
	"github.com/vidmark/platform/internal/notify"
	"github.com/vidmark/platform/internal/repository"
)

// EventStore is the persistence surface the sweeper needs. The claim
// semantics live behind it: process runs while the caller holds an exclusive
// claim on the row, and the published mark commits together with process's
// effects. A failed process leaves the row pending.
type EventStore interface {
	// ListUnpublished returns pending events in insertion order.
	ListUnpublished(ctx context.Context, limit int) ([]domain.DomainEvent, error)

	// WithClaim claims one pending event, runs process, and marks the event
	// published. Returns claimed=false when the row is already published or
	// claimed by a concurrent sweeper.
	WithClaim(ctx context.Context, id int64, process func(ctx context.Context, db repository.DBTX, event *domain.DomainEvent) error) (claimed bool, err error)
}

// Relay forwards published typed events to a downstream broker. Optional.
type Relay interface {
	Publish(ctx context.Context, event *domain.DomainEvent) error
}

// Result is one sweep cycle's outcome. Skipped counts rows claimed by a
// concurrent sweeper between the listing and the claim.
type Result struct {
	Published int `json:"published"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Sweeper loads all pending outbox rows and publishes each one, marking every
// successfully dispatched row published immediately. One bad event never
// blocks the rest of the sweep; its row stays pending and is retried on the
// next cycle.
type Sweeper struct {
	store           EventStore
	registry        *Registry
	gateway         notify.Gateway
	notifications   repository.NotificationRepository
	relay           Relay
	logger          *slog.Logger
	batchSize       int
	dispatchTimeout time.Duration
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithBatchSize caps how many pending rows one sweep loads.
func WithBatchSize(n int) SweeperOption {
	return func(s *Sweeper) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithDispatchTimeout bounds each event's delivery attempt.
func WithDispatchTimeout(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.dispatchTimeout = d
		}
	}
}

// WithRelay forwards published typed events to a downstream broker. A relay
// failure counts as a dispatch failure and the event is retried.
func WithRelay(relay Relay) SweeperOption {
	return func(s *Sweeper) { s.relay = relay }
}

// NewSweeper creates a sweeper over the given store and dispatch routes.
func NewSweeper(
	store EventStore,
	registry *Registry,
	gateway notify.Gateway,
	notifications repository.NotificationRepository,
	logger *slog.Logger,
	opts ...SweeperOption,
) *Sweeper {
	s := &Sweeper{
		store:           store,
		registry:        registry,
		gateway:         gateway,
		notifications:   notifications,
		logger:          logger,
		batchSize:       100,
		dispatchTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep runs one pass over all pending events. A cancelled context stops the
// pass; already-published rows stay published and the rest are retried on the
// next cycle.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var res Result

	events, err := s.store.ListUnpublished(ctx, s.batchSize)
	if err != nil {
		return res, err
	}
	if len(events) == 0 {
		return res, nil
	}

	s.logger.Info("publishing domain events", "count", len(events))

	for i := range events {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		event := &events[i]
		claimed, err := s.store.WithClaim(ctx, event.ID, s.dispatch)
		if err != nil {
			res.Failed++
			s.logger.Error("domain event publish failed",
				"event_id", event.ID,
				"event_type", eventTypeLabel(event),
				"message_content", event.Message,
				"payload", string(event.EventData),
				"error", err,
			)
			continue
		}
		if !claimed {
			res.Skipped++
			continue
		}
		res.Published++
	}

	if res.Published > 0 {
		s.logger.Info("domain events published", "published", res.Published)
	}
	if res.Failed > 0 {
		s.logger.Warn("domain events failed, will retry next sweep", "failed", res.Failed)
	}
	return res, nil
}

// dispatch delivers one claimed event. db is the claim's transaction, so the
// notification row commits atomically with the published mark.
func (s *Sweeper) dispatch(ctx context.Context, db repository.DBTX, event *domain.DomainEvent) error {
	ctx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()

	if event.IsTyped() {
		return s.dispatchTyped(ctx, event)
	}

	notification := &domain.Notification{
		RecipientID: event.UserID,
		Content:     event.Message,
		OccurredAt:  event.OccurredAt,
	}
	if err := s.notifications.Insert(ctx, db, notification); err != nil {
		return err
	}
	return s.gateway.SendToUser(ctx, event.UserID, notify.KindNotification, notification)
}

func (s *Sweeper) dispatchTyped(ctx context.Context, event *domain.DomainEvent) error {
	handler, ok := s.registry.Lookup(*event.EventType)
	if !ok {
		// An unknown tag means no deployed code can ever handle it; retrying
		// forever would only repeat this warning. The event is marked
		// published and permanently skipped.
		s.logger.Warn("unknown event type", "event_id", event.ID, "event_type", *event.EventType)
		return nil
	}
	if err := handler(ctx, event); err != nil {
		return err
	}
	if s.relay != nil {
		return s.relay.Publish(ctx, event)
	}
	return nil
}

func eventTypeLabel(event *domain.DomainEvent) string {
	if event.IsTyped() {
		return *event.EventType
	}
	return "notification"
}
