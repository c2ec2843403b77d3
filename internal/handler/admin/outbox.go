package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidmark/platform/internal/domain"
	"github.com/vidmark/platform/internal/handler"
	"github.com/vidmark/platform/internal/outbox"
	"github.com/vidmark/platform/internal/repository"
)

// OutboxHandler exposes operator visibility into the event log: pending
// backlog inspection and a manual sweep trigger.
type OutboxHandler struct {
	pool    *pgxpool.Pool
	events  repository.EventRepository
	sweeper *outbox.Sweeper
}

// NewOutboxHandler creates a new OutboxHandler.
func NewOutboxHandler(pool *pgxpool.Pool, events repository.EventRepository, sweeper *outbox.Sweeper) *OutboxHandler {
	return &OutboxHandler{pool: pool, events: events, sweeper: sweeper}
}

type pendingEvent struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	Message    string    `json:"message"`
	EventType  *string   `json:"event_type,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ListPending handles GET /admin/outbox/pending.
func (h *OutboxHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	total, err := h.events.CountUnpublished(r.Context(), h.pool)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("count pending events", err))
		return
	}

	events, err := h.events.ListUnpublished(r.Context(), h.pool, limit)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("list pending events", err))
		return
	}

	items := make([]pendingEvent, 0, len(events))
	for _, e := range events {
		items = append(items, pendingEvent{
			ID:         e.ID,
			UserID:     e.UserID,
			Message:    e.Message,
			EventType:  e.EventType,
			OccurredAt: e.OccurredAt,
		})
	}

	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"total":  total,
		"events": items,
	})
}

// Sweep handles POST /admin/outbox/sweep: one manual sweep, returning the
// publish/fail/skip tally.
func (h *OutboxHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("sweep outbox", err))
		return
	}
	handler.RespondJSON(w, http.StatusOK, result)
}
