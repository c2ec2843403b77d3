package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType tags for typed domain events. An event without a tag is a legacy
// free-text notification delivered as-is to the recipient.
const (
	EventReportGenerated = "ReportGeneratedEvent"
)

// PendingEvent is an event recorded on an aggregate but not yet harvested
// into the durable event log. It never crosses a transaction boundary.
type PendingEvent struct {
	UserID    string
	Message   string
	EventType string
	EventData json.RawMessage
}

// DomainEvent is a row of the domain_events table: the durable, append-only
// log of everything that happened. Rows are never deleted; Published flips
// false -> true exactly once.
type DomainEvent struct {
	ID          int64
	UserID      string
	Message     string
	EventType   *string
	EventData   json.RawMessage
	OccurredAt  time.Time
	Published   bool
	PublishedAt *time.Time
}

// NewDomainEvent converts a drained pending event into a durable row.
// The ID is assigned by the database on insert.
func NewDomainEvent(pending PendingEvent, occurredAt time.Time) DomainEvent {
	ev := DomainEvent{
		UserID:     pending.UserID,
		Message:    pending.Message,
		OccurredAt: occurredAt,
	}
	if pending.EventType != "" {
		t := pending.EventType
		ev.EventType = &t
		ev.EventData = pending.EventData
	}
	return ev
}

// Validate enforces the co-presence invariant: EventType and EventData are
// both present or both absent, and untyped events must carry a message.
func (e *DomainEvent) Validate() error {
	typed := e.EventType != nil && *e.EventType != ""
	if typed && len(e.EventData) == 0 {
		return ErrValidation(fmt.Sprintf("event type %q requires event data", *e.EventType))
	}
	if !typed && len(e.EventData) > 0 {
		return ErrValidation("event data requires an event type")
	}
	if !typed && e.Message == "" {
		return ErrValidation("untyped event requires message content")
	}
	return nil
}

// IsTyped reports whether the event carries a typed payload.
func (e *DomainEvent) IsTyped() bool {
	return e.EventType != nil && *e.EventType != ""
}

// MarkPublished records the published transition. No-op if already published.
func (e *DomainEvent) MarkPublished(at time.Time) {
	if e.Published {
		return
	}
	e.Published = true
	e.PublishedAt = &at
}

// ReportGeneratedData is the payload of EventReportGenerated.
type ReportGeneratedData struct {
	ProjectID uuid.UUID `json:"projectId"`
	ReportID  uuid.UUID `json:"reportId"`
}
