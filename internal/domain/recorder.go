package domain

import (
	"encoding/json"
	"fmt"
)

// EventRecorder is the transient per-aggregate buffer of pending events.
// Business methods append to it; the unit of work drains it at commit time.
// It is not safe for concurrent use — an aggregate instance belongs to a
// single request.
type EventRecorder struct {
	pending []PendingEvent
}

// Record appends a legacy free-text event for the given acting user.
func (r *EventRecorder) Record(message, userID string) {
	r.pending = append(r.pending, PendingEvent{
		UserID:  userID,
		Message: message,
	})
}

// RecordTyped appends a typed event, serializing the payload to JSON.
func (r *EventRecorder) RecordTyped(eventType string, payload interface{}, userID string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	r.pending = append(r.pending, PendingEvent{
		UserID:    userID,
		EventType: eventType,
		EventData: data,
	})
	return nil
}

// Drain returns all pending events and empties the buffer. No event is ever
// returned twice.
func (r *EventRecorder) Drain() []PendingEvent {
	drained := r.pending
	r.pending = nil
	return drained
}

// PendingCount returns the number of not-yet-harvested events.
func (r *EventRecorder) PendingCount() int {
	return len(r.pending)
}
