package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/vidmark/platform/internal/domain"
	"github.com/vidmark/platform/internal/notify"
)

// Handler dispatches one typed event. The event's payload has already passed
// the co-presence check; the handler owns deserialization.
type Handler func(ctx context.Context, event *domain.DomainEvent) error

// Registry maps event-type tags to handlers. New event kinds register here at
// startup; the sweeper's dispatch logic never changes.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to an event type. Duplicate registration is a
// wiring bug and fails loudly.
func (r *Registry) Register(eventType string, handler Handler) error {
	if eventType == "" {
		return fmt.Errorf("event type is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required for %s", eventType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[eventType]; exists {
		return fmt.Errorf("handler already registered for %s", eventType)
	}
	r.handlers[eventType] = handler
	return nil
}

// Lookup returns the handler for an event type.
func (r *Registry) Lookup(eventType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[eventType]
	return h, ok
}

// RegisterDefaultRoutes wires the known typed events to the push gateway.
func RegisterDefaultRoutes(registry *Registry, gateway notify.Gateway) error {
	return registry.Register(domain.EventReportGenerated, func(ctx context.Context, event *domain.DomainEvent) error {
		var data domain.ReportGeneratedData
		if err := json.Unmarshal(event.EventData, &data); err != nil {
			return fmt.Errorf("decode %s payload: %w", domain.EventReportGenerated, err)
		}
		return gateway.SendToUser(ctx, event.UserID, notify.KindReportGenerated, data)
	})
}
