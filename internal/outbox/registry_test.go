package outbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidmark/platform/internal/domain"
	"github.com/vidmark/platform/internal/notify"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	handler := func(context.Context, *domain.DomainEvent) error { return nil }

	require.NoError(t, r.Register("SomethingHappened", handler))

	got, ok := r.Lookup("SomethingHappened")
	assert.True(t, ok)
	assert.NotNil(t, got)

	_, ok = r.Lookup("Unknown")
	assert.False(t, ok)
}

func TestRegistry_RejectsBadRegistrations(t *testing.T) {
	r := NewRegistry()
	handler := func(context.Context, *domain.DomainEvent) error { return nil }

	t.Run("empty type", func(t *testing.T) {
		assert.Error(t, r.Register("", handler))
	})

	t.Run("nil handler", func(t *testing.T) {
		assert.Error(t, r.Register("X", nil))
	})

	t.Run("duplicate", func(t *testing.T) {
		require.NoError(t, r.Register("Dup", handler))
		assert.Error(t, r.Register("Dup", handler))
	})
}

func TestRegisterDefaultRoutes_ReportGenerated(t *testing.T) {
	gateway := &fakeGateway{}
	registry := NewRegistry()
	require.NoError(t, RegisterDefaultRoutes(registry, gateway))

	handler, ok := registry.Lookup(domain.EventReportGenerated)
	require.True(t, ok)

	event := typedEvent("owner-1", domain.EventReportGenerated,
		`{"projectId":"70b92cbf-74f0-4b63-9a3f-9e5f81ce0a0d","reportId":"1b4e1f7e-7b5f-4b7e-9a52-6f3bb0a5d9c1"}`)
	require.NoError(t, handler(context.Background(), &event))

	pushes := gateway.pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, "owner-1", pushes[0].userID)
	assert.Equal(t, notify.KindReportGenerated, pushes[0].kind)

	data, ok := pushes[0].payload.(domain.ReportGeneratedData)
	require.True(t, ok)
	assert.Equal(t, "1b4e1f7e-7b5f-4b7e-9a52-6f3bb0a5d9c1", data.ReportID.String())
}

func TestRegisterDefaultRoutes_BadPayload(t *testing.T) {
	gateway := &fakeGateway{}
	registry := NewRegistry()
	require.NoError(t, RegisterDefaultRoutes(registry, gateway))

	handler, _ := registry.Lookup(domain.EventReportGenerated)
	event := typedEvent("owner-1", domain.EventReportGenerated, `not json`)

	assert.Error(t, handler(context.Background(), &event))
	assert.Empty(t, gateway.pushes())
}
