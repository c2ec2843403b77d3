package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainEvent_Legacy(t *testing.T) {
	now := time.Now().UTC()
	ev := NewDomainEvent(PendingEvent{UserID: "u1", Message: "hello"}, now)

	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, "hello", ev.Message)
	assert.Nil(t, ev.EventType)
	assert.Nil(t, ev.EventData)
	assert.Equal(t, now, ev.OccurredAt)
	assert.False(t, ev.Published)
	assert.False(t, ev.IsTyped())
	require.NoError(t, ev.Validate())
}

func TestNewDomainEvent_Typed(t *testing.T) {
	ev := NewDomainEvent(PendingEvent{
		UserID:    "u1",
		EventType: EventReportGenerated,
		EventData: json.RawMessage(`{"projectId":"p","reportId":"r"}`),
	}, time.Now().UTC())

	require.NotNil(t, ev.EventType)
	assert.Equal(t, EventReportGenerated, *ev.EventType)
	assert.True(t, ev.IsTyped())
	require.NoError(t, ev.Validate())
}

func TestDomainEvent_Validate(t *testing.T) {
	typ := EventReportGenerated

	t.Run("type without data rejected", func(t *testing.T) {
		ev := DomainEvent{UserID: "u1", EventType: &typ}
		assert.Error(t, ev.Validate())
	})

	t.Run("data without type rejected", func(t *testing.T) {
		ev := DomainEvent{UserID: "u1", Message: "m", EventData: json.RawMessage(`{}`)}
		assert.Error(t, ev.Validate())
	})

	t.Run("untyped without message rejected", func(t *testing.T) {
		ev := DomainEvent{UserID: "u1"}
		assert.Error(t, ev.Validate())
	})

	t.Run("typed with data accepted", func(t *testing.T) {
		ev := DomainEvent{UserID: "u1", EventType: &typ, EventData: json.RawMessage(`{}`)}
		assert.NoError(t, ev.Validate())
	})
}

func TestDomainEvent_MarkPublishedOnce(t *testing.T) {
	ev := NewDomainEvent(PendingEvent{UserID: "u1", Message: "m"}, time.Now().UTC())

	first := time.Now().UTC()
	ev.MarkPublished(first)
	require.True(t, ev.Published)
	require.NotNil(t, ev.PublishedAt)
	assert.Equal(t, first, *ev.PublishedAt)

	// second call must not move the marker
	ev.MarkPublished(first.Add(time.Hour))
	assert.Equal(t, first, *ev.PublishedAt)
}
