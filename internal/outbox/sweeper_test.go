package outbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidmark/platform/internal/domain"
	"github.com/vidmark/platform/internal/notify"
)

func newTestSweeper(t *testing.T, store *fakeStore, opts ...SweeperOption) (*Sweeper, *fakeGateway, *fakeNotifications) {
	t.Helper()
	gateway := &fakeGateway{}
	notifications := &fakeNotifications{}
	registry := NewRegistry()
	require.NoError(t, RegisterDefaultRoutes(registry, gateway))
	return NewSweeper(store, registry, gateway, notifications, testLogger(), opts...), gateway, notifications
}

func TestSweeper_NoPendingEventsIsNoop(t *testing.T) {
	store := &fakeStore{}
	sweeper, gateway, notifications := newTestSweeper(t, store)

	res, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, gateway.pushes())
	assert.Empty(t, notifications.rows)
}

func TestSweeper_PublishesLegacyEvents(t *testing.T) {
	store := &fakeStore{}
	store.add(
		legacyEvent("u1", "Project has been created!"),
		legacyEvent("u2", "Subject has been updated!"),
	)
	sweeper, gateway, notifications := newTestSweeper(t, store)

	res, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Published: 2}, res)
	assert.Equal(t, 2, store.publishedCount())

	// one notification row per legacy event, pushed to its recipient
	require.Len(t, notifications.rows, 2)
	assert.Equal(t, "u1", notifications.rows[0].RecipientID)
	assert.Equal(t, "Project has been created!", notifications.rows[0].Content)

	pushes := gateway.pushes()
	require.Len(t, pushes, 2)
	assert.Equal(t, notify.KindNotification, pushes[0].kind)
	assert.Equal(t, "u1", pushes[0].userID)
}

func TestSweeper_RoutesTypedEvent(t *testing.T) {
	store := &fakeStore{}
	store.add(
		legacyEvent("u1", "first"),
		legacyEvent("u1", "second"),
		typedEvent("u1", domain.EventReportGenerated,
			`{"projectId":"70b92cbf-74f0-4b63-9a3f-9e5f81ce0a0d","reportId":"1b4e1f7e-7b5f-4b7e-9a52-6f3bb0a5d9c1"}`),
	)
	sweeper, gateway, _ := newTestSweeper(t, store)

	res, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Published: 3}, res)
	assert.Equal(t, 3, store.publishedCount())

	pushes := gateway.pushes()
	require.Len(t, pushes, 3)
	typed := pushes[2]
	assert.Equal(t, notify.KindReportGenerated, typed.kind)
	data, ok := typed.payload.(domain.ReportGeneratedData)
	require.True(t, ok)
	assert.Equal(t, "70b92cbf-74f0-4b63-9a3f-9e5f81ce0a0d", data.ProjectID.String())
}

func TestSweeper_SecondSweepPublishesNothing(t *testing.T) {
	store := &fakeStore{}
	store.add(legacyEvent("u1", "once"))
	sweeper, _, _ := newTestSweeper(t, store)

	first, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Published)

	second, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, second)
}

func TestSweeper_FailureIsolation(t *testing.T) {
	store := &fakeStore{}
	store.add(
		legacyEvent("u1", "first"),
		legacyEvent("poisoned", "second"),
		legacyEvent("u3", "third"),
	)
	sweeper, gateway, _ := newTestSweeper(t, store)
	gateway.failOn = func(userID string, _ notify.Kind) error {
		if userID == "poisoned" {
			return errBoom
		}
		return nil
	}

	res, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Published: 2, Failed: 1}, res)

	// 1st and 3rd published, 2nd still pending
	assert.True(t, store.find(1).Published)
	assert.False(t, store.find(2).Published)
	assert.True(t, store.find(3).Published)

	// once the fault clears, the next sweep retries only the pending row
	gateway.failOn = nil
	res, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Published: 1}, res)
	assert.True(t, store.find(2).Published)
}

func TestSweeper_UnknownEventTypeIsSkippedPermanently(t *testing.T) {
	store := &fakeStore{}
	store.add(typedEvent("u1", "RetiredEvent", `{"x":1}`))
	sweeper, gateway, _ := newTestSweeper(t, store)

	res, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Published: 1}, res)
	assert.Empty(t, gateway.pushes())

	// never retried
	res, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestSweeper_MalformedTypedPayloadStaysPending(t *testing.T) {
	store := &fakeStore{}
	store.add(typedEvent("u1", domain.EventReportGenerated, `{not json`))
	sweeper, _, _ := newTestSweeper(t, store)

	res, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)
	assert.False(t, store.find(1).Published)
}

func TestSweeper_NotificationInsertFailureStaysPending(t *testing.T) {
	store := &fakeStore{}
	store.add(legacyEvent("u1", "msg"))
	sweeper, gateway, notifications := newTestSweeper(t, store)
	notifications.insertErr = errBoom

	res, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)
	assert.False(t, store.find(1).Published)
	assert.Empty(t, gateway.pushes())
}

func TestSweeper_RelayFailureRetries(t *testing.T) {
	store := &fakeStore{}
	store.add(typedEvent("u1", domain.EventReportGenerated,
		`{"projectId":"70b92cbf-74f0-4b63-9a3f-9e5f81ce0a0d","reportId":"1b4e1f7e-7b5f-4b7e-9a52-6f3bb0a5d9c1"}`))

	relay := &fakeRelay{relayErr: errBoom}
	sweeper, _, _ := newTestSweeper(t, store, WithRelay(relay))

	res, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)
	assert.False(t, store.find(1).Published)

	relay.relayErr = nil
	res, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Published: 1}, res)
	assert.Equal(t, []int64{1}, relay.relayed)
}

func TestSweeper_CancelledContextStopsSweep(t *testing.T) {
	store := &fakeStore{}
	store.add(legacyEvent("u1", "a"), legacyEvent("u1", "b"))
	sweeper, _, _ := newTestSweeper(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sweeper.Sweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.publishedCount())
}

func TestSweeper_BatchSizeLimitsOneSweep(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 5; i++ {
		store.add(legacyEvent("u1", "msg"))
	}
	sweeper, _, _ := newTestSweeper(t, store, WithBatchSize(2))

	res, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Published)

	// remaining rows drain on subsequent sweeps
	res, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Published)
}
