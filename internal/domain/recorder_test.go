package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRecorder_RecordAndDrain(t *testing.T) {
	var r EventRecorder
	r.Record("first", "u1")
	r.Record("second", "u2")

	require.Equal(t, 2, r.PendingCount())

	drained := r.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "first", drained[0].Message)
	assert.Equal(t, "u1", drained[0].UserID)
	assert.Equal(t, "second", drained[1].Message)
}

func TestEventRecorder_DrainEmptiesBuffer(t *testing.T) {
	var r EventRecorder
	r.Record("only", "u1")

	first := r.Drain()
	require.Len(t, first, 1)

	// no event is ever returned twice
	assert.Empty(t, r.Drain())
	assert.Equal(t, 0, r.PendingCount())
}

func TestEventRecorder_RecordTyped(t *testing.T) {
	var r EventRecorder
	err := r.RecordTyped(EventReportGenerated, map[string]string{"k": "v"}, "u1")
	require.NoError(t, err)

	drained := r.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, EventReportGenerated, drained[0].EventType)
	assert.JSONEq(t, `{"k":"v"}`, string(drained[0].EventData))
	assert.Equal(t, "u1", drained[0].UserID)
}

func TestEventRecorder_RecordTypedMarshalError(t *testing.T) {
	var r EventRecorder
	err := r.RecordTyped(EventReportGenerated, make(chan int), "u1")
	require.Error(t, err)
	assert.Equal(t, 0, r.PendingCount())
}

func TestEventRecorder_OrderPreserved(t *testing.T) {
	var r EventRecorder
	for _, msg := range []string{"a", "b", "c", "d"} {
		r.Record(msg, "u1")
	}

	drained := r.Drain()
	require.Len(t, drained, 4)
	for i, msg := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, msg, drained[i].Message)
	}
}
