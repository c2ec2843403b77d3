package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHub_SendToUserDeliversToAllConnections(t *testing.T) {
	hub := NewHub(testLogger())
	c1 := &Conn{ID: "c1", UserID: "u1", Send: make(chan []byte, 1)}
	c2 := &Conn{ID: "c2", UserID: "u1", Send: make(chan []byte, 1)}
	hub.Join(c1)
	hub.Join(c2)

	err := hub.SendToUser(context.Background(), "u1", KindInfo, map[string]string{"text": "hi"})
	require.NoError(t, err)

	for _, c := range []*Conn{c1, c2} {
		var msg Message
		require.NoError(t, json.Unmarshal(<-c.Send, &msg))
		assert.Equal(t, KindInfo, msg.Kind)
	}
}

func TestHub_SendToUserWithoutConnectionsIsNoop(t *testing.T) {
	hub := NewHub(testLogger())
	err := hub.SendToUser(context.Background(), "nobody", KindNotification, "payload")
	assert.NoError(t, err)
}

func TestHub_SendToUserScopedToRecipient(t *testing.T) {
	hub := NewHub(testLogger())
	mine := &Conn{ID: "c1", UserID: "u1", Send: make(chan []byte, 1)}
	other := &Conn{ID: "c2", UserID: "u2", Send: make(chan []byte, 1)}
	hub.Join(mine)
	hub.Join(other)

	require.NoError(t, hub.SendToUser(context.Background(), "u1", KindSuccess, "ok"))

	assert.Len(t, mine.Send, 1)
	assert.Len(t, other.Send, 0)
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	hub := NewHub(testLogger())
	c := &Conn{ID: "c1", UserID: "u1", Send: make(chan []byte, 1)}
	hub.Join(c)
	hub.Leave(c)

	require.NoError(t, hub.SendToUser(context.Background(), "u1", KindInfo, "x"))
	assert.Len(t, c.Send, 0)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub(testLogger())
	c := &Conn{ID: "c1", UserID: "u1", Send: make(chan []byte, 1)}
	hub.Join(c)

	hub.Shutdown(context.Background())

	_, open := <-c.Send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ConnectionCount())
}
