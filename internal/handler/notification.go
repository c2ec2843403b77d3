package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/vidmark/platform/internal/auth"
	"github.com/vidmark/platform/internal/notify"
	"github.com/vidmark/platform/internal/service"
)

// NotificationHandler serves the missed-notification feed and the live
// push stream.
type NotificationHandler struct {
	notifications *service.NotificationService
	hub           *notify.Hub
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService, hub *notify.Hub) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, hub: hub}
}

// List handles GET /notifications. Clients call it on reconnect to catch up
// on anything published while they were offline.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.notifications.ListForUser(r.Context(), auth.SubjectFromContext(r.Context()), limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"notifications": items})
}

// Stream handles GET /notifications/stream: a server-sent-events connection
// joined to the user's push room. Each published event addressed to the user
// arrives as one SSE data frame.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"code":"INTERNAL_ERROR","message":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	conn := &notify.Conn{
		ID:     uuid.New().String(),
		UserID: auth.SubjectFromContext(r.Context()),
		Send:   make(chan []byte, 16),
	}
	h.hub.Join(conn)
	defer h.hub.Leave(conn)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-conn.Send:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
