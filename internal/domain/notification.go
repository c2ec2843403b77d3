package domain

import "time"

// Notification is a published legacy event materialized for its recipient,
// so clients can fetch notifications they missed while disconnected.
type Notification struct {
	ID          int64     `json:"id"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	OccurredAt  time.Time `json:"occurredAt"`
	CreatedAt   time.Time `json:"createdAt"`
}
