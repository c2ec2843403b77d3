package notify

import "context"

// Kind is the client-side message route, mirroring the hub method names the
// frontend subscribes to.
type Kind string

const (
	KindInfo            Kind = "Info"
	KindSuccess         Kind = "Success"
	KindWarning         Kind = "Warning"
	KindError           Kind = "Error"
	KindNotification    Kind = "Notification"
	KindReportGenerated Kind = "ReportGenerated"
	KindLabelersChanged Kind = "LabelersCountChanged"
)

// Gateway is the single egress point toward the real-time push channel.
// Delivery is best-effort per call; durable retry lives in the outbox.
type Gateway interface {
	SendToUser(ctx context.Context, userID string, kind Kind, payload interface{}) error
}
