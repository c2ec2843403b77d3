package domain

import (
	"time"

	"github.com/google/uuid"
)

// GeneratedReport is a project report written by the report generator.
// Creating one raises the typed ReportGeneratedEvent so the requesting user
// gets a structured push once the event is published.
type GeneratedReport struct {
	EventRecorder

	ID        uuid.UUID
	ProjectID uuid.UUID
	Path      string
	OwnerID   string
	CreatedAt time.Time
	DeletedAt *time.Time
}

// NewGeneratedReport creates a report record and records the typed event.
func NewGeneratedReport(projectID uuid.UUID, path, ownerID string) (*GeneratedReport, error) {
	if path == "" {
		return nil, ErrValidation("report path is required")
	}
	r := &GeneratedReport{
		ID:        uuid.New(),
		ProjectID: projectID,
		Path:      path,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	err := r.RecordTyped(EventReportGenerated, ReportGeneratedData{
		ProjectID: projectID,
		ReportID:  r.ID,
	}, ownerID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *GeneratedReport) Label() string { return "Report" }

func (r *GeneratedReport) MarkDeleted(at time.Time) {
	if r.DeletedAt == nil {
		r.DeletedAt = &at
	}
}

func (r *GeneratedReport) IsDeleted() bool { return r.DeletedAt != nil }
