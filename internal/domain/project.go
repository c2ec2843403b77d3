package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project is the root aggregate of the annotation platform. Mutations record
// pending events on the embedded recorder; durability is the unit of work's
// job.
type Project struct {
	EventRecorder

	ID          uuid.UUID
	Name        string
	Description string
	CreatedByID string
	CreatedAt   time.Time
	ModifiedAt  *time.Time
	FinishedAt  *time.Time
	DeletedAt   *time.Time
}

// NewProject creates a project and records its creation event.
func NewProject(name, description, createdByID string) (*Project, error) {
	if name == "" {
		return nil, ErrValidation("project name is required")
	}
	p := &Project{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedByID: createdByID,
		CreatedAt:   time.Now().UTC(),
	}
	p.Record(MsgProjectCreated, createdByID)
	return p, nil
}

// Update modifies the project and records the update event.
func (p *Project) Update(name, description string, finished bool, userID string) error {
	if name == "" {
		return ErrValidation("project name is required")
	}
	now := time.Now().UTC()
	p.Name = name
	p.Description = description
	p.ModifiedAt = &now
	if finished {
		p.FinishedAt = &now
	} else {
		p.FinishedAt = nil
	}
	p.Record(MsgProjectUpdated, userID)
	return nil
}

// AddLabeler notifies the project owner that a labeler joined. The join
// itself lives in the out-of-scope membership tables.
func (p *Project) AddLabeler(userName string) {
	p.Record(MsgLabelerJoined(userName, p.Name), p.CreatedByID)
}

// Label returns the human-readable entity name used in synthesized
// deletion messages.
func (p *Project) Label() string { return "Project" }

// MarkDeleted applies the soft-delete convention.
func (p *Project) MarkDeleted(at time.Time) {
	if p.DeletedAt == nil {
		p.DeletedAt = &at
	}
}

// IsDeleted reports whether the project is soft-deleted.
func (p *Project) IsDeleted() bool { return p.DeletedAt != nil }
