package domain

import (
	"time"

	"github.com/google/uuid"
)

// Subject is an annotation topic within a project.
type Subject struct {
	EventRecorder

	ID          uuid.UUID
	ProjectID   uuid.UUID
	Name        string
	Description string
	CreatedByID string
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// NewSubject creates a subject and records its creation event.
func NewSubject(projectID uuid.UUID, name, description, createdByID string) (*Subject, error) {
	if name == "" {
		return nil, ErrValidation("subject name is required")
	}
	s := &Subject{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Name:        name,
		Description: description,
		CreatedByID: createdByID,
		CreatedAt:   time.Now().UTC(),
	}
	s.Record(MsgSubjectCreated, createdByID)
	return s, nil
}

// Update modifies the subject and records the update event.
func (s *Subject) Update(name, description, userID string) error {
	if name == "" {
		return ErrValidation("subject name is required")
	}
	s.Name = name
	s.Description = description
	s.Record(MsgSubjectUpdated, userID)
	return nil
}

func (s *Subject) Label() string { return "Subject" }

func (s *Subject) MarkDeleted(at time.Time) {
	if s.DeletedAt == nil {
		s.DeletedAt = &at
	}
}

func (s *Subject) IsDeleted() bool { return s.DeletedAt != nil }
