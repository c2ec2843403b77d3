package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vidmark/platform/internal/auth"
	"github.com/vidmark/platform/internal/domain"
	"github.com/vidmark/platform/internal/service"
)

// ProjectHandler handles project and subject endpoints.
type ProjectHandler struct {
	annotations *service.AnnotationService
	reports     *service.ReportService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(annotations *service.AnnotationService, reports *service.ReportService) *ProjectHandler {
	return &ProjectHandler{annotations: annotations, reports: reports}
}

type projectResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedByID string     `json:"created_by_id"`
	CreatedAt   time.Time  `json:"created_at"`
	ModifiedAt  *time.Time `json:"modified_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

func toProjectResponse(p *domain.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedByID: p.CreatedByID,
		CreatedAt:   p.CreatedAt,
		ModifiedAt:  p.ModifiedAt,
		FinishedAt:  p.FinishedAt,
	}
}

type subjectResponse struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toSubjectResponse(s *domain.Subject) subjectResponse {
	return subjectResponse{
		ID:          s.ID,
		ProjectID:   s.ProjectID,
		Name:        s.Name,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
	}
}

// CreateProject handles POST /projects.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	project, err := h.annotations.CreateProject(r.Context(), input.Name, input.Description, auth.SubjectFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, toProjectResponse(project))
}

// GetProject handles GET /projects/{id}.
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid project id"))
		return
	}

	project, err := h.annotations.GetProject(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, toProjectResponse(project))
}

// UpdateProject handles PUT /projects/{id}.
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid project id"))
		return
	}

	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Finished    bool   `json:"finished"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	project, err := h.annotations.UpdateProject(r.Context(), id, input.Name, input.Description, input.Finished, auth.SubjectFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, toProjectResponse(project))
}

// DeleteProject handles DELETE /projects/{id}.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid project id"))
		return
	}

	if err := h.annotations.DeleteProject(r.Context(), id, auth.SubjectFromContext(r.Context())); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusNoContent, nil)
}

// AddLabeler handles POST /projects/{id}/labelers.
func (h *ProjectHandler) AddLabeler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid project id"))
		return
	}

	var input struct {
		UserName string `json:"user_name"`
	}
	if err := DecodeJSON(r, &input); err != nil || input.UserName == "" {
		RespondError(w, domain.ErrValidation("user_name is required"))
		return
	}

	if err := h.annotations.AddLabeler(r.Context(), id, input.UserName, auth.SubjectFromContext(r.Context())); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusNoContent, nil)
}

// CreateSubject handles POST /projects/{id}/subjects.
func (h *ProjectHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid project id"))
		return
	}

	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	subject, err := h.annotations.CreateSubject(r.Context(), projectID, input.Name, input.Description, auth.SubjectFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, toSubjectResponse(subject))
}

// UpdateSubject handles PUT /subjects/{id}.
func (h *ProjectHandler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid subject id"))
		return
	}

	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	subject, err := h.annotations.UpdateSubject(r.Context(), id, input.Name, input.Description, auth.SubjectFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, toSubjectResponse(subject))
}

// DeleteSubject handles DELETE /subjects/{id}.
func (h *ProjectHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid subject id"))
		return
	}

	if err := h.annotations.DeleteSubject(r.Context(), id, auth.SubjectFromContext(r.Context())); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusNoContent, nil)
}

// GenerateReport handles POST /projects/{id}/reports.
func (h *ProjectHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid project id"))
		return
	}

	report, err := h.reports.GenerateReport(r.Context(), projectID, auth.SubjectFromContext(r.Context()))
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, map[string]string{
		"report_id":  report.ID.String(),
		"project_id": report.ProjectID.String(),
		"path":       report.Path,
	})
}
