package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vidmark/platform/internal/domain"
)

type projectRepo struct{}

// NewProjectRepository returns a pgx-backed ProjectRepository.
func NewProjectRepository() ProjectRepository {
	return &projectRepo{}
}

func (r *projectRepo) Insert(ctx context.Context, db DBTX, p *domain.Project) error {
	_, err := db.Exec(ctx, `
		INSERT INTO projects (id, name, description, created_by_id, created_at, modified_at, finished_at, del_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.Description, p.CreatedByID, p.CreatedAt, p.ModifiedAt, p.FinishedAt, p.DeletedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *projectRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	err := db.QueryRow(ctx, `
		SELECT id, name, description, created_by_id, created_at, modified_at, finished_at, del_date
		FROM projects
		WHERE id = $1 AND del_date IS NULL`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedByID, &p.CreatedAt, &p.ModifiedAt, &p.FinishedAt, &p.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	return &p, nil
}

func (r *projectRepo) Update(ctx context.Context, db DBTX, p *domain.Project) error {
	tag, err := db.Exec(ctx, `
		UPDATE projects
		SET name = $2, description = $3, modified_at = $4, finished_at = $5, del_date = $6
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.ModifiedAt, p.FinishedAt, p.DeletedAt)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("project", p.ID.String())
	}
	return nil
}

type subjectRepo struct{}

// NewSubjectRepository returns a pgx-backed SubjectRepository.
func NewSubjectRepository() SubjectRepository {
	return &subjectRepo{}
}

func (r *subjectRepo) Insert(ctx context.Context, db DBTX, s *domain.Subject) error {
	_, err := db.Exec(ctx, `
		INSERT INTO subjects (id, project_id, name, description, created_by_id, created_at, del_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.ProjectID, s.Name, s.Description, s.CreatedByID, s.CreatedAt, s.DeletedAt)
	if err != nil {
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

func (r *subjectRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Subject, error) {
	var s domain.Subject
	err := db.QueryRow(ctx, `
		SELECT id, project_id, name, description, created_by_id, created_at, del_date
		FROM subjects
		WHERE id = $1 AND del_date IS NULL`, id,
	).Scan(&s.ID, &s.ProjectID, &s.Name, &s.Description, &s.CreatedByID, &s.CreatedAt, &s.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &s, nil
}

func (r *subjectRepo) Update(ctx context.Context, db DBTX, s *domain.Subject) error {
	tag, err := db.Exec(ctx, `
		UPDATE subjects
		SET name = $2, description = $3, del_date = $4
		WHERE id = $1`,
		s.ID, s.Name, s.Description, s.DeletedAt)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("subject", s.ID.String())
	}
	return nil
}

type reportRepo struct{}

// NewReportRepository returns a pgx-backed ReportRepository.
func NewReportRepository() ReportRepository {
	return &reportRepo{}
}

func (r *reportRepo) Insert(ctx context.Context, db DBTX, report *domain.GeneratedReport) error {
	_, err := db.Exec(ctx, `
		INSERT INTO generated_reports (id, project_id, path, owner_id, created_at, del_date)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		report.ID, report.ProjectID, report.Path, report.OwnerID, report.CreatedAt, report.DeletedAt)
	if err != nil {
		return fmt.Errorf("insert generated report: %w", err)
	}
	return nil
}
