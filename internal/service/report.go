package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidmark/platform/internal/domain"
	"github.com/vidmark/platform/internal/outbox"
	"github.com/vidmark/platform/internal/repository"
)

// ReportService generates project reports. The finished report raises the
// typed ReportGeneratedEvent so the requesting user receives a structured
// push with the project and report IDs.
type ReportService struct {
	pool        *pgxpool.Pool
	events      repository.EventRepository
	projects    repository.ProjectRepository
	reports     repository.ReportRepository
	reportsRoot string
	dispatch    Dispatcher
	logger      *slog.Logger
}

// NewReportService creates a ReportService writing files under reportsRoot.
func NewReportService(
	pool *pgxpool.Pool,
	events repository.EventRepository,
	projects repository.ProjectRepository,
	reports repository.ReportRepository,
	reportsRoot string,
	dispatch Dispatcher,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		pool:        pool,
		events:      events,
		projects:    projects,
		reports:     reports,
		reportsRoot: reportsRoot,
		dispatch:    dispatch,
		logger:      logger,
	}
}

// GenerateReport renders a project report to disk and records it. The report
// row and its typed event commit atomically; the push to the requesting user
// happens when the event is published.
func (s *ReportService) GenerateReport(ctx context.Context, projectID uuid.UUID, userID string) (*domain.GeneratedReport, error) {
	project, err := s.projects.FindByID(ctx, s.pool, projectID)
	if err != nil {
		return nil, domain.ErrInternal("find project", err)
	}
	if project == nil {
		return nil, domain.ErrNotFound("project", projectID.String())
	}

	path, err := s.renderReport(project)
	if err != nil {
		return nil, domain.ErrInternal("render report", err)
	}

	report, err := domain.NewGeneratedReport(projectID, path, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	uow := outbox.NewUnitOfWork(tx, s.events, userID)
	defer uow.Rollback(ctx)

	if err := s.reports.Insert(ctx, uow.Tx(), report); err != nil {
		return nil, domain.ErrInternal("insert report", err)
	}
	uow.Track(report)

	if err := uow.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit report", err)
	}

	s.logger.Info("report generated", "report_id", report.ID, "project_id", projectID, "path", path)
	if s.dispatch != nil {
		s.dispatch.AfterCommit(ctx)
	}
	return report, nil
}

// renderReport writes the report file and returns its path.
func (s *ReportService) renderReport(project *domain.Project) (string, error) {
	dir := filepath.Join(s.reportsRoot, project.ID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("report_%d.csv", time.Now().UTC().Unix()))

	content := fmt.Sprintf("project_id,project_name,generated_at\n%s,%q,%s\n",
		project.ID, project.Name, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	return path, nil
}
