package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidmark/platform/internal/domain"
	"github.com/vidmark/platform/internal/outbox"
	"github.com/vidmark/platform/internal/repository"
)

// Dispatcher pushes freshly committed events toward subscribers. In pipeline
// mode this is the outbox trigger; in poller mode it is nil and the poller
// picks the events up on its next tick.
type Dispatcher interface {
	AfterCommit(ctx context.Context)
}

// AnnotationService orchestrates project and subject mutations. Every write
// goes through a unit of work so the recorded events land in domain_events
// within the same transaction.
type AnnotationService struct {
	pool     *pgxpool.Pool
	events   repository.EventRepository
	projects repository.ProjectRepository
	subjects repository.SubjectRepository
	dispatch Dispatcher
	logger   *slog.Logger
}

// NewAnnotationService creates an AnnotationService. dispatch may be nil when
// publication is handled by a standalone poller.
func NewAnnotationService(
	pool *pgxpool.Pool,
	events repository.EventRepository,
	projects repository.ProjectRepository,
	subjects repository.SubjectRepository,
	dispatch Dispatcher,
	logger *slog.Logger,
) *AnnotationService {
	return &AnnotationService{
		pool:     pool,
		events:   events,
		projects: projects,
		subjects: subjects,
		dispatch: dispatch,
		logger:   logger,
	}
}

// CreateProject creates a project owned by the acting user.
func (s *AnnotationService) CreateProject(ctx context.Context, name, description, userID string) (*domain.Project, error) {
	project, err := domain.NewProject(name, description, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	uow := outbox.NewUnitOfWork(tx, s.events, userID)
	defer uow.Rollback(ctx)

	if err := s.projects.Insert(ctx, uow.Tx(), project); err != nil {
		return nil, domain.ErrInternal("insert project", err)
	}
	uow.Track(project)

	if err := uow.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit project", err)
	}

	s.logger.Info("project created", "project_id", project.ID, "user_id", userID)
	s.afterCommit(ctx)
	return project, nil
}

// UpdateProject applies new attributes to an existing project.
func (s *AnnotationService) UpdateProject(ctx context.Context, id uuid.UUID, name, description string, finished bool, userID string) (*domain.Project, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	uow := outbox.NewUnitOfWork(tx, s.events, userID)
	defer uow.Rollback(ctx)

	project, err := s.projects.FindByID(ctx, uow.Tx(), id)
	if err != nil {
		return nil, domain.ErrInternal("find project", err)
	}
	if project == nil {
		return nil, domain.ErrNotFound("project", id.String())
	}

	if err := project.Update(name, description, finished, userID); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, uow.Tx(), project); err != nil {
		return nil, domain.ErrInternal("update project", err)
	}
	uow.Track(project)

	if err := uow.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit project", err)
	}

	s.afterCommit(ctx)
	return project, nil
}

// DeleteProject soft-deletes a project. The deletion audit event is
// synthesized by the unit of work at commit.
func (s *AnnotationService) DeleteProject(ctx context.Context, id uuid.UUID, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	uow := outbox.NewUnitOfWork(tx, s.events, userID)
	defer uow.Rollback(ctx)

	project, err := s.projects.FindByID(ctx, uow.Tx(), id)
	if err != nil {
		return domain.ErrInternal("find project", err)
	}
	if project == nil {
		return domain.ErrNotFound("project", id.String())
	}

	uow.Delete(project)
	if err := s.projects.Update(ctx, uow.Tx(), project); err != nil {
		return domain.ErrInternal("delete project", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return domain.ErrInternal("commit delete", err)
	}

	s.logger.Info("project deleted", "project_id", id, "user_id", userID)
	s.afterCommit(ctx)
	return nil
}

// GetProject returns a project by ID, excluding soft-deleted ones.
func (s *AnnotationService) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	project, err := s.projects.FindByID(ctx, s.pool, id)
	if err != nil {
		return nil, domain.ErrInternal("find project", err)
	}
	if project == nil {
		return nil, domain.ErrNotFound("project", id.String())
	}
	return project, nil
}

// AddLabeler records the labeler-joined notification for the project owner.
func (s *AnnotationService) AddLabeler(ctx context.Context, projectID uuid.UUID, userName, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	uow := outbox.NewUnitOfWork(tx, s.events, userID)
	defer uow.Rollback(ctx)

	project, err := s.projects.FindByID(ctx, uow.Tx(), projectID)
	if err != nil {
		return domain.ErrInternal("find project", err)
	}
	if project == nil {
		return domain.ErrNotFound("project", projectID.String())
	}

	project.AddLabeler(userName)
	uow.Track(project)

	if err := uow.Commit(ctx); err != nil {
		return domain.ErrInternal("commit labeler join", err)
	}

	s.afterCommit(ctx)
	return nil
}

// CreateSubject creates a subject under a project.
func (s *AnnotationService) CreateSubject(ctx context.Context, projectID uuid.UUID, name, description, userID string) (*domain.Subject, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	uow := outbox.NewUnitOfWork(tx, s.events, userID)
	defer uow.Rollback(ctx)

	project, err := s.projects.FindByID(ctx, uow.Tx(), projectID)
	if err != nil {
		return nil, domain.ErrInternal("find project", err)
	}
	if project == nil {
		return nil, domain.ErrNotFound("project", projectID.String())
	}

	subject, err := domain.NewSubject(projectID, name, description, userID)
	if err != nil {
		return nil, err
	}
	if err := s.subjects.Insert(ctx, uow.Tx(), subject); err != nil {
		return nil, domain.ErrInternal("insert subject", err)
	}
	uow.Track(subject)

	if err := uow.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit subject", err)
	}

	s.afterCommit(ctx)
	return subject, nil
}

// UpdateSubject applies new attributes to an existing subject.
func (s *AnnotationService) UpdateSubject(ctx context.Context, id uuid.UUID, name, description, userID string) (*domain.Subject, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	uow := outbox.NewUnitOfWork(tx, s.events, userID)
	defer uow.Rollback(ctx)

	subject, err := s.subjects.FindByID(ctx, uow.Tx(), id)
	if err != nil {
		return nil, domain.ErrInternal("find subject", err)
	}
	if subject == nil {
		return nil, domain.ErrNotFound("subject", id.String())
	}

	if err := subject.Update(name, description, userID); err != nil {
		return nil, err
	}
	if err := s.subjects.Update(ctx, uow.Tx(), subject); err != nil {
		return nil, domain.ErrInternal("update subject", err)
	}
	uow.Track(subject)

	if err := uow.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit subject", err)
	}

	s.afterCommit(ctx)
	return subject, nil
}

// DeleteSubject soft-deletes a subject.
func (s *AnnotationService) DeleteSubject(ctx context.Context, id uuid.UUID, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	uow := outbox.NewUnitOfWork(tx, s.events, userID)
	defer uow.Rollback(ctx)

	subject, err := s.subjects.FindByID(ctx, uow.Tx(), id)
	if err != nil {
		return domain.ErrInternal("find subject", err)
	}
	if subject == nil {
		return domain.ErrNotFound("subject", id.String())
	}

	uow.Delete(subject)
	if err := s.subjects.Update(ctx, uow.Tx(), subject); err != nil {
		return domain.ErrInternal("delete subject", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return domain.ErrInternal("commit delete", err)
	}

	s.afterCommit(ctx)
	return nil
}

func (s *AnnotationService) afterCommit(ctx context.Context) {
	if s.dispatch != nil {
		s.dispatch.AfterCommit(ctx)
	}
}
