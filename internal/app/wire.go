package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidmark/platform/internal/auth"
	"github.com/vidmark/platform/internal/handler"
	adminhandler "github.com/vidmark/platform/internal/handler/admin"
	"github.com/vidmark/platform/internal/notify"
	"github.com/vidmark/platform/internal/outbox"
	"github.com/vidmark/platform/internal/repository"
	"github.com/vidmark/platform/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter. Hub, Sweeper and
// Trigger are built in main so the process can run the trigger loop and shut
// the hub down on exit; Trigger is nil in poller mode.
type RouterDeps struct {
	Pool    *pgxpool.Pool
	JWTMgr  *auth.JWTManager
	Logger  *slog.Logger
	Hub     *notify.Hub
	Sweeper *outbox.Sweeper
	Trigger *outbox.Trigger

	ReportsRoot string
	CORSOrigin  string
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	logger := deps.Logger

	// Repositories
	eventRepo := repository.NewEventRepository()
	notificationRepo := repository.NewNotificationRepository()
	projectRepo := repository.NewProjectRepository()
	subjectRepo := repository.NewSubjectRepository()
	reportRepo := repository.NewReportRepository()

	// In pipeline mode the trigger pushes events out right after each commit.
	var dispatch service.Dispatcher
	if deps.Trigger != nil {
		dispatch = deps.Trigger
	}

	// Services
	annotationSvc := service.NewAnnotationService(pool, eventRepo, projectRepo, subjectRepo, dispatch, logger)
	reportSvc := service.NewReportService(pool, eventRepo, projectRepo, reportRepo, deps.ReportsRoot, dispatch, logger)
	notificationSvc := service.NewNotificationService(pool, notificationRepo, logger)

	// Handlers
	projectHandler := handler.NewProjectHandler(annotationSvc, reportSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, deps.Hub)
	outboxAdmin := adminhandler.NewOutboxHandler(pool, eventRepo, deps.Sweeper)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS(deps.CORSOrigin))

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// User-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateUser(deps.JWTMgr))
		if deps.Trigger != nil {
			r.Use(handler.SweepAfterWrite(deps.Trigger))
		}
		r.Use(handler.JSONContentType)

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", projectHandler.CreateProject)
			r.Get("/{id}", projectHandler.GetProject)
			r.Put("/{id}", projectHandler.UpdateProject)
			r.Delete("/{id}", projectHandler.DeleteProject)
			r.Post("/{id}/labelers", projectHandler.AddLabeler)
			r.Post("/{id}/subjects", projectHandler.CreateSubject)
			r.Post("/{id}/reports", projectHandler.GenerateReport)
		})

		r.Route("/subjects", func(r chi.Router) {
			r.Put("/{id}", projectHandler.UpdateSubject)
			r.Delete("/{id}", projectHandler.DeleteSubject)
		})

		r.Get("/notifications", notificationHandler.List)
	})

	// Push stream: authenticated, but outside JSONContentType (SSE).
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateUser(deps.JWTMgr))
		r.Get("/notifications/stream", notificationHandler.Stream)
	})

	// Admin-authenticated routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(deps.JWTMgr))
		r.Use(handler.JSONContentType)

		r.Route("/outbox", func(r chi.Router) {
			r.Get("/pending", outboxAdmin.ListPending)
			r.Post("/sweep", outboxAdmin.Sweep)
		})
	})

	return r
}
