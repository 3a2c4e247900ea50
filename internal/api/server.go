package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mwantia/fdatracker/internal/auth"
	"github.com/mwantia/fdatracker/internal/cloudsync"
	"github.com/mwantia/fdatracker/internal/persistence"
	"github.com/mwantia/fdatracker/internal/validation"
	"github.com/mwantia/fdatracker/pkg/approval"
	"github.com/mwantia/fdatracker/pkg/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PersistenceService is the versioned store behind /api/persistence.
type PersistenceService interface {
	Load(ctx context.Context) (*approval.Snapshot, error)
	Save(ctx context.Context, records []approval.DrugApproval, notes string) (int, error)
	Versions(ctx context.Context, limit int) ([]persistence.VersionInfo, error)
	Health(ctx context.Context) error
}

type Validator interface {
	Validate(ctx context.Context, items []validation.Item) ([]validation.Result, error)
}

type Dependencies struct {
	Controller  *cloudsync.Controller
	Persistence PersistenceService
	Validator   Validator
	Auth        *auth.Authenticator
	Logger      log.LoggerService

	// Now defaults to time.Now and anchors relative date ranges.
	Now func() time.Time
}

type Server struct {
	echo    *echo.Echo
	address string
	log     log.LoggerService

	controller  *cloudsync.Controller
	persistence PersistenceService
	validator   Validator
	now         func() time.Time
}

func NewServer(address string, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:        e,
		address:     address,
		log:         deps.Logger,
		controller:  deps.Controller,
		persistence: deps.Persistence,
		validator:   deps.Validator,
		now:         deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	e.Use(Recovery(s.log))
	e.Use(RequestID())
	e.Use(Logger(s.log))
	e.Use(Metrics())
	e.Use(deps.Auth.Middleware())

	s.routes(deps.Auth.AdminRole())
	return s
}

func (s *Server) routes(adminRole string) {
	s.echo.GET("/health", s.health)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.POST("/persistence", s.persist)
	api.POST("/validate", s.validate)

	api.GET("/approvals", s.listApprovals)
	api.GET("/approvals/options", s.approvalOptions)
	api.GET("/approvals/summary", s.approvalSummary)
	api.GET("/approvals/status", s.approvalStatus)

	admin := auth.RequireRole(adminRole)
	api.POST("/approvals/upload", s.uploadApprovals, admin)
	api.PUT("/approvals", s.upsertApproval, admin)
	api.DELETE("/approvals/:key", s.deleteApproval, admin)
	api.POST("/approvals/save", s.saveApprovals, admin)
	api.POST("/approvals/reload", s.reloadApprovals, admin)
	api.GET("/versions", s.listVersions, admin)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("Listening on %s", s.address)
	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
