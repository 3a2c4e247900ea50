package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/fdatracker/internal/api"
	"github.com/mwantia/fdatracker/internal/auth"
	"github.com/mwantia/fdatracker/internal/cloudsync"
	config "github.com/mwantia/fdatracker/internal/config/server"
	"github.com/mwantia/fdatracker/internal/persistence"
	"github.com/mwantia/fdatracker/internal/source"
	"github.com/mwantia/fdatracker/internal/validation"
	"github.com/mwantia/fdatracker/pkg/approval"
	"github.com/mwantia/fdatracker/pkg/db/store"
	"github.com/mwantia/fdatracker/pkg/log"
)

type FDATrackerAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg *config.BaseServerConfig
	sc  *container.ServiceContainer
	log *log.LoggerServiceImpl

	controller *cloudsync.Controller
	server     *api.Server
}

func NewAgent(cfg *config.BaseServerConfig) *FDATrackerAgent {
	return &FDATrackerAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("agent", cfg.Log),
	}
}

// NewStore creates the configured metadata store without connecting it.
func NewStore(cfg config.MetadataServerConfig) (*store.GormStore, error) {
	switch cfg.Type {
	case "postgres":
		return store.NewPostgresStore(store.PostgresConfig{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
		})
	default:
		return store.NewSQLiteStore(store.SQLiteConfig{
			Path: cfg.SQLite.Path,
		})
	}
}

// OpenStore creates and connects the configured metadata store.
func OpenStore(ctx context.Context, cfg config.MetadataServerConfig) (*store.GormStore, error) {
	s, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := s.Init(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect to %s metadata store: %w", cfg.Type, err)
	}
	return s, nil
}

func (a *FDATrackerAgent) registerServices(records []approval.DrugApproval, authenticator *auth.Authenticator) error {
	a.sc.AddTagProcessor(log.NewLoggerTagProcessor())

	errs := container.Errors{}

	a.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[*log.LoggerServiceImpl](a.sc,
		container.With[log.LoggerService](),
		container.WithInstance(a.log)))

	errs.Add(container.Register[*config.BaseServerConfig](a.sc,
		container.WithInstance(a.cfg)))

	a.log.Debug("Registering 'MetadataStore'...")
	errs.Add(container.Register[*store.GormStore](a.sc,
		container.With[store.MetadataStore](),
		container.AsSingleton(),
		container.AsFactory(func(ctx context.Context, sc *container.ServiceContainer) (any, error) {
			return NewStore(a.cfg.Metadata)
		})))

	errs.Add(container.Register[*auth.Authenticator](a.sc,
		container.WithInstance(authenticator)))

	errs.Add(container.Register[[]approval.DrugApproval](a.sc,
		container.WithInstance(records)))

	a.log.Debug("Registering 'PersistenceService'...")
	errs.Add(container.Register[*persistence.Service](a.sc,
		container.AsSingleton()))

	a.log.Debug("Registering 'ValidationClient'...")
	errs.Add(container.Register[*validation.Client](a.sc,
		container.AsSingleton()))

	a.log.Debug("Registering 'Controller'...")
	errs.Add(container.Register[*cloudsync.Controller](a.sc,
		container.AsSingleton()))

	return errs.Errors()
}

func (a *FDATrackerAgent) setupServices(ctx context.Context) error {
	records, err := source.Load(a.cfg.Source.Path)
	if err != nil {
		return err
	}
	a.log.Info("Loaded %d bundled source records", len(records))

	authenticator := auth.NewAuthenticator(a.cfg.Auth)
	if !authenticator.Enabled() {
		a.log.Warn("auth.secret is empty, every save will be rejected")
	}

	if err := a.registerServices(records, authenticator); err != nil {
		return err
	}

	// The store is resolved first so that container cleanup closes it last.
	s, err := container.Resolve[store.MetadataStore](ctx, a.sc)
	if err != nil {
		return fmt.Errorf("failed to open %s metadata store: %w", a.cfg.Metadata.Type, err)
	}

	a.log.Debug("Running metadata migrations...")
	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate metadata store: %w", err)
	}

	svc, err := container.Resolve[*persistence.Service](ctx, a.sc)
	if err != nil {
		return fmt.Errorf("failed to resolve persistence service: %w", err)
	}
	if err := container.Register[cloudsync.Persistence](a.sc, container.WithInstance(svc)); err != nil {
		return err
	}

	validator, err := container.Resolve[*validation.Client](ctx, a.sc)
	if err != nil {
		return fmt.Errorf("failed to resolve validation client: %w", err)
	}

	a.controller, err = container.Resolve[*cloudsync.Controller](ctx, a.sc)
	if err != nil {
		return fmt.Errorf("failed to resolve controller: %w", err)
	}

	a.server = api.NewServer(a.cfg.Address, api.Dependencies{
		Controller:  a.controller,
		Persistence: svc,
		Validator:   validator,
		Auth:        authenticator,
		Logger:      a.log.Named("api"),
	})

	return nil
}

func (a *FDATrackerAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.mutex.Lock()
	if err := a.setupServices(ctx); err != nil {
		a.mutex.Unlock()
		a.shutdown()
		return err
	}
	a.mutex.Unlock()

	a.controller.Init(ctx)

	serveErr := make(chan error, 1)
	a.wait.Add(1)
	go func() {
		defer a.wait.Done()
		serveErr <- a.server.Start()
	}()

	var err error
	select {
	case <-ctx.Done():
		a.log.Info("Shutting down...")
	case err = <-serveErr:
	}

	if shutdownErr := a.shutdown(); shutdownErr != nil && err == nil {
		err = shutdownErr
	}

	a.wait.Wait()
	return err
}

func (a *FDATrackerAgent) shutdown() error {
	timeout := config.Duration(a.cfg.ShutdownTimeout, 60*time.Second)

	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.server != nil {
		if err := a.server.Shutdown(shutdown); err != nil {
			a.log.Error("Failed to stop http server: %v", err)
		}
	}
	if err := a.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}
	return a.log.Cleanup()
}
