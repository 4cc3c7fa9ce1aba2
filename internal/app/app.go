package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clubcal/clubcal/internal/config"
	"github.com/clubcal/clubcal/internal/database"
	"github.com/clubcal/clubcal/internal/rest"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	db     *pgxpool.Pool
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	// DB + migrations
	if err := database.Migrate(cfg.Database); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	deps, err := BuildDependencies(db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := start(ctx, deps); err != nil {
		db.Close()
		return nil, err
	}

	r := mux.NewRouter()
	SetupMiddleware(r)
	RegisterRoutes(r, deps)

	// Frontend
	if cfg.Frontend.Enabled {
		frontend := rest.NewFrontendHandler(cfg.Frontend.Dir, "index.html")
		r.PathPrefix("/").Handler(frontend)
	}

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Listen,
		WriteTimeout: cfg.Export.Timeout + 15*time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, deps: deps, router: r, srv: srv}, nil
}

// start loads settings, seeds holidays when configured and takes the first event
// snapshot, in that order.
func start(ctx context.Context, deps *Dependencies) error {
	if err := deps.SettingsService.Init(ctx); err != nil {
		return err
	}
	if deps.HolidaySeeder != nil {
		if _, err := deps.HolidaySeeder.SeedOnce(ctx); err != nil {
			return fmt.Errorf("failed to seed holidays: %w", err)
		}
	}
	if err := deps.EventFeed.Start(ctx); err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}
	if deps.ExportScheduler != nil {
		deps.ExportScheduler.Start()
	}
	return nil
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM, then shuts down.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	var runErr error
	select {
	case runErr = <-errs:
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("server shutdown failed: %v", err)
		}
	}

	a.close()
	return runErr
}

func (a *Application) close() {
	if a.deps.ExportScheduler != nil {
		a.deps.ExportScheduler.Stop()
	}
	a.deps.ExportSurface.Close()
	a.deps.EventFeed.Close()
	a.db.Close()
}
