package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"webmvc/internal/app/repository"
	"webmvc/internal/component"
	"webmvc/internal/config"
	"webmvc/internal/dispatch"
	"webmvc/internal/infrastructure"
	"webmvc/internal/mapping"
	"webmvc/internal/view"

	// controllers register themselves with component.Default
	_ "webmvc/internal/app/controller"
)

const (
	AppName = "webmvc"
	VERSION = "1.0.0"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	Mappings   *mapping.Mappings
	Dispatcher *dispatch.Dispatcher
	Renderer   *view.Renderer
	Router     *chi.Mux
	Server     *http.Server

	// templateDir is watched for changes when set
	templateDir string
}

// Options overrides the collaborators NewApplication would otherwise build.
// Zero values select the process-wide defaults.
type Options struct {
	Catalog   *component.Catalog
	Users     *repository.UserRepository
	Templates fs.FS
}

// New loads configuration, initializes the global logger and builds the
// application from them.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewApplication(cfg, logger, Options{})
}

// NewApplication wires the dispatch core, the HTTP shell and telemetry.
func NewApplication(cfg *config.Config, logger *slog.Logger, opts Options) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}
	if opts.Catalog == nil {
		opts.Catalog = component.Default
	}
	if opts.Users == nil {
		opts.Users = repository.Users()
	}

	if err := app.initializeDispatch(opts); err != nil {
		return nil, fmt.Errorf("failed to initialize dispatch: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives, then shuts down
// gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "Server listening",
			slog.String("addr", a.Server.Addr),
			slog.Int("routes", len(a.Mappings.Routes())))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if a.templateDir != "" && a.Config.View.Watch {
		g.Go(func() error {
			return a.Renderer.Watch(gctx, a.templateDir)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("Shutdown requested")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.Info("Application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	return errors.Join(errs...)
}
