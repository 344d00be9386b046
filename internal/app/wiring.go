package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"webmvc/internal/adapter"
	"webmvc/internal/app/legacy"
	"webmvc/internal/app/web"
	"webmvc/internal/config"
	"webmvc/internal/dispatch"
	apierrors "webmvc/internal/errors"
	"webmvc/internal/mapping"
	customMiddleware "webmvc/internal/middleware"
	handlers "webmvc/internal/transport/http"
	"webmvc/internal/view"
)

// initializeDispatch builds the mappings, adapters, renderer and dispatcher
// in the order the dispatch configuration names them.
func (a *Application) initializeDispatch(opts Options) error {
	dcfg := a.Config.Dispatch
	if len(dcfg.ManualRoutes) > 0 && !dcfg.Enabled(config.StrategyManual) {
		a.Logger.Warn("Manual routes configured but the manual registry is disabled",
			slog.Int("routes", len(dcfg.ManualRoutes)),
			slog.Any("registry_order", dcfg.RegistryOrder))
	}

	mappings, err := a.buildMappings(dcfg, opts)
	if err != nil {
		return err
	}
	if err := mappings.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize handler mappings: %w", err)
	}
	for _, s := range mappings.Shadowed() {
		a.Logger.Warn("Route shadowed by a higher priority registry",
			slog.String("route", s.Route),
			slog.String("winner", s.Winner.Registry),
			slog.String("shadowed", s.Shadowed.Registry),
			slog.String("handler", s.Shadowed.Handler))
	}
	a.Mappings = mappings

	finder, err := a.buildAdapters(dcfg)
	if err != nil {
		return err
	}

	renderer, err := a.buildRenderer(opts)
	if err != nil {
		return err
	}
	a.Renderer = renderer

	metrics, err := dispatch.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create dispatch metrics: %w", err)
	}

	a.Dispatcher = dispatch.New(mappings, finder, renderer, dispatch.Options{
		NotFoundView:         dcfg.NotFoundView,
		MethodNotAllowedView: dcfg.MethodNotAllowedView,
		Logger:               a.Logger,
		Tracer:               a.OTelProviders.Tracer,
		Metrics:              metrics,
	})

	a.Logger.Info("Dispatch initialized",
		slog.Any("registry_order", dcfg.RegistryOrder),
		slog.Any("adapter_order", finder.Names()),
		slog.Int("routes", len(mappings.Routes())))
	return nil
}

func (a *Application) buildMappings(dcfg config.DispatchConfig, opts Options) (*mapping.Mappings, error) {
	ordered := make([]mapping.HandlerMapping, 0, len(dcfg.RegistryOrder))
	for _, name := range dcfg.RegistryOrder {
		switch name {
		case config.StrategyAnnotation:
			ordered = append(ordered, mapping.NewAnnotationMapping(dcfg.ScanPackages,
				mapping.WithCatalog(opts.Catalog),
				mapping.WithAnnotationLogger(a.Logger)))
		case config.StrategyManual:
			manual, err := a.buildManualMapping(dcfg.ManualRoutes, legacy.NewCatalog(opts.Users))
			if err != nil {
				return nil, err
			}
			ordered = append(ordered, manual)
		default:
			return nil, fmt.Errorf("unknown registry %q", name)
		}
	}
	return mapping.NewMappings(ordered...), nil
}

// buildManualMapping binds every configured manual route to its catalog entry.
func (a *Application) buildManualMapping(routes config.RouteList, catalog legacy.Catalog) (*mapping.ManualMapping, error) {
	manual := mapping.NewManualMapping(a.Logger)
	for _, route := range routes {
		h, err := catalog.Lookup(route.Handler)
		if err != nil {
			return nil, fmt.Errorf("manual route %s: %w", route, err)
		}
		if err := manual.Register(route.Method, route.Path, h); err != nil {
			return nil, fmt.Errorf("manual route %s: %w", route, err)
		}
	}
	return manual, nil
}

func (a *Application) buildAdapters(dcfg config.DispatchConfig) (*adapter.Finder, error) {
	adapters := make([]adapter.HandlerAdapter, 0, len(dcfg.AdapterOrder))
	for _, name := range dcfg.AdapterOrder {
		switch name {
		case config.StrategyAnnotation:
			adapters = append(adapters, adapter.NewAnnotationAdapter(adapter.WithViewSuffix(dcfg.ViewSuffix)))
		case config.StrategyManual:
			adapters = append(adapters, adapter.NewManualAdapter())
		default:
			return nil, fmt.Errorf("unknown adapter %q", name)
		}
	}
	return adapter.NewFinder(adapters...), nil
}

// buildRenderer loads the embedded views unless a template directory is
// configured.
func (a *Application) buildRenderer(opts Options) (*view.Renderer, error) {
	fsys := opts.Templates
	if fsys == nil && a.Config.View.TemplateDir != "" {
		dir, err := config.ResolvePath(a.Config.View.TemplateDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve template dir: %w", err)
		}
		if !config.FileExists(dir) {
			return nil, fmt.Errorf("template dir %s does not exist", dir)
		}
		a.templateDir = dir
		fsys = os.DirFS(dir)
		a.Logger.Info("Using template directory", slog.String("dir", dir), slog.Bool("watch", a.Config.View.Watch))
	}
	if fsys == nil {
		fsys = web.Templates()
	}

	suffix := a.Config.Dispatch.ViewSuffix
	if suffix == "" {
		suffix = view.DefaultSuffix
	}
	renderer, err := view.New(fsys, view.WithSuffix(suffix), view.WithLogger(a.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	return renderer, nil
}

// healthChecks are consulted by /api/health/ready.
func (a *Application) healthChecks() map[string]handlers.HealthCheck {
	return map[string]handlers.HealthCheck{
		"mappings": func(context.Context) error {
			if len(a.Mappings.Routes()) == 0 {
				return errors.New("no routes registered")
			}
			return nil
		},
		"views": func(context.Context) error {
			if len(a.Renderer.Views()) == 0 {
				return errors.New("no views loaded")
			}
			return nil
		},
	}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recover → Headers → RateLimit → Timeout
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(errorHandler.Middleware)
		r.Use(customMiddleware.Compress(5))

		if a.Config.Security.Headers {
			headers := customMiddleware.DefaultSecureHeaders()
			headers.DevMode = a.Config.Logging.Development
			r.Use(headers.Handler)
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			health := handlers.NewHealthHandler(VERSION, a.Mappings, a.healthChecks(), a.Logger)
			r.Mount("/health", health.Routes())

			routes := handlers.NewRoutesHandler(a.Mappings, errorHandler, a.Logger)
			r.Mount("/routes", routes.Routes())

			r.NotFound(errorHandler.NotFound)
			r.MethodNotAllowed(errorHandler.MethodNotAllowed)
		})

		// everything else belongs to the dispatcher
		r.Handle("/*", handlers.NewDispatchHandler(a.Dispatcher, errorHandler, a.Logger))
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}
