package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"inventorypro/internal/config"
	apperrors "inventorypro/internal/errors"
	"inventorypro/internal/exporter"
	"inventorypro/internal/infrastructure"
	"inventorypro/internal/inventory"
	customMiddleware "inventorypro/internal/middleware"
	"inventorypro/internal/notify"
	"inventorypro/internal/page"
	"inventorypro/internal/services"
	handlers "inventorypro/internal/transport/http"
	ws "inventorypro/internal/websocket"
)

// BuildTime is set at link time with -ldflags "-X inventorypro/internal/app.BuildTime=..."
var BuildTime = ""

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	WebSocketHub  *ws.Hub
	Notifier      *notify.HubNotifier
	Catalog       *inventory.Catalog
	Renderer      *page.Renderer
	Exporter      *exporter.TabularExporter
	ErrorHandler  *apperrors.ErrorHandler
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Export *services.ExportService
	Health *services.HealthService
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return newApplication(cfg, logger)
}

func newApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	a.WebSocketHub = ws.NewHub(a.Logger)
	a.Notifier = notify.NewHubNotifier(a.WebSocketHub, a.Config.Export.ToastTTL, a.Logger)
	a.ErrorHandler = apperrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	catalog, err := a.loadCatalog()
	if err != nil {
		return err
	}
	a.Catalog = catalog

	a.Renderer, err = page.NewRenderer(nil)
	if err != nil {
		return fmt.Errorf("failed to load report templates: %w", err)
	}

	opts := exporter.OptionsFromConfig(a.Config.Export)
	opts.Logger = a.Logger
	opts.Tracer = a.OTelProviders.Tracer
	opts.Meter = a.OTelProviders.Meter
	a.Exporter = exporter.New(a.Notifier, opts)

	exportService := services.NewExportService(a.Exporter, a.Notifier, a.Catalog, a.Renderer, a.Logger)
	healthDeps := services.HealthDeps{
		Version:   config.AppVersion,
		BuildTime: BuildTime,
		Catalog:   a.Catalog,
		Hub:       a.WebSocketHub,
	}
	if a.Config.Export.Archive {
		exportService = exportService.WithArchive(exporter.NewFileSink(a.Config.Export.OutputDir))
		healthDeps.OutputDir = a.Config.Export.OutputDir
		a.Logger.Info("Archiving downloads", slog.String("dir", a.Config.Export.OutputDir))
	}

	a.Services = &ServiceContainer{
		Export: exportService,
		Health: services.NewHealthService(healthDeps, a.Logger),
	}
	return nil
}

// loadCatalog reads the configured seed file, or the bundled sample when none is set
func (a *Application) loadCatalog() (*inventory.Catalog, error) {
	seed := a.Config.Inventory.SeedFile
	if seed == "" {
		catalog, err := inventory.NewSeededCatalog(a.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load sample catalog: %w", err)
		}
		return catalog, nil
	}

	catalog := inventory.NewCatalog(a.Logger)
	res, err := catalog.LoadFile(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", seed, err)
	}
	if len(res.Skipped) > 0 {
		a.Logger.Warn("Catalog rows skipped",
			slog.String("file", seed),
			slog.Int("skipped", len(res.Skipped)))
	}
	return catalog, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Middleware that does not wrap the ResponseWriter, safe for websocket upgrades
	r.Use(customMiddleware.RequestID)
	if a.Config.Security.TrustProxy {
		r.Use(customMiddleware.RealIP)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	var allowedOrigins []string
	if !a.Config.Logging.Development {
		allowedOrigins = a.Config.Security.AllowedOrigins
	}
	r.Handle("/ws", handlers.NewWebSocketHandler(a.WebSocketHub, a.Config.WebSocket, allowedOrigins, a.Logger))
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler, a.Logger))

	r.Group(func(r chi.Router) {
		// RequestID → RealIP (trusted proxy only) → OTel → Logger → Recoverer → the rest
		otelMiddleware, err := customMiddleware.NewOTelMiddlewareFrom(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfigFrom(a.Config.Security, a.Logger)))
		}
		r.Use(customMiddleware.NewRateLimiterFrom(a.Config.Security.RateLimit, a.Logger).Handler)
		r.Use(customMiddleware.MaxBodyBytes(a.Config.Server.MaxBodyBytes))
		r.Use(customMiddleware.Compress(5))

		a.setupAPIRoutes(r)
		a.setupHTMLRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	exportHandler := handlers.NewExportHandler(a.Services.Export, a.Logger, a.ErrorHandler)
	reportHandler := handlers.NewReportHandler(a.Catalog, a.Renderer, a.Logger, a.ErrorHandler)
	notificationHandler := handlers.NewNotificationHandler(a.Notifier)
	clientLogHandler := handlers.NewClientLogHandler(a.Logger, a.ErrorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
		r.Mount("/export", exportHandler.Routes())
		r.Mount("/inventory", reportHandler.Routes())
		r.Get("/notifications", notificationHandler.List)
		r.Post("/client-log", clientLogHandler.Handle)
	})
}

// setupHTMLRoutes configures the report pages
func (a *Application) setupHTMLRoutes(r chi.Router) {
	reportHandler := handlers.NewReportHandler(a.Catalog, a.Renderer, a.Logger, a.ErrorHandler)

	r.Get("/", handlers.RedirectToStockReport)
	r.Get("/reports/{report}", reportHandler.ServeReportPage)
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts down gracefully
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.WebSocketHub.Start()
	a.performStartupHealthCheck(ctx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "Application started",
			slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("Shutdown requested")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.Notifier.Close()
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("log file close error: %w", err))
	}
	return errors.Join(errs...)
}

// performStartupHealthCheck logs components that are not ready. It never blocks startup.
func (a *Application) performStartupHealthCheck(ctx context.Context) {
	start := time.Now()
	status := a.Services.Health.ReadinessCheck(ctx)
	a.Logger.InfoContext(ctx, "Startup health check",
		slog.String("status", status.Status),
		slog.Duration("duration", time.Since(start)),
		slog.Int("products", a.Catalog.Len()))
}
