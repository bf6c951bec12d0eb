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

	"acaipulse/internal/analytics"
	"acaipulse/internal/config"
	"acaipulse/internal/dataset"
	apperrors "acaipulse/internal/errors"
	"acaipulse/internal/exporter"
	"acaipulse/internal/filters"
	"acaipulse/internal/infrastructure"
	customMiddleware "acaipulse/internal/middleware"
	"acaipulse/internal/services"
	handlers "acaipulse/internal/transport/http"
	ws "acaipulse/internal/websocket"
	"acaipulse/pkg/contracts"
)

// Application holds every long-lived component of the dashboard server.
type Application struct {
	Config           *config.Config
	Paths            *config.Paths
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.BusinessMetrics
	WebSocketHub     *ws.Hub
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	ErrorHandler     *apperrors.ErrorHandler
}

// NewApplication loads configuration from the environment and config file,
// initializes logging and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger, "")
}

// New wires the application from an already loaded configuration.
// Relative paths resolve against baseDir, or the working directory when
// baseDir is empty.
func New(cfg *config.Config, logger *slog.Logger, baseDir string) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.GetPaths(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		ErrorHandler:  apperrors.NewErrorHandler(logger, false),
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the dataset, filter, aggregation and export
// layers and the services on top of them.
func (a *Application) initializeServices() {
	locale := a.Config.FormatLocale()

	loader := dataset.NewLoader(dataset.Options{
		Delimiter: a.Config.DelimiterRune(),
		Locale:    locale,
		Sheet:     a.Config.Dataset.Sheet,
	}, a.Logger, a.Metrics)

	pipeline := filters.NewPipeline(filters.DefaultRegistry(), a.Logger, a.Metrics)
	aggregator := analytics.NewAggregator(a.Logger, analytics.Config{Locale: locale})
	exp := exporter.New(exporter.Options{
		Dir:       a.Paths.ExportDir,
		Locale:    locale,
		Delimiter: a.Config.DelimiterRune(),
		MaxRows:   a.Config.Export.MaxRows,
	}, a.Logger, a.Metrics)

	a.WebSocketHub = ws.NewHub(ws.Options{
		PingPeriod: a.Config.WebSocket.PingPeriod,
		PongWait:   a.Config.WebSocket.PongWait,
	}, a.Logger, a.Metrics)

	a.DashboardService = services.NewDashboardService(a.Paths.DatasetFile, services.DashboardDeps{
		Loader:     loader,
		Pipeline:   pipeline,
		Aggregator: aggregator,
		Exporter:   exp,
		Notifier:   a.WebSocketHub,
		Logger:     a.Logger,
	})

	a.HealthService = services.NewHealthService(
		contracts.Version,
		contracts.BuildTime,
		contracts.GitCommit,
		a.DashboardService,
		a.WebSocketHub,
		a.Logger,
	)
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Order: RequestID → RealIP → OTel → error/log → headers → CORS → rate limit → timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// the websocket upgrade needs the raw writer, so it stays outside the group
	r.Handle(config.WebSocketEndpoint, ws.NewHandler(a.WebSocketHub, ws.HandlerConfig{
		AllowedOrigins:  a.Config.Security.AllowedOrigins,
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
	}, a.Logger, a.ErrorHandler))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(apperrors.NewErrorMiddleware(a.ErrorHandler, a.Logger).Handler)
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}

		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.ErrorHandler).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
		r.Use(customMiddleware.Compress(5))

		r.Route(config.APIBasePath, func(r chi.Router) {
			handlers.NewHealthHandler(a.HealthService, a.Logger).RegisterRoutes(r)
			handlers.NewDashboardHandler(a.DashboardService, a.Logger, a.ErrorHandler).RegisterRoutes(r)
		})
	})

	a.Router = r
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

// Preload reads the dataset ahead of the first request. A file that
// cannot be parsed is fatal; a missing file is only logged so the service
// can start and report not ready until a reload succeeds.
func (a *Application) Preload(ctx context.Context) error {
	if !a.Config.Dataset.Preload {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, config.DatasetLoadTimeout)
	defer cancel()

	info, err := a.DashboardService.Preload(ctx)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeStorage) {
			a.Logger.WarnContext(ctx, "Dataset not available at startup",
				slog.String("path", a.Paths.DatasetFile),
				slog.String("error", err.Error()))
			return nil
		}
		return fmt.Errorf("failed to preload dataset: %w", err)
	}

	a.Logger.InfoContext(ctx, "Dataset preloaded",
		slog.String("path", info.Path),
		slog.Int("rows", info.Rows),
		slog.Any("coerced", info.Coerced))
	return nil
}

// Start preloads the dataset and starts serving. Server failures after
// startup cancel ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if err := a.Preload(ctx); err != nil {
		return err
	}

	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			// Signal shutdown through context instead of os.Exit
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
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

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
