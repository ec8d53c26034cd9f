// Package app wires configuration, services, transport and the HTTP
// server lifecycle into one application container.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sashabaranov/go-openai"

	"datachat/internal/analysis"
	"datachat/internal/config"
	"datachat/internal/conversations"
	"datachat/internal/dataset"
	"datachat/internal/engine"
	"datachat/internal/infrastructure"
	"datachat/internal/middleware"
	"datachat/internal/planner"
	"datachat/internal/services"
	transporthttp "datachat/internal/transport/http"
	"datachat/internal/ws"
)

// Version is set at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = ""
)

// Application holds the wired service graph and the HTTP server.
type Application struct {
	config *config.Config
	logger *slog.Logger

	conn     driver.Conn
	hub      *ws.Hub
	registry *prometheus.Registry

	analysisService     *services.AnalysisService
	conversationService *services.ConversationService
	healthService       *services.HealthService

	router chi.Router
	server *http.Server
}

// NewApplication loads configuration, initializes logging and builds the
// full service graph.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := infrastructure.InitializeLogger(cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewApplicationWithConfig(cfg)
}

// NewApplicationWithConfig builds the application from an existing
// configuration. Used by tests to skip environment loading.
func NewApplicationWithConfig(cfg *config.Config) (*Application, error) {
	logger := infrastructure.GetLogger()

	app := &Application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the service graph bottom-up. The ClickHouse
// pool is lazy, so construction succeeds without a reachable database.
func (a *Application) initializeServices() error {
	conn, err := dataset.OpenConn(a.config.ClickHouse)
	if err != nil {
		return fmt.Errorf("failed to open clickhouse pool: %w", err)
	}
	a.conn = conn

	provider, err := dataset.NewClickHouseProviderWithConn(conn, a.config.ClickHouse.DatasetTable, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create dataset provider: %w", err)
	}

	store, err := conversations.NewStore(conn, a.config.ClickHouse.ConversationsTable, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create conversation store: %w", err)
	}

	client := openai.NewClient(a.config.OpenAI.APIKey)
	generator := planner.NewOpenAIGeneratorWithClient(client, a.config.OpenAI.PlannerModel, a.logger)
	engines := engine.NewOpenAIFactory(client, a.config.OpenAI.EngineModel, a.config.Analysis.MaxSampleRows, a.logger)

	a.hub = ws.NewHub(a.logger)

	metrics := analysis.NewMetrics(a.registry)

	a.analysisService = services.NewAnalysisService(
		provider,
		generator,
		engines,
		analysis.Config{
			AbortOnError: a.config.Analysis.AbortOnError,
			StepYield:    a.config.Analysis.StepYield,
		},
		metrics,
		a.hub,
		a.logger,
	)
	a.conversationService = services.NewConversationService(store, a.logger)
	a.healthService = services.NewHealthService(Version, BuildTime, conn, a.hub, a.logger)

	return nil
}

// setupRouter builds the middleware chain and routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(a.logger))
	r.Use(middleware.Recoverer(a.logger))
	r.Use(middleware.SecurityHeaders)

	if a.config.Security.EnableCORS {
		r.Use(middleware.CORS(middleware.CORSConfig{
			AllowedOrigins:   a.config.Security.AllowedOrigins,
			AllowCredentials: true,
		}))
	}
	if a.config.Security.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(a.config.Security.RateLimit.RPS, a.config.Security.RateLimit.Burst, a.logger)
		r.Use(limiter.Handler)
	}

	analyzeHandler := transporthttp.NewAnalyzeHandler(a.analysisService, a.logger)
	conversationsHandler := transporthttp.NewConversationsHandler(a.conversationService, a.logger)
	healthHandler := transporthttp.NewHealthHandler(a.healthService, a.logger)

	r.Post("/analyze", analyzeHandler.Analyze)

	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", conversationsHandler.Create)
		r.Put("/{conversationID}", conversationsHandler.Update)
		r.Get("/{userID}", conversationsHandler.List)
		r.Get("/{userID}/{conversationID}", conversationsHandler.Get)
		r.Delete("/{conversationID}", conversationsHandler.Delete)
	})

	r.Get("/api/health", healthHandler.HealthCheck)
	r.Get("/api/version", healthHandler.Version)

	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(a.hub, w, r)
	})

	a.router = r
}

// createServer configures the HTTP server. WriteTimeout stays zero by
// default because analyze responses stream for as long as a session runs.
func (a *Application) createServer() {
	a.server = &http.Server{
		Addr:         a.config.Server.Addr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}
}

// Router exposes the HTTP handler, mainly for tests.
func (a *Application) Router() http.Handler {
	return a.router
}

// Run starts the hub and HTTP server, then blocks until SIGINT/SIGTERM
// and shuts down gracefully.
func (a *Application) Run() error {
	a.hub.Start()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			slog.String("addr", a.server.Addr),
			slog.String("version", Version))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		a.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	return a.Stop(ctx)
}

// Stop shuts down the server, hub and backing connections.
func (a *Application) Stop(ctx context.Context) error {
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		return err
	}

	a.hub.Stop()

	if err := a.conn.Close(); err != nil {
		a.logger.Warn("clickhouse close failed", slog.String("error", err.Error()))
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.logger.Warn("log file close failed", slog.String("error", err.Error()))
	}
	a.logger.Info("server stopped")
	return nil
}
