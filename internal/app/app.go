package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/automarketer/internal/config"
	httpcontroller "github.com/vadim/automarketer/internal/controller/http"
	"github.com/vadim/automarketer/internal/database"
	automationentity "github.com/vadim/automarketer/internal/domain/automation/entity"
	"github.com/vadim/automarketer/internal/domain/automation/generator"
	automation "github.com/vadim/automarketer/internal/domain/automation/service"
	"github.com/vadim/automarketer/internal/domain/automation/trend"
	contentdao "github.com/vadim/automarketer/internal/domain/content/dao"
	contentsvc "github.com/vadim/automarketer/internal/domain/content/service"
	peakdao "github.com/vadim/automarketer/internal/domain/peakhour/dao"
	peakentity "github.com/vadim/automarketer/internal/domain/peakhour/entity"
	peaksvc "github.com/vadim/automarketer/internal/domain/peakhour/service"
	publishsvc "github.com/vadim/automarketer/internal/domain/publish/service"
	recipientdao "github.com/vadim/automarketer/internal/domain/recipient/dao"
	recipientsvc "github.com/vadim/automarketer/internal/domain/recipient/service"
	scheduledao "github.com/vadim/automarketer/internal/domain/schedule/dao"
	"github.com/vadim/automarketer/internal/domain/schedule/scheduler"
	schedulesvc "github.com/vadim/automarketer/internal/domain/schedule/service"
	"github.com/vadim/automarketer/internal/httpx/response"
	"github.com/vadim/automarketer/internal/httpx/upstream/newsapi"
	"github.com/vadim/automarketer/internal/metrics"
	"github.com/vadim/automarketer/internal/notify"
	"github.com/vadim/automarketer/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger
	logCloser  io.Closer
	metrics    *metrics.Metrics

	// Infrastructure
	pool   *pgxpool.Pool
	stores stores
	media  *storage.S3Storage

	// Domain services
	content      *contentsvc.Service
	recipients   *recipientsvc.Service
	peaks        *peaksvc.Registry
	orchestrator *publishsvc.Orchestrator
	queue        *schedulesvc.Queue
	trends       automation.TrendSource
	manager      *automation.Manager

	// Dispatcher for due scheduled posts
	dispatcher *scheduler.Dispatcher
}

// stores are the repositories behind the domain services
type stores struct {
	peaks      peakdao.Repository
	posts      scheduledao.ScheduledPostRepository
	records    contentdao.RecordRepository
	businesses contentdao.BusinessRepository
	recipients recipientdao.Repository
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger, closer := newLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	// Initialize router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	app := &App{
		cfg:       cfg,
		router:    r,
		logger:    logger,
		logCloser: closer,
		metrics:   metrics.New(),
	}
	r.Use(app.metrics.Middleware)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// Initialize infrastructure
	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	// Initialize domain layers
	if err := app.initDomains(ctx); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	// Register routes
	app.registerRoutes()

	// Initialize HTTP server
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Initialize dispatcher
	if cfg.Dispatcher.Enabled {
		app.dispatcher = scheduler.New(app.queue, app.queue, scheduler.Config{
			Interval:   cfg.Dispatcher.Interval,
			BatchSize:  cfg.Dispatcher.BatchSize,
			MaxJitter:  cfg.Dispatcher.MaxJitter,
			StaleAfter: cfg.Dispatcher.StaleTimeout,
		}, logger)
	}

	return app, nil
}

// initInfrastructure connects to Postgres and S3. Without a DSN every
// store is kept in memory.
func (a *App) initInfrastructure(ctx context.Context) error {
	if a.cfg.Database.PostgresDSN == "" {
		a.logger.Warn("no database configured, using in-memory stores")
		a.stores = stores{
			peaks:      peakdao.NewPeakHourMemory(),
			posts:      scheduledao.NewScheduledPostMemory(),
			records:    contentdao.NewRecordMemory(),
			businesses: contentdao.NewBusinessMemory(),
			recipients: recipientdao.NewRecipientMemory(),
		}
	} else {
		pool, err := database.NewPostgresPool(ctx, a.cfg.Database.PostgresDSN, database.PoolConfig{
			MaxConns:     a.cfg.Database.MaxConns,
			MinConns:     a.cfg.Database.MinConns,
			ConnLifetime: a.cfg.Database.ConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.pool = pool

		if a.cfg.Database.Migrate {
			if err := database.Migrate(ctx, pool); err != nil {
				pool.Close()
				return fmt.Errorf("migrating database: %w", err)
			}
		}

		a.stores = stores{
			peaks:      peakdao.NewPeakHourPostgres(pool),
			posts:      scheduledao.NewScheduledPostPostgres(pool),
			records:    contentdao.NewRecordPostgres(pool),
			businesses: contentdao.NewBusinessPostgres(pool),
			recipients: recipientdao.NewRecipientPostgres(pool),
		}
	}

	if a.cfg.S3.Bucket != "" {
		a.media = storage.NewS3Storage(storage.S3Config{
			Endpoint:        a.cfg.S3.Endpoint,
			AccessKeyID:     a.cfg.S3.AccessKeyID,
			SecretAccessKey: a.cfg.S3.SecretAccessKey,
			Bucket:          a.cfg.S3.Bucket,
			Region:          a.cfg.S3.Region,
			PublicURL:       a.cfg.S3.PublicURL,
		})
	}

	return nil
}

// initDomains initializes domain layers (DAO, Service, Orchestration)
func (a *App) initDomains(ctx context.Context) error {
	a.content = contentsvc.New(a.stores.records, a.stores.businesses)
	a.recipients = recipientsvc.New(a.stores.recipients, a.cfg.Email.Recipients)

	// Peak hours
	loc, err := a.cfg.PeakHours.Location()
	if err != nil {
		return err
	}
	defaults, err := peakentity.NewSet(a.cfg.PeakHours.Defaults...)
	if err != nil {
		return fmt.Errorf("peak hour defaults: %w", err)
	}
	a.peaks = peaksvc.New(a.stores.peaks, defaults, loc)

	// Publishing
	registry := newAdapterRegistry(a.cfg, a.recipients, a.logger)
	a.orchestrator = publishsvc.New(registry,
		publishsvc.WithTargetTimeout(a.cfg.Publish.TargetTimeout),
		publishsvc.WithRecorder(a.metrics),
		publishsvc.WithLogger(a.logger),
		publishsvc.WithBreaker(publishsvc.BreakerConfig{
			Enabled:          a.cfg.Publish.BreakerEnabled,
			FailureThreshold: a.cfg.Publish.BreakerFailures,
			Window:           a.cfg.Publish.BreakerWindow,
			Delay:            a.cfg.Publish.BreakerOpenDelay,
		}),
	)

	platforms := make([]string, 0, len(registry.Channels()))
	for _, ch := range registry.Channels() {
		platforms = append(platforms, string(ch))
	}
	if err := a.peaks.Register(ctx, platforms...); err != nil {
		return fmt.Errorf("registering peak hours: %w", err)
	}
	a.logger.Info("publishing channels registered", "channels", platforms)

	// Schedule queue
	a.queue = schedulesvc.New(a.stores.posts, a.peaks, a.orchestrator, schedulesvc.Config{
		BatchSize:   a.cfg.Dispatcher.BatchSize,
		Concurrency: a.cfg.Dispatcher.Concurrency,
	}, a.logger)
	a.queue.SetRecorder(a.metrics)

	if _, err := a.queue.RecoverStale(ctx, a.cfg.Dispatcher.StaleTimeout); err != nil {
		return fmt.Errorf("recovering stale posts: %w", err)
	}

	// Automation
	a.trends = a.newTrendSource()
	a.manager = automation.NewManager(automation.Deps{
		Generator:   a.newGenerator(),
		Trends:      a.trends,
		Business:    &businessReaderAdapter{content: a.content},
		Content:     a.content,
		Publisher:   a.orchestrator,
		Enqueuer:    &enqueuerAdapter{queue: a.queue},
		Targets:     a.orchestrator,
		Peaks:       a.peaks,
		Sink:        a.newSink(),
		Recorder:    a.metrics,
		Logger:      a.logger,
		TickTimeout: a.cfg.Automation.TickTimeout,
	})

	return nil
}

// newGenerator prefers OpenAI and falls back to templates
func (a *App) newGenerator() automation.Generator {
	if a.cfg.OpenAI.APIKey == "" {
		return generator.Template{}
	}
	return generator.Fallback{
		Primary:   generator.NewOpenAI(a.cfg.OpenAI.APIKey, a.cfg.OpenAI.BaseURL, a.cfg.OpenAI.Model),
		Secondary: generator.Template{},
		Logger:    a.logger,
	}
}

// newTrendSource prefers news headlines and falls back to the static topics
func (a *App) newTrendSource() automation.TrendSource {
	static := trend.Static(trend.DefaultTopics)
	if a.cfg.NewsAPI.APIKey == "" {
		return static
	}
	client := newsapi.New(a.cfg.NewsAPI.APIKey,
		newsapi.WithBaseURL(a.cfg.NewsAPI.BaseURL),
		newsapi.WithPageSize(a.cfg.NewsAPI.PageSize),
	)
	return trend.Fallback{
		Primary:   trend.NewNews(client),
		Secondary: static,
		Logger:    a.logger,
	}
}

// newSink always logs failures and also posts them to Slack when configured
func (a *App) newSink() notify.Sink {
	sinks := notify.Multi{notify.NewLogSink(a.logger)}
	if a.cfg.Slack.Enabled() {
		sinks = append(sinks, notify.NewSlackSink(a.cfg.Slack.Token, a.cfg.Slack.Channel, a.logger))
	}
	return sinks
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)
	a.router.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	// Swagger UI documentation
	swaggerHandler := httpcontroller.NewSwaggerHandler("Automarketer API", OpenAPISpec)
	swaggerHandler.RegisterRoutes(a.router)

	// API v1
	a.router.Route("/api/v1", func(r chi.Router) {
		httpcontroller.NewPublishHandler(a.orchestrator, a.content).RegisterRoutes(r)
		httpcontroller.NewScheduleHandler(a.queue, a.content).RegisterRoutes(r)
		httpcontroller.NewPeakHourHandler(a.peaks).RegisterRoutes(r)
		httpcontroller.NewAutomationHandler(a.manager, httpcontroller.AutomationDefaults{
			Interval:  a.cfg.Automation.DefaultInterval,
			Platforms: a.cfg.Automation.DefaultPlatforms,
			Mode:      automationentity.Mode(a.cfg.Automation.DefaultMode),
		}).RegisterRoutes(r)
		httpcontroller.NewRecipientHandler(a.recipients).RegisterRoutes(r)
		httpcontroller.NewContentHandler(a.content).RegisterRoutes(r)
		httpcontroller.NewTrendsHandler(a.trends, &businessReaderAdapter{content: a.content}).RegisterRoutes(r)

		if a.media != nil {
			httpcontroller.NewMediaHandler(a.media).RegisterRoutes(r)
		}
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// readyHandler reports ready once the database answers
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	if a.pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := a.pool.Ping(ctx); err != nil {
			a.logger.Warn("readiness check failed", "error", err)
			response.ServiceUnavailable(w, "database unavailable")
			return
		}
	}
	response.OK(w, map[string]string{"status": "ready"})
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	// Start dispatcher if enabled
	if a.dispatcher != nil {
		a.dispatcher.Start(ctx)
	}

	// Channel to receive errors from server
	errCh := make(chan error, 1)

	// Start HTTP server in goroutine
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		_ = a.Shutdown(context.Background())
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application.
// Automation sessions are cancelled and the dispatcher finishes its batch.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []error

	// Stop accepting requests first
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down HTTP server: %w", err))
	}

	if err := a.manager.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("stopping automation: %w", err))
	}

	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}

	a.closeInfrastructure()

	a.logger.Info("shutdown complete")
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}

	return errors.Join(errs...)
}

// closeInfrastructure releases the database pool
func (a *App) closeInfrastructure() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
