package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Kurzwaffle/antiques/internal/auth"
	"github.com/Kurzwaffle/antiques/internal/catalog"
	"github.com/Kurzwaffle/antiques/internal/config"
	"github.com/Kurzwaffle/antiques/internal/event"
	handler "github.com/Kurzwaffle/antiques/internal/handler/http"
	"github.com/Kurzwaffle/antiques/internal/repository/postgres"
	redisrepo "github.com/Kurzwaffle/antiques/internal/repository/redis"
	"github.com/Kurzwaffle/antiques/internal/service"
	"github.com/Kurzwaffle/antiques/pkg/database"
	"github.com/Kurzwaffle/antiques/pkg/health"
	"github.com/Kurzwaffle/antiques/pkg/httpclient"
	pkgkafka "github.com/Kurzwaffle/antiques/pkg/kafka"
	"github.com/Kurzwaffle/antiques/pkg/middleware"
	"github.com/Kurzwaffle/antiques/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	stop           context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	// Initialize OpenTelemetry tracing.
	a.tracerShutdown, err = tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	healthHandler := health.NewHandler()

	// Initialize Redis client.
	a.rdb, err = database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	rdb := a.rdb
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	// Initialize PostgreSQL when the catalog or the admin shell needs it.
	if cfg.DatabaseURL != "" {
		a.pool, err = database.NewPostgresPool(ctx, database.DefaultPostgresConfig(cfg.DatabaseURL), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		reg.MustRegister(database.NewPoolStatsCollector(a.pool, serviceName))

		if err := database.RunMigrations(ctx, a.pool, postgres.Migrations(), logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		pool := a.pool
		healthHandler.Register("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
	}

	// Shared client with a circuit breaker per hosted API.
	baseClient := httpclient.New(httpclient.DefaultConfig())
	breakerMetrics := httpclient.NewBreakerMetrics(reg)

	// Catalog.
	source, err := a.catalogSource(baseClient, breakerMetrics)
	if err != nil {
		return nil, err
	}
	products := catalog.NewService(source, cfg.CatalogRefreshInterval, logger)
	if err := products.Refresh(ctx); err != nil {
		// Readiness reports the catalog down until a later read succeeds.
		logger.Warn("initial catalog load failed",
			slog.String("source", source.Name()),
			slog.String("error", err.Error()),
		)
	}
	healthHandler.Register("catalog", products.Ready)

	// Events.
	var publisher event.Publisher = event.Discard{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(
			pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers),
			pkgkafka.NewProducerMetrics(reg),
			logger,
		)
		publisher = a.producer
		healthHandler.RegisterOptional("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	rates := cfg.Rates()
	storefront := service.NewStorefrontService(
		redisrepo.NewSessionRepository(a.rdb, cfg.SessionTTL()),
		products,
		event.NewProducer(publisher, logger),
		rates,
		service.NewMetrics(reg),
		logger,
	)

	// Long-lived background work (rate limiter sweeps) stops with the app.
	bg, stop := context.WithCancel(context.Background())
	a.stop = stop

	routerCfg := handler.RouterConfig{
		Storefront: handler.NewStorefrontHandler(storefront, logger),
		Catalog:    handler.NewCatalogHandler(products, rates, logger),
		Health:     healthHandler,
		Metrics:    middleware.NewHTTPMetrics(reg, serviceName),
		Gatherer:   reg,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedHeaders: middleware.DefaultCORSConfig().AllowedHeaders,
			ExposedHeaders: middleware.DefaultCORSConfig().ExposedHeaders,
			MaxAge:         3600,
		},
		CatalogTTL: time.Minute,
		PprofCIDRs: cfg.PprofAllowedCIDRs,
		Logger:     logger,
	}

	if cfg.AdminEnabled() {
		tokens := auth.NewJWTManager(cfg.AdminJWTSecret, cfg.AdminTokenTTL)
		admin := service.NewAdminService(
			a.authenticator(baseClient, breakerMetrics),
			postgres.NewProfileRepository(a.pool),
			tokens,
			products,
			logger,
		)
		routerCfg.Admin = handler.NewAdminHandler(admin, logger)
		routerCfg.TokenValidator = tokens.Validator()
		routerCfg.LoginLimiter = middleware.NewRateLimiter(bg, cfg.AdminLoginRPS, cfg.AdminLoginBurst, logger)
		logger.Info("admin routes enabled", slog.String("provider", cfg.AdminAuthProvider))
	}

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.NewRouter(routerCfg),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) catalogSource(client *httpclient.Client, metrics *httpclient.BreakerMetrics) (catalog.Source, error) {
	switch a.cfg.CatalogSource {
	case config.CatalogStatic:
		return catalog.NewStaticSource(), nil
	case config.CatalogPostgres:
		return catalog.NewPostgresSource(a.pool, a.logger), nil
	case config.CatalogSupabase:
		cb := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("catalog"), metrics, a.logger)
		return catalog.NewSupabaseSource(a.cfg.SupabaseURL, a.cfg.SupabaseAnonKey, cb), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", a.cfg.CatalogSource)
	}
}

func (a *App) authenticator(client *httpclient.Client, metrics *httpclient.BreakerMetrics) auth.Authenticator {
	if a.cfg.AdminAuthProvider == config.AdminSupabase {
		cb := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("auth"), metrics, a.logger)
		return auth.NewSupabaseAuthenticator(a.cfg.SupabaseURL, a.cfg.SupabaseAnonKey, cb)
	}
	return auth.NewLocalAuthenticator(postgres.NewAdminAccountRepository(a.pool))
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: the HTTP server first so
// in-flight requests can still publish and save, then the tracer, Kafka,
// Postgres and Redis.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeResources() error {
	var errs []error

	if a.stop != nil {
		a.stop()
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.rdb = nil
	}

	return errors.Join(errs...)
}
