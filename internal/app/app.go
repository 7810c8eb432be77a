package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tiendatttt234/GoGo-Be/internal/auth"
	"github.com/tiendatttt234/GoGo-Be/internal/config"
	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/event"
	handler "github.com/tiendatttt234/GoGo-Be/internal/handler/http"
	"github.com/tiendatttt234/GoGo-Be/internal/repository/postgres"
	"github.com/tiendatttt234/GoGo-Be/internal/service"
	"github.com/tiendatttt234/GoGo-Be/internal/worker"
	"github.com/tiendatttt234/GoGo-Be/migrations"
	"github.com/tiendatttt234/GoGo-Be/pkg/database"
	"github.com/tiendatttt234/GoGo-Be/pkg/health"
	pkgkafka "github.com/tiendatttt234/GoGo-Be/pkg/kafka"
	"github.com/tiendatttt234/GoGo-Be/pkg/middleware"
	"github.com/tiendatttt234/GoGo-Be/pkg/ratelimit"
	"github.com/tiendatttt234/GoGo-Be/pkg/tracing"
)

const (
	serviceName = "gogo-api"

	idempotencyTTL   = 24 * time.Hour
	reconcileRetries = 3
)

// App wires together all dependencies and runs the GoGo API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	reconciler     *pkgkafka.Consumer
	rateLimiter    *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error

	workers sync.WaitGroup
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Insecure:       cfg.OTELInsecure,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.PostgresConfig()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(nil, pool, serviceName); err != nil {
		logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Redis.
	rdb, err := database.NewRedisClient(ctx, cfg.RedisConfig(), logger)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rdb
	logger.Info("connected to Redis")

	// Initialize Kafka. A disabled bus leaves the event producer as a no-op.
	var publisher pkgkafka.Publisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = pkgkafka.NewBreakerPublisher(a.producer, pkgkafka.DefaultBreakerConfig("kafka-producer"), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("kafka disabled, domain events will not be published")
	}

	// Build the dependency graph.
	codec := auth.NewTokenCodec(cfg.JWTSecret)
	guard := auth.NewGuard(auth.NewExtractor(codec), logger)

	tourRepo := postgres.NewTourRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	blogRepo := postgres.NewBlogRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	eventProducer := event.NewProducer(publisher, logger)

	bound := domain.RatingBound{Min: cfg.ReviewRatingMin, Max: cfg.ReviewRatingMax}
	reviewService := service.NewReviewService(reviewRepo, tourRepo, eventProducer, bound, logger)
	authService := service.NewAuthService(
		userRepo,
		codec,
		ratelimit.NewRedis(rdb, "gogo:auth", cfg.LoginRateWindow, logger),
		eventProducer,
		service.AuthConfig{TokenTTL: cfg.JWTAccessTokenTTL, AttemptLimit: cfg.LoginRateLimit},
		logger,
	)

	if cfg.KafkaEnabled && cfg.ReconcilerEnabled {
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		a.reconciler = worker.NewReconcileConsumer(
			worker.ConsumerConfig{
				Brokers:    cfg.KafkaBrokers,
				GroupID:    cfg.ReconcilerGroupID,
				MaxRetries: reconcileRetries,
			},
			worker.NewReconciler(reviewService, logger),
			pkgkafka.NewFallbackIdempotencyStore(
				pkgkafka.NewRedisIdempotencyStore(rdb, "gogo:reconcile", idempotencyTTL),
				idempotencyTTL, logger,
			),
			a.dlq,
			logger,
		)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if a.producer != nil {
		producer := a.producer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// HTTP router.
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxy, logger)
	}

	router := handler.NewRouter(handler.RouterDeps{
		Tours:       service.NewTourService(tourRepo, reviewRepo, eventProducer, logger),
		Reviews:     reviewService,
		Reviewers:   service.NewReviewerService(reviewRepo),
		Blogs:       service.NewBlogService(blogRepo, logger),
		Users:       service.NewUserService(userRepo, logger),
		Auth:        authService,
		Guard:       guard,
		Health:      healthHandler,
		Logger:      logger,
		CORS:        cors,
		Cookie:      handler.CookieConfig{Secure: cfg.CookieSecure},
		TrustProxy:  cfg.TrustProxy,
		RateLimiter: a.rateLimiter,
		AdminCIDRs:  cfg.AdminAllowedCIDRs,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and the reconcile worker and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	if a.reconciler != nil {
		a.workers.Add(1)
		go func() {
			defer a.workers.Done()
			if err := a.reconciler.Start(workerCtx); err != nil {
				a.logger.Error("reconcile consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	stopWorkers()
	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Reconcile worker
// 3. Tracer (flush pending spans)
// 4. Kafka producers
// 5. Redis and PostgreSQL
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if a.rateLimiter != nil {
		a.rateLimiter.Close()
	}

	// 2. Wait for the worker to finish the message in hand.
	if a.reconciler != nil {
		if err := a.reconciler.Close(); err != nil {
			a.logger.Error("reconcile consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.workers.Wait()
	}

	errs = append(errs, a.closeAll())

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeAll releases the tracer, Kafka, Redis and the pool. Components that
// were never created are skipped.
func (a *App) closeAll() error {
	var errs []error

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}

	return errors.Join(errs...)
}
