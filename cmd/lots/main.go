package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tair/rfid-textile/docs"
	"github.com/tair/rfid-textile/internal/lot"
	httpDelivery "github.com/tair/rfid-textile/internal/lot/delivery/http"
	"github.com/tair/rfid-textile/internal/lot/metrics"
	"github.com/tair/rfid-textile/internal/lot/repository"
	"github.com/tair/rfid-textile/internal/lot/usecase/command"
	"github.com/tair/rfid-textile/kafka"
	"github.com/tair/rfid-textile/pkg/cache"
	"github.com/tair/rfid-textile/pkg/config"
	"github.com/tair/rfid-textile/pkg/database"
	"github.com/tair/rfid-textile/pkg/logger"
	"github.com/tair/rfid-textile/pkg/tracing"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Msg("Starting lots service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize tracer
	tp, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: docs.SwaggerInfo.Version,
		Endpoint:       cfg.JaegerEndpoint,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Raw pool for schema bootstrap and health checks
	sqlDB, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer sqlDB.Close()

	if err := database.EnsureSchema(sqlDB, cfg.Database.Schema); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to create schema")
	}

	db, err := database.NewGormConnection(cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Run migrations
	if err := repository.AutoMigrate(db); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Redis unavailable, continuing without cache and rate limiting")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var events command.EventPublisher = kafka.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.KafkaBrokers)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka unavailable, lifecycle events disabled")
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize handlers with Wire DI
	service, err := lot.InitializeService(db, redisClient, events, m, lot.Settings{
		WorkerCacheTTL:  cfg.WorkerCacheTTL,
		DailyTargetLots: cfg.DailyTargetLots,
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, []string{kafka.TopicDetectionCounts})
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka consumer unavailable, portal counts accepted over HTTP only")
		} else {
			defer consumer.Close()
			service.Detection.Register(consumer)
			g.Go(func() error {
				return consumer.Run(gctx)
			})
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           newRouter(cfg, service.HTTP, sqlDB, redisClient),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Logger.Info().
			Str("port", cfg.HTTPPort).
			Str("metrics_endpoint", "/metrics").
			Str("swagger", "/swagger/index.html").
			Msg("HTTP server started")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Logger.Error().Err(err).Msg("Lots service stopped with error")
		os.Exit(1)
	}
	logger.Logger.Info().Msg("Lots service stopped")
}

func newRouter(cfg *config.Config, handler *httpDelivery.LotHandler, db *sql.DB, redisClient *redis.Client) http.Handler {
	router := mux.NewRouter()

	middlewareConfig := httpDelivery.DefaultMiddlewareConfig(cfg.RequestTimeout)

	// Register all middlewares using middleware registration system
	httpDelivery.RegisterMiddlewares(router, middlewareConfig)

	limiter := httpDelivery.NewRateLimiter(redisClient, cfg.ReaderRateLimit, cfg.ReaderRateWindow, cfg.TrustedProxies)
	handler.RegisterRoutes(router,
		httpDelivery.AuthMiddleware(cfg.JWTSecret, cfg.AuthEnabled),
		limiter.Middleware,
	)

	// Health check endpoint
	handler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	httpDelivery.RegisterSwaggerDocs(router, httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return httpDelivery.SetupCORS(middlewareConfig)(router)
}
