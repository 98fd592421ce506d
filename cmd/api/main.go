package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"innkeeper/internal/api"
	"innkeeper/internal/availability"
	"innkeeper/internal/calendarapi"
	"innkeeper/internal/catalog"
	"innkeeper/internal/config"
	"innkeeper/internal/domain"
	"innkeeper/internal/events"
	"innkeeper/internal/logging"
	"innkeeper/internal/metrics"
	"innkeeper/internal/repository"
	"innkeeper/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rooms := catalog.NewStore(nil)
	if err := catalog.Watch(ctx, cfg.Catalog.RoomsFile, cfg.Catalog.ReloadInterval, rooms, logging.Component(&logger, "catalog")); err != nil {
		logger.Error().Err(err).Str("rooms_file", cfg.Catalog.RoomsFile).Msg("load rooms")
		return err
	}
	logger.Info().Int("rooms", len(rooms.Rooms())).Msg("rooms loaded")

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	svc, err := initService(cfg, rooms, redisClient, &logger)
	if err != nil {
		return err
	}

	limiter := api.NewRateLimiter(cfg.API.RateLimit)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, limiter, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	httpServer := api.NewHTTPServer(cfg.API, svc, rooms, limiter, &logger)

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := config.PathFromEnv()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with in-memory cache")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initService(
	cfg *config.Config,
	rooms *catalog.Store,
	redisClient *redis.Client,
	logger *zerolog.Logger,
) (*service.AvailabilityService, error) {
	loc, err := cfg.Rules.Location()
	if err != nil {
		return nil, err
	}

	memory := repository.NewMemoryCalendarCache(cfg.Calendar.CacheTTL)
	var cache domain.CalendarCache = memory
	if redisClient != nil {
		primary := repository.NewRedisCalendarCache(redisClient, cfg.Calendar.CacheTTL)
		cache = repository.NewFailoverCalendarCache(primary, memory, logging.Component(logger, "cache"))
	}

	bus := events.NewEventBus()
	sink := events.LogSink(logging.Component(logger, "events"))
	for _, typ := range events.AllTypes {
		bus.Subscribe(typ, sink)
	}

	source := calendarapi.NewClient(cfg.Calendar, logging.Component(logger, "calendarapi"))
	evaluator := availability.NewEvaluator(cfg.Rules.Availability())

	svc := service.NewAvailabilityService(rooms, source, cache, evaluator, bus, logging.Component(logger, "availability"))
	svc.SetClock(loc, nil)

	logger.Info().
		Str("timezone", loc.String()).
		Str("afternoon_cutoff", evaluator.Rules().AfternoonCutoff.String()).
		Int("extension_buffer_minutes", evaluator.Rules().ExtensionBuffer).
		Msg("availability rules loaded")
	return svc, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	event := logger.Info().Int("http_port", cfg.API.HTTP.Port)
	if grpcServer != nil {
		event = event.Str("grpc_addr", grpcServer.Addr())
	}
	event.Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
