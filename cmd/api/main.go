package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"authgate/api/internal/cache"
	"authgate/api/internal/config"
	"authgate/api/internal/database"
	"authgate/api/internal/events"
	"authgate/api/internal/handlers"
	"authgate/api/internal/jobs"
	"authgate/api/internal/log"
	"authgate/api/internal/oauth"
	"authgate/api/internal/ratelimit"
	"authgate/api/internal/repository"
	"authgate/api/internal/security"
	"authgate/api/internal/server"
	"authgate/api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open credential store")
	}

	checks := map[string]handlers.Pinger{"store": store.Ping}

	var (
		redisClient *cache.Redis
		limiter     ratelimit.Limiter = ratelimit.NewMemoryLimiter()
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		limiter = ratelimit.NewRedisLimiter(redisClient)
		checks["redis"] = redisClient.Ping
	} else {
		logger.Warn().Msg("redis disabled, rate limits are per process")
	}

	publisher, err := newPublisher(cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init event publisher")
	}

	hasher, err := security.NewHasher(security.Argon2Params{
		Time:    cfg.Security.Argon2.Time,
		Memory:  cfg.Security.Argon2.Memory,
		Threads: cfg.Security.Argon2.Threads,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid argon2 parameters")
	}

	tokens, err := security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.JWTTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init token issuer")
	}

	googleClient := oauth.NewClient(oauth.ConfigFromApp(cfg))
	if cfg.Google.ClientID == "" {
		logger.Warn().Msg("google client id not set, google sign-in is disabled")
	}

	authService := service.NewAuthService(store, hasher, tokens, googleClient, publisher, cfg, logger)
	handlerSet := handlers.NewHandlerSet(logger, cfg, authService, limiter, checks)
	httpServer, err := server.NewHTTPServer(cfg, logger, handlerSet)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init http server")
	}

	var keys jobs.KeyRefresher
	if cfg.Google.ClientID != "" {
		keys = googleClient.Keys()
	}
	scheduler := jobs.NewScheduler(keys, cfg.Google.JWKSRefresh, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, store, redisClient, publisher)
}

func openStore(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Postgres.AutoMigrate {
			if err := database.Migrate(cfg.Postgres.DSN); err != nil {
				return repository.Store{}, err
			}
			logger.Info().Msg("postgres migrations applied")
		}
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return repository.Store{}, err
		}
		return repository.Store{
			Users:    repository.NewUserRepository(pool),
			Sessions: repository.NewSessionRepository(pool),
			Ping:     pool.Ping,
			Close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case "mongo":
		client, err := database.NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			return repository.Store{}, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return repository.Store{}, err
		}
		return repository.Store{
			Users:    repository.NewMongoUserRepository(db),
			Sessions: repository.NewMongoSessionRepository(db),
			Ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
			Close:    client.Disconnect,
		}, nil

	case "memory":
		logger.Warn().Msg("using in-memory credential store, data is lost on restart")
		return repository.NewMemoryStore().Store(), nil
	}
	return repository.Store{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func newPublisher(cfg *config.AppConfig, redisClient *cache.Redis) (events.Publisher, error) {
	switch cfg.Events.Driver {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("events driver redis needs redis.addr")
		}
		return events.NewRedisStream(redisClient.Client(), cfg.Events.Stream), nil
	case "kafka":
		if len(cfg.Events.Brokers) == 0 {
			return nil, fmt.Errorf("events driver kafka needs events.brokers")
		}
		return events.NewKafka(cfg.Events.Brokers, cfg.Events.Topic), nil
	default:
		return events.Noop{}, nil
	}
}

func waitForShutdown(
	logger zerolog.Logger,
	srv *server.HTTPServer,
	scheduler *jobs.Scheduler,
	store repository.Store,
	redisClient *cache.Redis,
	publisher events.Publisher,
) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
	}

	if err := publisher.Close(); err != nil {
		logger.Error().Err(err).Msg("event publisher close error")
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("credential store close error")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
