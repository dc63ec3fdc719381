package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"moodadmin/api/internal/cache"
	"moodadmin/api/internal/catalog"
	"moodadmin/api/internal/config"
	"moodadmin/api/internal/database"
	"moodadmin/api/internal/email"
	"moodadmin/api/internal/handlers"
	"moodadmin/api/internal/ingest"
	"moodadmin/api/internal/jobs"
	"moodadmin/api/internal/log"
	"moodadmin/api/internal/repository"
	"moodadmin/api/internal/server"
	"moodadmin/api/internal/service"
	"moodadmin/api/internal/stats"
	"moodadmin/api/internal/storage"
	"moodadmin/api/internal/watch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBuckets(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure buckets failed")
	}

	watcher := watch.NewWatcher(redisClient, logger)

	appUsers := repository.NewAppUserRepository(dbPool)
	moodSessions := repository.NewMoodSessionRepository(dbPool)
	versions := repository.NewVersionRepository(dbPool)
	categories := repository.NewCategoryRepository(dbPool)
	meditations := repository.NewMeditationRepository(dbPool)
	admins := repository.NewAdminRepository(dbPool)
	adminSessions := repository.NewAdminSessionRepository(dbPool)
	resets := repository.NewPasswordResetRepository(dbPool)

	mailer := email.NewMailer(cfg.SMTP)

	authService := service.NewAuthService(admins, adminSessions, resets, mailer, cfg, logger)
	if err := authService.EnsureBootstrapAdmin(ctx, cfg.Security.BootstrapAdminEmail, cfg.Security.BootstrapAdminPassword); err != nil {
		logger.Error().Err(err).Msg("bootstrap admin failed")
	}

	directory := service.NewDirectoryService(appUsers, watcher, logger)
	contentService := service.NewContentService(versions, categories, objectStore, watcher, logger)
	meditationService := service.NewMeditationService(meditations, objectStore, watcher, logger)

	aggregator := stats.NewAggregator(moodSessions, watcher, logger)
	aggregator.Start(ctx)

	liveCatalog := catalog.New(versions, categories, watcher, logger)
	liveCatalog.Start(ctx)

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	consumer := ingest.NewConsumer(redisClient, moodSessions, watcher, cfg.Ingest, logger)
	go func() {
		if err := consumer.Start(consumerCtx); err != nil && consumerCtx.Err() == nil {
			logger.Error().Err(err).Msg("session ingest stopped")
		}
	}()

	scheduler := jobs.NewScheduler(aggregator, categories, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	handlerSet := handlers.NewHandlerSet(handlers.Deps{
		Log:         logger,
		Cfg:         cfg,
		AuthService: authService,
		Directory:   directory,
		Content:     contentService,
		Meditations: meditationService,
		Aggregator:  aggregator,
		Catalog:     liveCatalog,
		Admins:      admins,
		Sessions:    adminSessions,
		DB:          dbPool,
		Cache:       redisClient,
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, aggregator, liveCatalog, stopConsumer, dbPool, redisClient)
}

func waitForShutdown(
	logger zerolog.Logger,
	srv *server.HTTPServer,
	scheduler *jobs.Scheduler,
	aggregator *stats.Aggregator,
	liveCatalog *catalog.Catalog,
	stopConsumer context.CancelFunc,
	db *pgxpool.Pool,
	redisClient *redis.Client,
) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		cancel := scheduler.Stop()
		cancel()
	}

	stopConsumer()
	aggregator.Stop()
	liveCatalog.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
