package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/siempreabierto/internal/config"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/live"
	"github.com/siempreabierto/internal/pkg/logger"
	"github.com/siempreabierto/internal/repository/cache"
	redisRepo "github.com/siempreabierto/internal/repository/redis"
	"github.com/siempreabierto/internal/repository/sqlstore"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/worker"
	"github.com/siempreabierto/internal/worker/ledger"
	"github.com/siempreabierto/internal/worker/stats"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if there is anything to run
	if !cfg.Worker.SyncEnabled && !cfg.Redis.Enabled {
		fmt.Println("Worker has nothing to do. Set WORKER_SYNC_ENABLED=true or REDIS_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Siempre Abierto worker")
	log.Info("Configuration loaded",
		zap.Duration("sync_interval", cfg.Worker.SyncInterval),
		zap.Int("sync_batch", cfg.Worker.SyncBatch),
		zap.String("sync_stream", cfg.Worker.SyncStream),
		zap.Bool("redis", cfg.Redis.Enabled))

	// 3. Open the embedded store
	db, err := sqlstore.New(&cfg.Database, cfg.GetDatabaseDSN(), log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		cancelMigrate()
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	cancelMigrate()

	// 4. Connect to Redis (optional)
	var (
		redisClient *redis.Client
		cacheRepo   repository.CacheRepository
		streamRepo  repository.StreamRepository
	)
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
		redisClient = rdb.Client()
		cacheRepo = cache.NewCacheRepository(rdb)
		streamRepo = redisRepo.NewStreamRepository(redisClient, log)
	}

	// 5. Initialize store and use cases
	hub := live.NewHub(redisClient, cfg.Live.ChannelPrefix, log)
	defer hub.Close()
	store := sqlstore.NewStore(db, hub, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	contributionLedger := usecase.NewLedger(log)
	settingsUC := usecase.NewSettingsUseCase(store, contributionLedger, log)
	if _, err := settingsUC.Initialize(ctx); err != nil {
		log.Fatal("Failed to initialize settings", zap.Error(err))
	}
	settingsUC.Watch(ctx, hub)

	contributionUC := usecase.NewContributionUseCase(store, contributionLedger, settingsUC, usecase.SyncOptions{
		Stream:     streamRepo,
		StreamName: cfg.Worker.SyncStream,
		BatchSize:  cfg.Worker.SyncBatch,
	}, log)
	statsUC := usecase.NewStatsUseCase(store.Stats(), cacheRepo, cfg.Cache.StatsCacheTTL, log)

	// 6. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(worker.DefaultShutdownTimeout, log)
	if cfg.Worker.SyncEnabled {
		workerManager.Register(ledger.NewContributionSyncWorker(contributionUC, settingsUC, cfg.Worker.SyncInterval, log))
	}
	if cacheRepo != nil {
		// без кеша статистика и так считается на каждый запрос
		refreshInterval := cfg.Cache.StatsCacheTTL / 2
		if refreshInterval <= 0 {
			refreshInterval = 30 * time.Minute
		}
		workerManager.Register(stats.NewRefreshWorker(statsUC, refreshInterval, log))
	}

	// Start workers
	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// Cancel context to stop workers
	cancel()

	// Stop worker manager
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
