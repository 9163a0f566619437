package main

// @title Siempre Abierto API
// @version 1.0.0
// @description Офлайн-сервис сообщества водителей. Все данные хранятся во встроенной базе устройства.
// @description
// @description Основные возможности:
// @description - Места, открытые 24 часа: мастерские, эвакуаторы, АЗС, стоянки для грузовиков
// @description - Дорожные ограничения по высоте, ширине, массе и длине и предупреждения для своего ТС
// @description - Помощники и запросы помощи на дороге
// @description - Маршруты, рекомендованные сообществом
// @description - Журнал вкладов сообщества и его синхронизация
// @description - Живые подписки через websocket

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	_ "github.com/siempreabierto/docs"
	"github.com/siempreabierto/internal/config"
	httpDelivery "github.com/siempreabierto/internal/delivery/http"
	"github.com/siempreabierto/internal/delivery/http/handler"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/live"
	"github.com/siempreabierto/internal/pkg/logger"
	"github.com/siempreabierto/internal/repository/cache"
	redisRepo "github.com/siempreabierto/internal/repository/redis"
	"github.com/siempreabierto/internal/repository/sqlstore"
	"github.com/siempreabierto/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Siempre Abierto API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("redis", cfg.Redis.Enabled),
	)

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(ctx); err != nil {
		cancel()
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	cancel()

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
	} else {
		log.Info("Redis disabled: no stats cache, sync runs in local mode")
	}

	// 5. Initialize store and live hub
	hub := live.NewHub(redisClient, cfg.Live.ChannelPrefix, log)
	defer hub.Close()
	store := sqlstore.NewStore(db, hub, log)

	log.Info("Repositories initialized")

	// 6. Initialize Use Cases
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	ledger := usecase.NewLedger(log)
	settingsUC := usecase.NewSettingsUseCase(store, ledger, log)
	settings, err := settingsUC.Initialize(appCtx)
	if err != nil {
		log.Fatal("Failed to initialize settings", zap.Error(err))
	}
	settingsUC.Watch(appCtx, hub)
	log.Info("Device settings ready", zap.String("local_user_id", settings.LocalUserID))

	placeUC := usecase.NewPlaceUseCase(store, ledger, settingsUC, cfg.Geo, log)
	restrictionUC := usecase.NewRestrictionUseCase(store, ledger, settingsUC, cfg.Geo, log)
	helperUC := usecase.NewHelperUseCase(store, ledger, settingsUC, cfg.Geo, log)
	helpRequestUC := usecase.NewHelpRequestUseCase(store, ledger, settingsUC, cfg.Geo, log)
	routeUC := usecase.NewRouteUseCase(store, ledger, settingsUC, cfg.Geo, log)
	contributionUC := usecase.NewContributionUseCase(store, ledger, settingsUC, usecase.SyncOptions{
		Stream:     streamRepo,
		StreamName: cfg.Worker.SyncStream,
		BatchSize:  cfg.Worker.SyncBatch,
	}, log)

	statsUC := usecase.NewStatsUseCase(store.Stats(), cacheRepo, cfg.Cache.StatsCacheTTL, log)
	statsUC.WatchInvalidation(appCtx, hub)

	log.Info("Use cases initialized")

	// 7. Initialize HTTP Handlers
	liveHandler := handler.NewLiveHandler(placeUC, restrictionUC, contributionUC, log)
	handlers := httpDelivery.Handlers{
		Places:        handler.NewPlaceHandler(placeUC, log),
		Restrictions:  handler.NewRestrictionHandler(restrictionUC, log),
		Helpers:       handler.NewHelperHandler(helperUC, log),
		HelpRequests:  handler.NewHelpRequestHandler(helpRequestUC, log),
		Routes:        handler.NewRouteHandler(routeUC, log),
		Contributions: handler.NewContributionHandler(contributionUC, log),
		Settings:      handler.NewSettingsHandler(settingsUC, log),
		Stats:         handler.NewStatsHandler(statsUC, log),
		Live:          liveHandler,
	}

	log.Info("HTTP handlers initialized")

	// 8. Initialize HTTP Server
	server := httpDelivery.NewServer(cfg, log, handlers)

	// 9. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	stopApp()

	log.Info("Server stopped successfully")
}
