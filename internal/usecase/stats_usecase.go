package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/live"
	"github.com/siempreabierto/internal/metrics"
	"go.uber.org/zap"
)

// StatsUseCase обрабатывает бизнес-логику для статистики
type StatsUseCase struct {
	statsRepo repository.StatsRepository
	cacheRepo repository.CacheRepository
	ttl       time.Duration
	logger    *zap.Logger
}

// NewStatsUseCase создает новый экземпляр StatsUseCase.
// cacheRepo может быть nil, если Redis не настроен.
func NewStatsUseCase(
	statsRepo repository.StatsRepository,
	cacheRepo repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
) *StatsUseCase {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &StatsUseCase{
		statsRepo: statsRepo,
		cacheRepo: cacheRepo,
		ttl:       ttl,
		logger:    logger,
	}
}

// GetStatistics возвращает статистику, используя кеш когда возможно
func (uc *StatsUseCase) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	// 1. Проверяем кеш
	if uc.cacheRepo != nil {
		cached, err := uc.cacheRepo.GetStats(ctx)
		if err == nil && cached != nil {
			metrics.CacheHitsTotal.Inc()
			uc.logger.Debug("Statistics fetched from cache")
			return cached, nil
		}
		if err != nil {
			uc.logger.Warn("Failed to get stats from cache", zap.Error(err))
		}
		metrics.CacheMissesTotal.Inc()
	}

	// 2. Получаем из БД и кешируем
	uc.logger.Debug("Fetching statistics from database")
	return uc.load(ctx)
}

// RefreshStatistics принудительно обновляет статистику
func (uc *StatsUseCase) RefreshStatistics(ctx context.Context) (*domain.Statistics, error) {
	uc.logger.Info("Refreshing statistics")

	stats, err := uc.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh statistics: %w", err)
	}

	uc.logger.Info("Statistics refreshed successfully")
	return stats, nil
}

func (uc *StatsUseCase) load(ctx context.Context) (*domain.Statistics, error) {
	// поколение фиксируется до запроса: инвалидация во время пересчёта
	// не даст записать устаревший снимок
	cacheable := uc.cacheRepo != nil
	var gen int64
	if cacheable {
		var err error
		if gen, err = uc.cacheRepo.StatsGeneration(ctx); err != nil {
			uc.logger.Warn("Stats cache unavailable, skipping write", zap.Error(err))
			cacheable = false
		}
	}

	stats, err := uc.statsRepo.GetStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("get statistics from db: %w", err)
	}

	if cacheable {
		if err := uc.cacheRepo.SetStats(ctx, stats, gen, uc.ttl); err != nil {
			// данные уже получены, кеш не обязателен
			uc.logger.Warn("Failed to cache stats", zap.Error(err))
		}
	}
	return stats, nil
}

// WatchInvalidation сбрасывает кеш статистики после каждого изменения данных
func (uc *StatsUseCase) WatchInvalidation(ctx context.Context, hub *live.Hub) {
	if uc.cacheRepo == nil {
		return
	}

	sub := hub.Register(
		repository.TableContributions,
		repository.TableHelpRequests,
		repository.TableRoutes,
		repository.TablePlaces,
		repository.TableRestrictions,
		repository.TableHelpers,
	)
	go func() {
		defer hub.Unregister(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Notify:
				if !ok {
					return
				}
				if err := uc.cacheRepo.InvalidateStats(ctx); err != nil && ctx.Err() == nil {
					uc.logger.Warn("Failed to invalidate stats cache", zap.Error(err))
				}
			}
		}
	}()
}
