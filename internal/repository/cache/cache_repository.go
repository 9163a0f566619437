package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	// statsSchema меняется вместе с форматом domain.Statistics:
	// записи старого формата читаются как промах
	statsSchema = 1

	statsKey           = "siempreabierto:stats:snapshot"
	statsGenerationKey = "siempreabierto:stats:generation"

	defaultStatsTTL = time.Hour
)

// statsEnvelope - то, что лежит в Redis под statsKey
type statsEnvelope struct {
	Schema     int                `json:"schema"`
	Generation int64              `json:"generation"`
	CachedAt   time.Time          `json:"cached_at"`
	Stats      *domain.Statistics `json:"stats"`
}

var errStaleGeneration = errors.New("stats generation changed")

type statsCache struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewCacheRepository создает кеш статистики поверх Redis.
//
// Каждая инвалидация увеличивает поколение; снимок, посчитанный в старом
// поколении, не записывается. Так пересчёт, начатый до изменения данных,
// не перетирает сброс кеша.
func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &statsCache{
		client: redis.Client(),
		logger: redis.logger,
		now:    time.Now,
	}
}

// StatsGeneration возвращает текущее поколение (0, пока инвалидаций не было)
func (c *statsCache) StatsGeneration(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, statsGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		c.logger.Error("Failed to read stats generation", zap.Error(err))
		return 0, fmt.Errorf("stats generation: %w", err)
	}
	return gen, nil
}

// GetStats возвращает снимок статистики; (nil, nil) при промахе
func (c *statsCache) GetStats(ctx context.Context) (*domain.Statistics, error) {
	data, err := c.client.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Failed to get stats from cache", zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	var env statsEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Warn("Dropping unreadable stats snapshot", zap.Error(err))
		return nil, c.drop(ctx)
	}
	if env.Schema != statsSchema || env.Stats == nil {
		c.logger.Info("Dropping stats snapshot of another schema", zap.Int("schema", env.Schema))
		return nil, c.drop(ctx)
	}

	c.logger.Debug("Stats cache hit",
		zap.Int64("generation", env.Generation),
		zap.Duration("age", c.now().Sub(env.CachedAt)))
	return env.Stats, nil
}

// SetStats сохраняет снимок, посчитанный в поколении gen.
// Если поколение успело смениться, снимок молча отбрасывается.
func (c *statsCache) SetStats(ctx context.Context, stats *domain.Statistics, gen int64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	data, err := json.Marshal(statsEnvelope{
		Schema:     statsSchema,
		Generation: gen,
		CachedAt:   c.now().UTC(),
		Stats:      stats,
	})
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, statsGenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, statsKey, data, ttl)
			return nil
		})
		return err
	}, statsGenerationKey)

	switch {
	case err == nil:
		c.logger.Debug("Stats cached", zap.Int64("generation", gen), zap.Duration("ttl", ttl))
		return nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("Stats snapshot outdated, not cached", zap.Int64("generation", gen))
		return nil
	default:
		c.logger.Error("Failed to cache stats", zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}
}

// InvalidateStats сбрасывает снимок и открывает новое поколение
func (c *statsCache) InvalidateStats(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, statsGenerationKey)
		p.Del(ctx, statsKey)
		return nil
	})
	if err != nil {
		c.logger.Error("Failed to invalidate stats cache", zap.Error(err))
		return fmt.Errorf("cache invalidate error: %w", err)
	}
	return nil
}

func (c *statsCache) drop(ctx context.Context) error {
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}
