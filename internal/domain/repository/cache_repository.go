package repository

import (
	"context"
	"time"

	"github.com/siempreabierto/internal/domain"
)

// CacheRepository - кеш агрегированной статистики
type CacheRepository interface {
	// GetStats получает снимок статистики; (nil, nil) при промахе
	GetStats(ctx context.Context) (*domain.Statistics, error)

	// StatsGeneration - текущее поколение кеша, растёт с каждой инвалидацией
	StatsGeneration(ctx context.Context) (int64, error)

	// SetStats сохраняет снимок, посчитанный в поколении gen;
	// снимок устаревшего поколения не сохраняется
	SetStats(ctx context.Context, stats *domain.Statistics, gen int64, ttl time.Duration) error

	// InvalidateStats удаляет снимок и открывает новое поколение
	InvalidateStats(ctx context.Context) error
}
