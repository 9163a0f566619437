package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/live"
	"github.com/siempreabierto/internal/usecase"
)

func sampleStats() *domain.Statistics {
	return &domain.Statistics{
		Places:      domain.PlaceStats{TotalActive: 12, Open24h: 4},
		LastUpdated: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStatsUseCase_GetStatistics(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("cache hit", func(t *testing.T) {
		mockStats := &MockStatsRepository{}
		mockCache := &MockCacheRepository{}
		uc := usecase.NewStatsUseCase(mockStats, mockCache, time.Hour, logger)

		mockCache.On("GetStats", ctx).Return(sampleStats(), nil)

		stats, err := uc.GetStatistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 12, stats.Places.TotalActive)
		mockStats.AssertNotCalled(t, "GetStatistics", mock.Anything)
	})

	t.Run("cache miss loads and caches", func(t *testing.T) {
		mockStats := &MockStatsRepository{}
		mockCache := &MockCacheRepository{}
		uc := usecase.NewStatsUseCase(mockStats, mockCache, 30*time.Minute, logger)

		expected := sampleStats()
		mockCache.On("GetStats", ctx).Return(nil, nil)
		mockStats.On("GetStatistics", ctx).Return(expected, nil)
		mockCache.On("StatsGeneration", ctx).Return(int64(3), nil)
		mockCache.On("SetStats", ctx, expected, int64(3), 30*time.Minute).Return(nil)

		stats, err := uc.GetStatistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, stats)
		mockCache.AssertExpectations(t)
		mockStats.AssertExpectations(t)
	})

	t.Run("cache errors are not fatal", func(t *testing.T) {
		mockStats := &MockStatsRepository{}
		mockCache := &MockCacheRepository{}
		uc := usecase.NewStatsUseCase(mockStats, mockCache, 0, logger)

		mockCache.On("GetStats", ctx).Return(nil, errors.New("redis down"))
		mockStats.On("GetStatistics", ctx).Return(sampleStats(), nil)
		mockCache.On("StatsGeneration", ctx).Return(int64(0), nil)
		mockCache.On("SetStats", ctx, mock.Anything, int64(0), time.Hour).Return(errors.New("redis down"))

		stats, err := uc.GetStatistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.Places.Open24h)
	})

	t.Run("unknown generation skips the write", func(t *testing.T) {
		mockStats := &MockStatsRepository{}
		mockCache := &MockCacheRepository{}
		uc := usecase.NewStatsUseCase(mockStats, mockCache, time.Hour, logger)

		mockCache.On("StatsGeneration", ctx).Return(int64(0), errors.New("redis down"))
		mockStats.On("GetStatistics", ctx).Return(sampleStats(), nil)

		stats, err := uc.RefreshStatistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 12, stats.Places.TotalActive)
		mockCache.AssertNotCalled(t, "SetStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("without cache", func(t *testing.T) {
		mockStats := &MockStatsRepository{}
		uc := usecase.NewStatsUseCase(mockStats, nil, time.Hour, logger)

		mockStats.On("GetStatistics", ctx).Return(sampleStats(), nil)

		_, err := uc.GetStatistics(ctx)
		require.NoError(t, err)
		mockStats.AssertNumberOfCalls(t, "GetStatistics", 1)
	})

	t.Run("database error", func(t *testing.T) {
		mockStats := &MockStatsRepository{}
		uc := usecase.NewStatsUseCase(mockStats, nil, time.Hour, logger)

		mockStats.On("GetStatistics", ctx).Return(nil, errors.New("disk I/O error"))

		_, err := uc.RefreshStatistics(ctx)
		assert.Error(t, err)
	})
}

func TestStatsUseCase_WatchInvalidation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := live.NewHub(nil, "", zap.NewNop())
	mockCache := &MockCacheRepository{}
	invalidated := make(chan struct{}, 1)
	mockCache.On("InvalidateStats", mock.Anything).Return(nil).Run(func(mock.Arguments) {
		select {
		case invalidated <- struct{}{}:
		default:
		}
	})

	uc := usecase.NewStatsUseCase(&MockStatsRepository{}, mockCache, time.Hour, zap.NewNop())
	uc.WatchInvalidation(ctx, hub)

	require.Eventually(t, func() bool {
		hub.Notify(repository.TablePlaces)
		select {
		case <-invalidated:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
