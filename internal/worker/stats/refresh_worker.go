package stats

import (
	"context"
	"time"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/worker"
	"go.uber.org/zap"
)

// Refresher пересчитывает статистику и кладёт её в кеш
type Refresher interface {
	RefreshStatistics(ctx context.Context) (*domain.Statistics, error)
}

// RefreshWorker держит кеш статистики прогретым
type RefreshWorker struct {
	*worker.BaseWorker
	refresher Refresher
}

// NewRefreshWorker создает новый RefreshWorker
func NewRefreshWorker(refresher Refresher, interval time.Duration, logger *zap.Logger) *RefreshWorker {
	return &RefreshWorker{
		BaseWorker: worker.NewBaseWorker("stats-refresh", interval, logger),
		refresher:  refresher,
	}
}

// Start запускает воркер
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.Logger().Info("Starting stats RefreshWorker", zap.Duration("interval", w.Interval()))
	return w.RunEvery(ctx, func(ctx context.Context) error {
		stats, err := w.refresher.RefreshStatistics(ctx)
		if err != nil {
			return err
		}
		w.Logger().Debug("Statistics refreshed",
			zap.Int("places", stats.Places.TotalActive),
			zap.Int64("contributions", stats.Contributions.Total))
		return nil
	})
}
