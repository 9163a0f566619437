package ledger

import (
	"context"
	"time"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/usecase/dto"
	"github.com/siempreabierto/internal/worker"
	"go.uber.org/zap"
)

// Syncer выгружает несинхронизированный журнал
type Syncer interface {
	Sync(ctx context.Context) (*dto.SyncResult, error)
}

// SettingsSource - текущие настройки устройства
type SettingsSource interface {
	Get(ctx context.Context) (*domain.UserSettings, error)
}

// ContributionSyncWorker периодически выгружает журнал вкладов в stream.
// Пока в настройках выключен auto_sync, запуск пропускается.
type ContributionSyncWorker struct {
	*worker.BaseWorker
	syncer   Syncer
	settings SettingsSource
}

// NewContributionSyncWorker создает новый ContributionSyncWorker
func NewContributionSyncWorker(
	syncer Syncer,
	settings SettingsSource,
	interval time.Duration,
	logger *zap.Logger,
) *ContributionSyncWorker {
	return &ContributionSyncWorker{
		BaseWorker: worker.NewBaseWorker("contribution-sync", interval, logger),
		syncer:     syncer,
		settings:   settings,
	}
}

// Start запускает воркер
func (w *ContributionSyncWorker) Start(ctx context.Context) error {
	w.Logger().Info("Starting ContributionSyncWorker", zap.Duration("interval", w.Interval()))
	return w.RunEvery(ctx, func(ctx context.Context) error {
		_, err := w.RunOnce(ctx)
		return err
	})
}

// RunOnce выполняет одну синхронизацию. nil результат без ошибки - синхронизация выключена.
func (w *ContributionSyncWorker) RunOnce(ctx context.Context) (*dto.SyncResult, error) {
	settings, err := w.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.AutoSync {
		w.Logger().Debug("Auto sync disabled, skipping")
		return nil, nil
	}

	res, err := w.syncer.Sync(ctx)
	if err != nil {
		return nil, err
	}
	if res.Synced > 0 {
		w.Logger().Info("Sync run finished",
			zap.Int64("synced", res.Synced),
			zap.Int("batches", res.Batches))
	}
	return res, nil
}
