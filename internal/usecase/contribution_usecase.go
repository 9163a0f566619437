package usecase

import (
	"context"
	"time"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/metrics"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

// SyncOptions - куда и какими пачками выгружать журнал.
// Stream == nil - локальный режим: записи только помечаются синхронизированными.
type SyncOptions struct {
	Stream     repository.StreamRepository
	StreamName string
	BatchSize  int
}

// ContributionUseCase - чтение журнала вкладов и его синхронизация
type ContributionUseCase struct {
	store    repository.Store
	ledger   *Ledger
	settings *SettingsUseCase
	sync     SyncOptions
	logger   *zap.Logger
}

// NewContributionUseCase создает новый экземпляр ContributionUseCase
func NewContributionUseCase(
	store repository.Store,
	ledger *Ledger,
	settings *SettingsUseCase,
	sync SyncOptions,
	logger *zap.Logger,
) *ContributionUseCase {
	if sync.StreamName == "" {
		sync.StreamName = domain.StreamContributions
	}
	if sync.BatchSize <= 0 {
		sync.BatchSize = 100
	}
	return &ContributionUseCase{
		store:    store,
		ledger:   ledger,
		settings: settings,
		sync:     sync,
		logger:   logger,
	}
}

func (uc *ContributionUseCase) count(ctx context.Context, f domain.ContributionFilter) (int64, error) {
	return uc.store.Contributions().Count(ctx, f)
}

func (uc *ContributionUseCase) CountAll(ctx context.Context) (int64, error) {
	return uc.count(ctx, domain.ContributionFilter{})
}

func (uc *ContributionUseCase) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return uc.count(ctx, domain.ContributionFilter{Since: &since})
}

func (uc *ContributionUseCase) CountByUser(ctx context.Context, userID string) (int64, error) {
	return uc.count(ctx, domain.ContributionFilter{UserID: userID})
}

func (uc *ContributionUseCase) CountByUserAndAction(ctx context.Context, userID string, action domain.Action) (int64, error) {
	if !domain.IsValidAction(action) {
		return 0, errors.ErrValidation.WithReason("unknown action")
	}
	return uc.count(ctx, domain.ContributionFilter{UserID: userID, Action: action})
}

func (uc *ContributionUseCase) CountByUserAndTargetType(ctx context.Context, userID string, t domain.TargetType) (int64, error) {
	if _, err := domain.NewTarget(t, 1); err != nil {
		return 0, errors.ErrInvalidTarget
	}
	return uc.count(ctx, domain.ContributionFilter{UserID: userID, TargetType: t})
}

// LastContributionAt - время последнего вклада; nil, если вкладов нет
func (uc *ContributionUseCase) LastContributionAt(ctx context.Context, userID string) (*time.Time, error) {
	return uc.store.Contributions().LastContributionAt(ctx, userID)
}

// CountByAction - число записей по видам действий во всём журнале
func (uc *ContributionUseCase) CountByAction(ctx context.Context) (map[domain.Action]int64, error) {
	return uc.store.Contributions().CountByAction(ctx, domain.ContributionFilter{})
}

// CountByTargetType - число записей по типам целей во всём журнале
func (uc *ContributionUseCase) CountByTargetType(ctx context.Context) (map[domain.TargetType]int64, error) {
	return uc.store.Contributions().CountByTargetType(ctx, domain.ContributionFilter{})
}

func (uc *ContributionUseCase) CountDistinctContributors(ctx context.Context) (int64, error) {
	return uc.store.Contributions().CountDistinctUsers(ctx)
}

// TopContributors - рейтинг участников с момента since (nil - за всё время)
func (uc *ContributionUseCase) TopContributors(ctx context.Context, since *time.Time, limit int) ([]domain.UserCount, error) {
	if limit <= 0 {
		limit = 10
	}
	return uc.store.Contributions().TopContributors(ctx, since, limit)
}

// HistoryForTarget - история цели от новых к старым; field == "" - все поля
func (uc *ContributionUseCase) HistoryForTarget(ctx context.Context, target domain.Target, field string, limit int) ([]domain.Contribution, error) {
	if target == nil || target.ID() <= 0 {
		return nil, errors.ErrInvalidTarget
	}
	return uc.store.Contributions().HistoryForTarget(ctx, target, field, limit)
}

// SubscribeHistory - живая история цели
func (uc *ContributionUseCase) SubscribeHistory(ctx context.Context, target domain.Target, field string, limit int) (<-chan []domain.Contribution, error) {
	if target == nil || target.ID() <= 0 {
		return nil, errors.ErrInvalidTarget
	}
	return uc.store.Contributions().SubscribeHistory(ctx, target, field, limit), nil
}

func (uc *ContributionUseCase) RecentActivity(ctx context.Context, limit int) ([]domain.Contribution, error) {
	return uc.store.Contributions().Recent(ctx, limit)
}

// ByUser - вклады пользователя; пустой userID - локальный пользователь устройства
func (uc *ContributionUseCase) ByUser(ctx context.Context, userID string, limit int) ([]domain.Contribution, error) {
	userID, err := uc.userOrLocal(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.store.Contributions().ByUser(ctx, userID, limit)
}

func (uc *ContributionUseCase) userOrLocal(ctx context.Context, userID string) (string, error) {
	if userID != "" {
		return userID, nil
	}
	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return "", err
	}
	return settings.LocalUserID, nil
}

// UserSummary - сводка вкладов пользователя по видам действий
func (uc *ContributionUseCase) UserSummary(ctx context.Context, userID string) (*domain.ContributionSummary, error) {
	userID, err := uc.userOrLocal(ctx, userID)
	if err != nil {
		return nil, err
	}
	repo := uc.store.Contributions()

	total, err := repo.Count(ctx, domain.ContributionFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	byAction, err := repo.CountByAction(ctx, domain.ContributionFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	places, err := repo.Count(ctx, domain.ContributionFilter{
		UserID: userID, Action: domain.ActionCreate, TargetType: domain.TargetPlace,
	})
	if err != nil {
		return nil, err
	}
	restrictions, err := repo.Count(ctx, domain.ContributionFilter{
		UserID: userID, Action: domain.ActionCreate, TargetType: domain.TargetRestriction,
	})
	if err != nil {
		return nil, err
	}
	last, err := repo.LastContributionAt(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.ContributionSummary{
		UserID:             userID,
		Total:              total,
		ByAction:           byAction,
		PlacesAdded:        places,
		RestrictionsAdded:  restrictions,
		LastContributionAt: last,
	}, nil
}

func (uc *ContributionUseCase) Unsynced(ctx context.Context, limit int) ([]domain.Contribution, error) {
	return uc.store.Contributions().Unsynced(ctx, limit)
}

func (uc *ContributionUseCase) CountUnsynced(ctx context.Context) (int64, error) {
	return uc.store.Contributions().CountUnsynced(ctx)
}

// MarkAllSynced помечает все несинхронизированные записи без выгрузки
func (uc *ContributionUseCase) MarkAllSynced(ctx context.Context) (int64, error) {
	now := uc.ledger.Now()
	var marked int64
	err := uc.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		marked, err = tx.Contributions().MarkAllSynced(ctx, now)
		if err != nil {
			return err
		}
		return uc.settings.markSynced(ctx, tx, now)
	})
	if err != nil {
		return 0, err
	}
	uc.refreshSettings(ctx)
	return marked, nil
}

// Sync выгружает несинхронизированные записи пачками в stream и помечает их
// синхронизированными. Пачка помечается только после успешной публикации,
// поэтому при сбое она будет отправлена повторно (batch_id позволяет
// получателю отбросить дубликат).
func (uc *ContributionUseCase) Sync(ctx context.Context) (*dto.SyncResult, error) {
	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	result := &dto.SyncResult{Remote: uc.sync.Stream != nil, StreamIDs: []string{}}
	for {
		batch, err := uc.store.Contributions().Unsynced(ctx, uc.sync.BatchSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		now := uc.ledger.Now()
		if uc.sync.Stream != nil {
			event := domain.NewContributionBatchEvent(settings.LocalUserID, batch, now)
			streamID, err := uc.sync.Stream.PublishToStream(ctx, uc.sync.StreamName, event)
			if err != nil {
				metrics.SyncFailuresTotal.Inc()
				uc.logger.Error("Failed to publish contribution batch",
					zap.String("stream", uc.sync.StreamName),
					zap.Int("batch_size", len(batch)),
					zap.Error(err))
				return result, errors.ErrSyncFailed.WithReason(err.Error())
			}
			result.StreamIDs = append(result.StreamIDs, streamID)
		}

		ids := make([]int64, len(batch))
		for i, c := range batch {
			ids[i] = c.ID
		}

		var marked int64
		err = uc.store.WithinTx(ctx, func(tx repository.Store) error {
			var err error
			marked, err = tx.Contributions().MarkSynced(ctx, ids, now)
			if err != nil {
				return err
			}
			return uc.settings.markSynced(ctx, tx, now)
		})
		if err != nil {
			return result, err
		}

		metrics.SyncPublishedTotal.Add(float64(marked))
		result.Synced += marked
		result.Batches++
		result.SyncedAt = &now
		if marked == 0 || len(batch) < uc.sync.BatchSize {
			break
		}
	}

	if result.Batches > 0 {
		uc.refreshSettings(ctx)
		if uc.sync.Stream != nil {
			// длина нужна только для отчёта: ошибка не отменяет синхронизацию
			n, err := uc.sync.Stream.Len(ctx, uc.sync.StreamName)
			if err != nil {
				uc.logger.Warn("Failed to read stream length", zap.Error(err))
			} else {
				result.StreamLength = n
			}
		}
		uc.logger.Info("Contributions synced",
			zap.Int64("synced", result.Synced),
			zap.Int("batches", result.Batches),
			zap.Int64("stream_length", result.StreamLength),
			zap.Bool("remote", result.Remote))
	}
	return result, nil
}

func (uc *ContributionUseCase) refreshSettings(ctx context.Context) {
	if _, err := uc.settings.Refresh(ctx); err != nil {
		uc.logger.Warn("Failed to refresh settings after sync", zap.Error(err))
	}
}
