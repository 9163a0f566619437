package repository

import (
	"context"
	"time"

	"github.com/siempreabierto/internal/domain"
)

// ContributionRepository - журнал вкладов (append-only).
// Записи не изменяются, кроме флага синхронизации, и удаляются только DeleteAll.
type ContributionRepository interface {
	// Append добавляет запись и возвращает её ID
	Append(ctx context.Context, c *domain.Contribution) (int64, error)

	GetByID(ctx context.Context, id int64) (*domain.Contribution, error)

	// Count считает записи по фильтру; пустой фильтр - все записи
	Count(ctx context.Context, filter domain.ContributionFilter) (int64, error)

	// LastContributionAt - время последнего вклада пользователя, nil если вкладов нет
	LastContributionAt(ctx context.Context, userID string) (*time.Time, error)

	CountByAction(ctx context.Context, filter domain.ContributionFilter) (map[domain.Action]int64, error)
	CountByTargetType(ctx context.Context, filter domain.ContributionFilter) (map[domain.TargetType]int64, error)
	CountDistinctUsers(ctx context.Context) (int64, error)

	// TopContributors - пользователи с наибольшим числом вкладов с момента since (nil - за всё время)
	TopContributors(ctx context.Context, since *time.Time, limit int) ([]domain.UserCount, error)

	// HistoryForTarget - история цели от новых к старым; field == "" - все поля
	HistoryForTarget(ctx context.Context, target domain.Target, field string, limit int) ([]domain.Contribution, error)

	Recent(ctx context.Context, limit int) ([]domain.Contribution, error)
	ByUser(ctx context.Context, userID string, limit int) ([]domain.Contribution, error)

	// Unsynced - несинхронизированные записи от старых к новым
	Unsynced(ctx context.Context, limit int) ([]domain.Contribution, error)
	CountUnsynced(ctx context.Context) (int64, error)

	// MarkSynced помечает указанные записи; MarkAllSynced - все несинхронизированные
	MarkSynced(ctx context.Context, ids []int64, at time.Time) (int64, error)
	MarkAllSynced(ctx context.Context, at time.Time) (int64, error)

	DeleteAll(ctx context.Context) (int64, error)

	// SubscribeHistory - живая история цели
	SubscribeHistory(ctx context.Context, target domain.Target, field string, limit int) <-chan []domain.Contribution
}
