package repository

import (
	"context"
	"time"

	"github.com/siempreabierto/internal/domain"
)

// RecordStore - типизированная таблица записей с целочисленным автоинкрементным ID.
//
// GetByID и First возвращают (nil, nil), если запись не найдена.
// Subscribe отдаёт текущий результат запроса и затем новый результат после
// каждого изменения таблицы; канал закрывается при отмене ctx.
type RecordStore[T any] interface {
	Insert(ctx context.Context, item *T) (int64, error)
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*T, error)
	Find(ctx context.Context, q Query) ([]T, error)
	First(ctx context.Context, q Query) (*T, error)
	Count(ctx context.Context, q Query) (int64, error)
	DeleteWhere(ctx context.Context, q Query) (int64, error)
	Subscribe(ctx context.Context, q Query) <-chan []T
}

// PlaceRepository - места сообщества
type PlaceRepository interface {
	RecordStore[domain.Place]
}

// RestrictionRepository - дорожные ограничения
type RestrictionRepository interface {
	RecordStore[domain.Restriction]
}

// HelperRepository - профили помощников
type HelperRepository interface {
	RecordStore[domain.Helper]

	// GetByLocalUserID возвращает активный профиль помощника устройства
	GetByLocalUserID(ctx context.Context, localUserID string) (*domain.Helper, error)
}

// HelpRequestRepository - запросы помощи
type HelpRequestRepository interface {
	RecordStore[domain.HelpRequest]

	// Transition сохраняет запрос только если текущий статус в БД входит в from.
	// Возвращает errors.ErrInvalidTransition, если ни одна строка не обновлена.
	Transition(ctx context.Context, req *domain.HelpRequest, from []domain.HelpStatus) error
}

// RouteRepository - сохранённые маршруты
type RouteRepository interface {
	RecordStore[domain.Route]

	// IncrementUsage увеличивает usage_count и обновляет last_used_at
	IncrementUsage(ctx context.Context, id int64, at time.Time) error
}

// CounterDelta - приращения счётчиков вклада в настройках
type CounterDelta struct {
	Total             int
	PlacesAdded       int
	ConfirmationsMade int
	HelpProvided      int
}

// IsZero - нет изменений
func (d CounterDelta) IsZero() bool {
	return d == CounterDelta{}
}

// SettingsRepository - единственная строка настроек (id = 1)
type SettingsRepository interface {
	// Get возвращает настройки или nil, если они еще не созданы
	Get(ctx context.Context) (*domain.UserSettings, error)

	// CreateIfAbsent вставляет строку, если её нет. Возвращает true, если строка создана.
	CreateIfAbsent(ctx context.Context, settings *domain.UserSettings) (bool, error)

	Update(ctx context.Context, settings *domain.UserSettings) error

	// AddCounters атомарно прибавляет delta к счётчикам
	AddCounters(ctx context.Context, delta CounterDelta, at time.Time) error
}

// Store - корень доступа к хранилищу.
//
// WithinTx выполняет fn в одной транзакции: commit при nil, rollback при ошибке
// или panic. Store, переданный в fn, привязан к транзакции; вложенный вызов
// WithinTx на нём выполняет fn в той же транзакции.
type Store interface {
	Places() PlaceRepository
	Restrictions() RestrictionRepository
	Helpers() HelperRepository
	HelpRequests() HelpRequestRepository
	Routes() RouteRepository
	Settings() SettingsRepository
	Contributions() ContributionRepository
	Stats() StatsRepository

	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// Имена таблиц; по ним же рассылаются уведомления живых подписок
const (
	TablePlaces        = "places"
	TableRestrictions  = "restrictions"
	TableHelpers       = "helpers"
	TableHelpRequests  = "help_requests"
	TableRoutes        = "routes"
	TableSettings      = "user_settings"
	TableContributions = "contributions"
)
