package usecase

import (
	"context"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
)

// repoOf выбирает таблицу сущности на Store (обычном или транзакционном)
type repoOf[T any] func(s repository.Store) repository.RecordStore[T]

func placesOf(s repository.Store) repository.RecordStore[domain.Place] { return s.Places() }

func restrictionsOf(s repository.Store) repository.RecordStore[domain.Restriction] {
	return s.Restrictions()
}

func helpersOf(s repository.Store) repository.RecordStore[domain.Helper] { return s.Helpers() }
func routesOf(s repository.Store) repository.RecordStore[domain.Route]   { return s.Routes() }

// createTracked вставляет запись и запись журнала "create" в одной транзакции
func createTracked[T any](
	ctx context.Context,
	store repository.Store,
	ledger *Ledger,
	repo repoOf[T],
	item *T,
	entry func(id int64) domain.ContributionEntry,
) (int64, error) {
	var id int64
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		id, err = repo(tx).Insert(ctx, item)
		if err != nil {
			return err
		}
		_, err = ledger.Record(ctx, tx, entry(id))
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// updateTracked загружает запись, применяет fn и сохраняет её вместе с записями
// журнала, которые вернул fn. Если fn не вернул записей, ничего не пишется.
// Отсутствующая запись - ошибка notFound.
func updateTracked[T any](
	ctx context.Context,
	store repository.Store,
	ledger *Ledger,
	repo repoOf[T],
	id int64,
	notFound error,
	fn func(tx repository.Store, item *T) ([]domain.ContributionEntry, error),
) (*T, error) {
	var result *T
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		r := repo(tx)
		item, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return notFound
		}

		entries, err := fn(tx, item)
		if err != nil {
			return err
		}
		result = item
		if len(entries) == 0 {
			return nil
		}

		if err := r.Update(ctx, item); err != nil {
			return err
		}
		return ledger.RecordAll(ctx, tx, entries)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// getOr возвращает запись или notFound
func getOr[T any](ctx context.Context, r repository.RecordStore[T], id int64, notFound error) (*T, error) {
	item, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound
	}
	return item, nil
}
