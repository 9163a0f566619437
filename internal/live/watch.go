package live

import (
	"context"

	"go.uber.org/zap"
)

// FetchFunc выполняет запрос живой подписки
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Watch отдаёт текущий результат fetch, затем перевыполняет его после каждого
// изменения таблиц. Если потребитель не успевает читать, в канале остаётся
// только последний результат. Канал закрывается при отмене ctx.
func Watch[T any](ctx context.Context, hub *Hub, fetch FetchFunc[T], tables ...string) <-chan []T {
	out := make(chan []T, 1)
	sub := hub.Register(tables...)

	go func() {
		defer close(out)
		defer hub.Unregister(sub)

		for {
			items, err := fetch(ctx)
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				hub.logger.Warn("Live query failed",
					zap.Strings("tables", tables),
					zap.Error(err))
			default:
				sendLatest(out, items)
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Notify:
				if !ok {
					return
				}
			}
		}
	}()

	return out
}

// Map преобразует каждый результат подписки через fn с той же политикой
// "только последний результат". Канал закрывается вместе с in или при отмене ctx.
func Map[T, U any](ctx context.Context, in <-chan T, fn func(T) U) <-chan U {
	out := make(chan U, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				sendLatest(out, fn(v))
			}
		}
	}()
	return out
}

// sendLatest кладёт значение в канал, вытесняя непрочитанное предыдущее
func sendLatest[T any](out chan T, v T) {
	for {
		select {
		case out <- v:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}
