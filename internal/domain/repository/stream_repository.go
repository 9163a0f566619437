package repository

import (
	"context"

	"github.com/siempreabierto/internal/domain"
)

// StreamRepository - интерфейс для работы с Redis Streams
type StreamRepository interface {
	// PublishToStream публикует сообщение в стрим и возвращает его ID
	PublishToStream(ctx context.Context, stream string, data interface{}) (string, error)

	// ReadRange читает до count сообщений начиная с ID start включительно;
	// "(" + id продолжает строго после id, пустой start - с начала стрима
	ReadRange(ctx context.Context, stream, start string, count int64) ([]domain.StreamMessage, error)

	// Len возвращает длину стрима
	Len(ctx context.Context, stream string) (int64, error)
}
