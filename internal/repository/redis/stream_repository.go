package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"go.uber.org/zap"
)

type streamRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewStreamRepository создает новый экземпляр StreamRepository
func NewStreamRepository(client *redis.Client, logger *zap.Logger) repository.StreamRepository {
	return &streamRepository{
		client: client,
		logger: logger,
	}
}

// PublishToStream публикует сообщение в стрим
func (r *streamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) (string, error) {
	// Сериализуем данные в JSON
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error("Failed to marshal data",
			zap.String("stream", stream),
			zap.Error(err))
		return "", fmt.Errorf("failed to marshal data: %w", err)
	}

	// Публикуем в стрим
	result, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(jsonData),
		},
	}).Result()

	if err != nil {
		r.logger.Error("Failed to publish to stream",
			zap.String("stream", stream),
			zap.Error(err))
		return "", fmt.Errorf("failed to publish to stream: %w", err)
	}

	r.logger.Debug("Message published to stream",
		zap.String("stream", stream),
		zap.String("message_id", result))
	return result, nil
}

// ReadRange читает сообщения стрима начиная с ID start
func (r *streamRepository) ReadRange(ctx context.Context, stream, start string, count int64) ([]domain.StreamMessage, error) {
	if start == "" {
		start = "-"
	}

	msgs, err := r.client.XRangeN(ctx, stream, start, "+", count).Result()
	if err != nil {
		r.logger.Error("Failed to read stream range",
			zap.String("stream", stream),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	out := make([]domain.StreamMessage, 0, len(msgs))
	for _, msg := range msgs {
		// Извлекаем JSON данные из поля "data"
		data, ok := msg.Values["data"].(string)
		if !ok {
			r.logger.Warn("Message does not contain 'data' field",
				zap.String("message_id", msg.ID))
			continue
		}
		out = append(out, domain.StreamMessage{ID: msg.ID, Data: data})
	}
	return out, nil
}

// Len возвращает количество сообщений в стриме
func (r *streamRepository) Len(ctx context.Context, stream string) (int64, error) {
	n, err := r.client.XLen(ctx, stream).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get stream length: %w", err)
	}
	return n, nil
}
