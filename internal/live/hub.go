// Package live рассылает уведомления об изменении таблиц подписчикам
// живых запросов, локально и (опционально) между процессами через Redis pub/sub.
package live

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannelPrefix = "siempreabierto:changes"

// Hub - реестр подписчиков по именам таблиц
type Hub struct {
	redis    *redis.Client
	prefix   string
	instance string
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[string]map[*Subscriber]struct{}

	pubsub *redis.PubSub
	done   chan struct{}
}

// Subscriber получает сигнал в Notify после каждого изменения любой из своих таблиц.
// Канал имеет буфер 1: пачка изменений до чтения схлопывается в один сигнал.
type Subscriber struct {
	ID     string
	Tables []string
	Notify chan struct{}

	once sync.Once
}

// NewHub создает hub. redisClient может быть nil - тогда уведомления только локальные.
func NewHub(redisClient *redis.Client, prefix string, logger *zap.Logger) *Hub {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hub{
		redis:    redisClient,
		prefix:   prefix,
		instance: uuid.NewString(),
		logger:   logger,
		clients:  map[string]map[*Subscriber]struct{}{},
		done:     make(chan struct{}),
	}

	if redisClient != nil {
		h.startRedis()
	}
	return h
}

// Register подписывает на изменения перечисленных таблиц
func (h *Hub) Register(tables ...string) *Subscriber {
	sub := &Subscriber{
		ID:     uuid.NewString(),
		Tables: tables,
		Notify: make(chan struct{}, 1),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, table := range tables {
		if h.clients[table] == nil {
			h.clients[table] = map[*Subscriber]struct{}{}
		}
		h.clients[table][sub] = struct{}{}
	}
	return sub
}

// Unregister снимает подписку и закрывает Notify. Повторный вызов безопасен.
func (h *Hub) Unregister(sub *Subscriber) {
	sub.once.Do(func() {
		h.mu.Lock()
		for _, table := range sub.Tables {
			if subs, ok := h.clients[table]; ok {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(h.clients, table)
				}
			}
		}
		h.mu.Unlock()
		close(sub.Notify)
	})
}

// Notify сообщает об изменении таблиц локальным подписчикам и другим процессам
func (h *Hub) Notify(tables ...string) {
	if h == nil {
		return
	}

	for _, table := range tables {
		h.deliver(table)
	}

	if h.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, table := range tables {
		if err := h.redis.Publish(ctx, h.channel(table), h.instance).Err(); err != nil {
			h.logger.Warn("Failed to publish change notification",
				zap.String("table", table),
				zap.Error(err))
		}
	}
}

// Subscribers возвращает число подписчиков таблицы
func (h *Hub) Subscribers(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[table])
}

// Close останавливает приём уведомлений из Redis
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	err := h.pubsub.Close()
	<-h.done
	return err
}

func (h *Hub) deliver(table string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.clients[table] {
		select {
		case sub.Notify <- struct{}{}:
		default:
		}
	}
}

func (h *Hub) startRedis() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubsub := h.redis.PSubscribe(ctx, h.prefix+":*")
	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		h.logger.Warn("Live fan-out disabled, redis subscribe failed", zap.Error(err))
		_ = pubsub.Close()
		close(h.done)
		return
	}

	h.pubsub = pubsub
	go h.subscribeRedis()
}

func (h *Hub) subscribeRedis() {
	defer close(h.done)

	for msg := range h.pubsub.Channel() {
		if msg.Payload == h.instance {
			continue
		}
		table := h.tableFromChannel(msg.Channel)
		if table == "" {
			continue
		}
		h.deliver(table)
	}
}

func (h *Hub) channel(table string) string {
	return h.prefix + ":" + table
}

func (h *Hub) tableFromChannel(ch string) string {
	table, ok := strings.CutPrefix(ch, h.prefix+":")
	if !ok {
		return ""
	}
	return table
}
