package worker

import (
	"context"
	"sync"
	"time"

	"github.com/siempreabierto/internal/metrics"
	"go.uber.org/zap"
)

// BaseWorker - общая часть периодических воркеров: имя, интервал и остановка
type BaseWorker struct {
	name     string
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
}

// NewBaseWorker создает новый BaseWorker. interval <= 0 заменяется на минуту.
func NewBaseWorker(name string, interval time.Duration, logger *zap.Logger) *BaseWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &BaseWorker{
		name:     name,
		interval: interval,
		logger:   logger.With(zap.String("worker", name)),
		stopChan: make(chan struct{}),
	}
}

// Name возвращает имя воркера
func (w *BaseWorker) Name() string {
	return w.name
}

// Interval - пауза между запусками
func (w *BaseWorker) Interval() time.Duration {
	return w.interval
}

// Stop останавливает воркер; повторный вызов ничего не делает
func (w *BaseWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}

	w.logger.Info("Stopping worker")
	close(w.stopChan)
	w.stopped = true

	return nil
}

// IsStopped проверяет, остановлен ли воркер
func (w *BaseWorker) IsStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

// StopChan возвращает канал остановки
func (w *BaseWorker) StopChan() <-chan struct{} {
	return w.stopChan
}

// Logger возвращает логгер с именем воркера
func (w *BaseWorker) Logger() *zap.Logger {
	return w.logger
}

// RunEvery вызывает fn сразу и затем каждый Interval, пока воркер не остановлен
// или не отменён ctx. Ошибка fn логируется и не прерывает цикл.
func (w *BaseWorker) RunEvery(ctx context.Context, fn func(ctx context.Context) error) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.runOnce(ctx, fn)

		select {
		case <-w.StopChan():
			w.logger.Info("Worker stopped")
			return nil
		case <-ctx.Done():
			w.logger.Info("Context cancelled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *BaseWorker) runOnce(ctx context.Context, fn func(ctx context.Context) error) {
	start := time.Now()
	if err := fn(ctx); err != nil {
		metrics.WorkerRunsTotal.WithLabelValues(w.name, "error").Inc()
		if ctx.Err() == nil {
			w.logger.Error("Worker run failed", zap.Error(err))
		}
		return
	}
	metrics.WorkerRunsTotal.WithLabelValues(w.name, "ok").Inc()
	w.logger.Debug("Worker run finished", zap.Duration("took", time.Since(start)))
}
