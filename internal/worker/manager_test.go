package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siempreabierto/internal/worker"
)

type tickWorker struct {
	*worker.BaseWorker
	runs chan struct{}
}

func newTickWorker(name string) *tickWorker {
	return &tickWorker{
		BaseWorker: worker.NewBaseWorker(name, 5*time.Millisecond, zap.NewNop()),
		runs:       make(chan struct{}, 100),
	}
}

func (w *tickWorker) Start(ctx context.Context) error {
	return w.RunEvery(ctx, func(context.Context) error {
		select {
		case w.runs <- struct{}{}:
		default:
		}
		return nil
	})
}

func TestWorkerManager_StartWithoutWorkers(t *testing.T) {
	m := worker.NewWorkerManager(time.Second, zap.NewNop())
	m.Register(nil)
	assert.Error(t, m.Start(context.Background()))
}

func TestWorkerManager_StartAndStop(t *testing.T) {
	m := worker.NewWorkerManager(time.Second, zap.NewNop())
	a, b := newTickWorker("a"), newTickWorker("b")
	m.Register(a)
	m.Register(b)
	assert.Equal(t, []string{"a", "b"}, m.Names())

	require.NoError(t, m.Start(context.Background()))
	for _, w := range []*tickWorker{a, b} {
		select {
		case <-w.runs:
		case <-time.After(time.Second):
			t.Fatalf("worker %s did not run", w.Name())
		}
	}

	require.NoError(t, m.Stop())
	assert.True(t, a.IsStopped())
	assert.True(t, b.IsStopped())
}

func TestBaseWorker_DefaultInterval(t *testing.T) {
	w := worker.NewBaseWorker("x", 0, zap.NewNop())
	assert.Equal(t, time.Minute, w.Interval())
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
