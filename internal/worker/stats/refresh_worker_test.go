package stats_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/worker/stats"
)

// MockRefresher is a mock of Refresher
type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) RefreshStatistics(ctx context.Context) (*domain.Statistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statistics), args.Error(1)
}

func TestRefreshWorker_RunsUntilCancelled(t *testing.T) {
	refresher := &MockRefresher{}
	var calls atomic.Int32
	refresher.On("RefreshStatistics", mock.Anything).Return(&domain.Statistics{}, nil).
		Run(func(mock.Arguments) { calls.Add(1) })

	w := stats.NewRefreshWorker(refresher, 10*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRefreshWorker_ErrorDoesNotStopLoop(t *testing.T) {
	refresher := &MockRefresher{}
	var calls atomic.Int32
	refresher.On("RefreshStatistics", mock.Anything).Return(nil, errors.New("database is locked")).
		Run(func(mock.Arguments) { calls.Add(1) })

	w := stats.NewRefreshWorker(refresher, 10*time.Millisecond, zap.NewNop())
	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	assert.NoError(t, w.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
