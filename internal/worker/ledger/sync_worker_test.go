package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/usecase/dto"
	"github.com/siempreabierto/internal/worker/ledger"
)

// MockSyncer is a mock of Syncer
type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) Sync(ctx context.Context) (*dto.SyncResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SyncResult), args.Error(1)
}

// MockSettingsSource is a mock of SettingsSource
type MockSettingsSource struct {
	mock.Mock
}

func (m *MockSettingsSource) Get(ctx context.Context) (*domain.UserSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserSettings), args.Error(1)
}

func TestContributionSyncWorker_Name(t *testing.T) {
	w := ledger.NewContributionSyncWorker(&MockSyncer{}, &MockSettingsSource{}, time.Hour, zap.NewNop())
	assert.Equal(t, "contribution-sync", w.Name())
	assert.Equal(t, time.Hour, w.Interval())
}

func TestContributionSyncWorker_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("auto sync disabled", func(t *testing.T) {
		syncer := &MockSyncer{}
		settings := &MockSettingsSource{}
		settings.On("Get", ctx).Return(&domain.UserSettings{AutoSync: false}, nil)

		w := ledger.NewContributionSyncWorker(syncer, settings, time.Hour, zap.NewNop())
		res, err := w.RunOnce(ctx)
		require.NoError(t, err)
		assert.Nil(t, res)
		syncer.AssertNotCalled(t, "Sync", mock.Anything)
	})

	t.Run("auto sync enabled", func(t *testing.T) {
		syncer := &MockSyncer{}
		settings := &MockSettingsSource{}
		settings.On("Get", ctx).Return(&domain.UserSettings{AutoSync: true}, nil)
		syncer.On("Sync", ctx).Return(&dto.SyncResult{Synced: 7, Batches: 1}, nil)

		w := ledger.NewContributionSyncWorker(syncer, settings, time.Hour, zap.NewNop())
		res, err := w.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(7), res.Synced)
		syncer.AssertExpectations(t)
	})

	t.Run("sync error", func(t *testing.T) {
		syncer := &MockSyncer{}
		settings := &MockSettingsSource{}
		settings.On("Get", ctx).Return(&domain.UserSettings{AutoSync: true}, nil)
		syncer.On("Sync", ctx).Return(nil, errors.New("stream unavailable"))

		w := ledger.NewContributionSyncWorker(syncer, settings, time.Hour, zap.NewNop())
		_, err := w.RunOnce(ctx)
		assert.Error(t, err)
	})
}

func TestContributionSyncWorker_StopEndsLoop(t *testing.T) {
	syncer := &MockSyncer{}
	settings := &MockSettingsSource{}
	ran := make(chan struct{}, 1)
	settings.On("Get", mock.Anything).Return(&domain.UserSettings{AutoSync: true}, nil)
	syncer.On("Sync", mock.Anything).Return(&dto.SyncResult{}, nil).Run(func(mock.Arguments) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	w := ledger.NewContributionSyncWorker(syncer, settings, time.Hour, zap.NewNop())
	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("first run did not happen")
	}

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.True(t, w.IsStopped())
}

func TestContributionSyncWorker_ContextCancellation(t *testing.T) {
	settings := &MockSettingsSource{}
	settings.On("Get", mock.Anything).Return(&domain.UserSettings{}, nil)

	w := ledger.NewContributionSyncWorker(&MockSyncer{}, settings, time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
