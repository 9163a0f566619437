package usecase_test

import (
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/pkg/errors"
	redisRepo "github.com/siempreabierto/internal/repository/redis"
	"github.com/siempreabierto/internal/repository/sqlstore/testhelpers"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
)

func seedContributions(t *testing.T, e *testEnv) []int64 {
	t.Helper()
	ids := []int64{
		createPlace(t, e, "Gasolinera Norte", domain.CategoryGasStation, testhelpers.Madrid),
		createPlace(t, e, "Bar Sur", domain.CategoryBar, testhelpers.Getafe),
	}
	_, err := e.places.Confirm(e.ctx, ids[0], dto.ActorRequest{UserID: "user_other"})
	require.NoError(t, err)
	return ids
}

func TestContributionUseCase_SyncPublishesBatches(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	e := newTestEnv(t, usecase.SyncOptions{
		Stream:    redisRepo.NewStreamRepository(client, zap.NewNop()),
		BatchSize: 2,
	})
	seedContributions(t, e)

	unsynced, err := e.contributions.CountUnsynced(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unsynced)

	res, err := e.contributions.Sync(e.ctx)
	require.NoError(t, err)
	assert.True(t, res.Remote)
	assert.Equal(t, int64(3), res.Synced)
	assert.Equal(t, 2, res.Batches)
	assert.Len(t, res.StreamIDs, 2)
	assert.Equal(t, int64(2), res.StreamLength)

	n, err := client.XLen(e.ctx, domain.StreamContributions).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	msgs, err := client.XRange(e.ctx, domain.StreamContributions, "-", "+").Result()
	require.NoError(t, err)
	var event domain.ContributionBatchEvent
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &event))
	assert.Equal(t, e.self.LocalUserID, event.DeviceUserID)
	require.Len(t, event.Contributions, 2)
	assert.Equal(t, domain.ActionCreate, event.Contributions[0].Action)

	unsynced, err = e.contributions.CountUnsynced(e.ctx)
	require.NoError(t, err)
	assert.Zero(t, unsynced)

	settings, err := e.settings.Get(e.ctx)
	require.NoError(t, err)
	assert.NotNil(t, settings.LastSyncAt)

	// повторная синхронизация ничего не отправляет
	res, err = e.contributions.Sync(e.ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Synced)
	assert.Zero(t, res.Batches)
}

func TestContributionUseCase_SyncLocalOnly(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	seedContributions(t, e)

	res, err := e.contributions.Sync(e.ctx)
	require.NoError(t, err)
	assert.False(t, res.Remote)
	assert.Equal(t, int64(3), res.Synced)
	assert.Equal(t, 1, res.Batches)
	assert.Empty(t, res.StreamIDs)
}

func TestContributionUseCase_SyncFailureKeepsEntries(t *testing.T) {
	stream := &MockStreamRepository{}
	stream.On("PublishToStream", mock.Anything, domain.StreamContributions, mock.AnythingOfType("domain.ContributionBatchEvent")).
		Return("", stderrors.New("connection refused"))

	e := newTestEnv(t, usecase.SyncOptions{Stream: stream})
	seedContributions(t, e)

	_, err := e.contributions.Sync(e.ctx)
	assert.ErrorIs(t, err, errors.ErrSyncFailed)
	stream.AssertNumberOfCalls(t, "PublishToStream", 1)

	unsynced, err := e.contributions.CountUnsynced(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unsynced)

	settings, err := e.settings.Get(e.ctx)
	require.NoError(t, err)
	assert.Nil(t, settings.LastSyncAt)
}

func TestContributionUseCase_MarkAllSynced(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	seedContributions(t, e)

	marked, err := e.contributions.MarkAllSynced(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)

	items, err := e.contributions.Unsynced(e.ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestContributionUseCase_Aggregates(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	seedContributions(t, e)

	summary, err := e.contributions.UserSummary(e.ctx, "")
	require.NoError(t, err)
	assert.Equal(t, e.self.LocalUserID, summary.UserID)
	assert.Equal(t, int64(2), summary.Total)
	assert.Equal(t, int64(2), summary.PlacesAdded)
	assert.Equal(t, int64(2), summary.ByAction[domain.ActionCreate])
	assert.NotNil(t, summary.LastContributionAt)

	byAction, err := e.contributions.CountByAction(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byAction[domain.ActionConfirm])

	contributors, err := e.contributions.CountDistinctContributors(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), contributors)

	top, err := e.contributions.TopContributors(e.ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, e.self.LocalUserID, top[0].UserID)
	assert.Equal(t, int64(2), top[0].Count)

	other, err := e.contributions.CountByUserAndAction(e.ctx, "user_other", domain.ActionConfirm)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)

	_, err = e.contributions.CountByUserAndAction(e.ctx, "user_other", domain.Action("like"))
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = e.contributions.CountByUserAndTargetType(e.ctx, "user_other", domain.TargetType("parking"))
	assert.ErrorIs(t, err, errors.ErrInvalidTarget)

	_, err = e.contributions.HistoryForTarget(e.ctx, domain.PlaceRef{PlaceID: 0}, "", 10)
	assert.ErrorIs(t, err, errors.ErrInvalidTarget)
}

func TestLedger_RejectsInvalidEntries(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	store := e.tdb.Store

	_, err := e.ledger.Record(e.ctx, store, domain.ContributionEntry{
		Action: domain.ActionCreate,
		Actor:  domain.Actor{UserID: e.self.LocalUserID},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidTarget)

	_, err = e.ledger.Record(e.ctx, store, domain.ContributionEntry{
		Target: domain.PlaceRef{PlaceID: 1},
		Action: domain.Action("like"),
		Actor:  domain.Actor{UserID: e.self.LocalUserID},
	})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = e.ledger.Record(e.ctx, store, domain.ContributionEntry{
		Target: domain.PlaceRef{PlaceID: 1},
		Action: domain.ActionConfirm,
	})
	assert.ErrorIs(t, err, errors.ErrValidation)

	n, err := e.contributions.CountAll(e.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
