package usecase_test

import (
	"testing"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/repository/sqlstore/testhelpers"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createHelpRequest(t *testing.T, e *testEnv, p domain.Point) int64 {
	t.Helper()
	id, err := e.helpRequests.Create(e.ctx, dto.CreateHelpRequestRequest{
		RequesterID:         "user_driver",
		Lat:                 coord(p.Lat),
		Lon:                 coord(p.Lon),
		LocationDescription: "A-4 km 15 sentido Madrid, arcén derecho",
		ProblemType:         domain.ProblemBattery,
	})
	require.NoError(t, err)
	return id
}

func TestHelpRequestUseCase_CreateRejectsPrivateAddress(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})

	_, err := e.helpRequests.Create(e.ctx, dto.CreateHelpRequestRequest{
		Lat:                 coord(testhelpers.Madrid.Lat),
		Lon:                 coord(testhelpers.Madrid.Lon),
		LocationDescription: "Calle Mayor 5, portal 2",
		ProblemType:         domain.ProblemBattery,
	})
	assert.ErrorIs(t, err, errors.ErrValidation)

	res, err := e.helpRequests.ByRequester(e.ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestHelpRequestUseCase_CreateRejectsPrivateAddressInDescription(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})

	_, err := e.helpRequests.Create(e.ctx, dto.CreateHelpRequestRequest{
		Lat:                 coord(testhelpers.Madrid.Lat),
		Lon:                 coord(testhelpers.Madrid.Lon),
		LocationDescription: "A-4 km 15 sentido Madrid, arcén derecho",
		ProblemType:         domain.ProblemBattery,
		ProblemDescription:  strPtr("Estoy en mi casa, calle Mayor 5, piso 3"),
	})
	assert.ErrorIs(t, err, errors.ErrValidation)

	res, err := e.helpRequests.ByRequester(e.ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestHelpRequestUseCase_CreateDefaultsToLocalUser(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})

	id, err := e.helpRequests.Create(e.ctx, dto.CreateHelpRequestRequest{
		Lat:                 coord(testhelpers.Madrid.Lat),
		Lon:                 coord(testhelpers.Madrid.Lon),
		LocationDescription: "Área de servicio de la M-40 salida 12",
		ProblemType:         domain.ProblemFlatTire,
	})
	require.NoError(t, err)

	hr, err := e.helpRequests.GetByID(e.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, e.self.LocalUserID, hr.RequesterID)
	assert.Equal(t, domain.HelpStatusPending, hr.Status)
	assert.Equal(t, domain.HelpFlatTire, hr.SuggestedHelpType)

	// запрос помощи не пишется в журнал
	n, err := e.contributions.CountAll(e.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHelpRequestUseCase_Lifecycle(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	helperID := registerHelper(t, e, dto.ActorRequest{}, "Juan", testhelpers.Madrid)
	id := createHelpRequest(t, e, testhelpers.Getafe)

	pending, err := e.helpRequests.NearbyPending(e.ctx, nearMadrid(20))
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)

	accepted, err := e.helpRequests.Accept(e.ctx, id, dto.AcceptHelpRequest{HelperID: helperID})
	require.NoError(t, err)
	assert.Equal(t, domain.HelpStatusAccepted, accepted.Status)
	assert.Equal(t, "Juan", domain.StringValue(accepted.HelperName))
	require.NotNil(t, accepted.AcceptedAt)

	pending, err = e.helpRequests.NearbyPending(e.ctx, nearMadrid(20))
	require.NoError(t, err)
	assert.Empty(t, pending.Items)

	rating := 5
	completed, err := e.helpRequests.Complete(e.ctx, id, dto.CompleteHelpRequest{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, domain.HelpStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	helper, err := e.helpers.GetByID(e.ctx, helperID)
	require.NoError(t, err)
	assert.Equal(t, 1, helper.HelpCount)
	assert.Equal(t, 1, helper.RatingCount)
	assert.Equal(t, 5.0, *helper.Rating)

	entries, err := e.contributions.HistoryForTarget(e.ctx, domain.HelperRef{HelperID: helperID}, "help_count", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e.self.LocalUserID, entries[0].UserID)
	assert.Equal(t, "0", domain.StringValue(entries[0].OldValue))
	assert.Equal(t, "1", domain.StringValue(entries[0].NewValue))

	s := e.refreshSettings(t)
	assert.Equal(t, 1, s.HelpProvided)
}

func TestHelpRequestUseCase_RejectsInvalidTransitions(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	helperID := registerHelper(t, e, dto.ActorRequest{}, "Juan", testhelpers.Madrid)
	id := createHelpRequest(t, e, testhelpers.Getafe)

	// pending → completed
	_, err := e.helpRequests.Complete(e.ctx, id, dto.CompleteHelpRequest{})
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)

	_, err = e.helpRequests.Accept(e.ctx, id, dto.AcceptHelpRequest{HelperID: helperID})
	require.NoError(t, err)
	_, err = e.helpRequests.Complete(e.ctx, id, dto.CompleteHelpRequest{})
	require.NoError(t, err)

	// completed → accepted
	_, err = e.helpRequests.Accept(e.ctx, id, dto.AcceptHelpRequest{HelperID: helperID})
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)

	_, err = e.helpRequests.Cancel(e.ctx, id)
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)

	hr, err := e.helpRequests.GetByID(e.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.HelpStatusCompleted, hr.Status)
}

func TestHelpRequestUseCase_Cancel(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	id := createHelpRequest(t, e, testhelpers.Getafe)

	cancelled, err := e.helpRequests.Cancel(e.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.HelpStatusCancelled, cancelled.Status)

	_, err = e.helpRequests.Cancel(e.ctx, 999)
	assert.ErrorIs(t, err, errors.ErrHelpRequestNotFound)
}

func TestHelpRequestUseCase_AcceptUnknownHelper(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	id := createHelpRequest(t, e, testhelpers.Getafe)

	_, err := e.helpRequests.Accept(e.ctx, id, dto.AcceptHelpRequest{HelperID: 42})
	assert.ErrorIs(t, err, errors.ErrHelperNotFound)

	hr, err := e.helpRequests.GetByID(e.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.HelpStatusPending, hr.Status)
}
