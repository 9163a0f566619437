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

func registerHelper(t *testing.T, e *testEnv, actor dto.ActorRequest, nickname string, p domain.Point) int64 {
	t.Helper()
	id, err := e.helpers.Register(e.ctx, dto.RegisterHelperRequest{
		ActorRequest: actor,
		Nickname:     nickname,
		Lat:          coord(p.Lat),
		Lon:          coord(p.Lon),
		Phone:        strPtr("600000000"),
		CanHelpWith:  []string{domain.HelpJumpStart, domain.HelpTools},
	})
	require.NoError(t, err)
	return id
}

func TestHelperUseCase_RegisterLinksSettings(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})

	id := registerHelper(t, e, dto.ActorRequest{}, "Juan", testhelpers.Madrid)

	s, err := e.settings.Get(e.ctx)
	require.NoError(t, err)
	assert.True(t, s.IsHelper)
	require.NotNil(t, s.HelperProfileID)
	assert.Equal(t, id, *s.HelperProfileID)

	me, err := e.helpers.MyProfile(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, e.cfg.Geo.HelperCoverageKm, me.CoverageRadiusKm)
	assert.Equal(t, domain.VehicleCar, me.VehicleType)

	_, err = e.helpers.Register(e.ctx, dto.RegisterHelperRequest{
		Nickname:    "Juan2",
		Lat:         coord(testhelpers.Alcala.Lat),
		Lon:         coord(testhelpers.Alcala.Lon),
		CanHelpWith: []string{domain.HelpFuel},
	})
	assert.ErrorIs(t, err, errors.ErrHelperAlreadyExists)
}

func TestHelperUseCase_PublicPhoneMasked(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	id := registerHelper(t, e, dto.ActorRequest{}, "Juan", testhelpers.Madrid)

	res, err := e.helpers.GetByID(e.ctx, id)
	require.NoError(t, err)
	assert.Nil(t, res.Phone)
	assert.Equal(t, []string{domain.HelpJumpStart, domain.HelpTools}, res.HelpTypes)
}

func TestHelperUseCase_Nearby(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	near := registerHelper(t, e, dto.ActorRequest{UserID: "user_near"}, "Cerca", testhelpers.Getafe)
	busy := registerHelper(t, e, dto.ActorRequest{UserID: "user_busy"}, "Ocupado", testhelpers.Madrid)
	registerHelper(t, e, dto.ActorRequest{UserID: "user_far"}, "Lejos", testhelpers.Toledo)

	_, err := e.helpers.SetAvailability(e.ctx, busy, dto.AvailabilityRequest{Available: false})
	require.NoError(t, err)

	req := dto.NearbyHelpersRequest{NearbyRequest: nearMadrid(100)}
	res, err := e.helpers.Nearby(e.ctx, req)
	require.NoError(t, err)

	// Toledo в радиусе поиска, но дальше зоны покрытия помощника (20 км)
	require.Len(t, res.Items, 1)
	assert.Equal(t, near, res.Items[0].ID)
	require.NotNil(t, res.Items[0].ETAMinutes)
	assert.Equal(t, 13, *res.Items[0].ETAMinutes)

	req.HelpType = domain.HelpTowShort
	res, err = e.helpers.Nearby(e.ctx, req)
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	history, err := e.contributions.HistoryForTarget(e.ctx, domain.HelperRef{HelperID: busy}, "is_available", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "false", domain.StringValue(history[0].NewValue))
}

func TestHelperUseCase_DeactivateUnlinksSettings(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	id := registerHelper(t, e, dto.ActorRequest{}, "Juan", testhelpers.Madrid)

	require.NoError(t, e.helpers.Deactivate(e.ctx, id, dto.DeactivateRequest{Reason: "me mudo"}))

	s, err := e.settings.Get(e.ctx)
	require.NoError(t, err)
	assert.False(t, s.IsHelper)
	assert.Nil(t, s.HelperProfileID)

	_, err = e.helpers.MyProfile(e.ctx)
	assert.ErrorIs(t, err, errors.ErrHelperNotFound)

	// после деактивации можно зарегистрироваться заново
	registerHelper(t, e, dto.ActorRequest{}, "Juan", testhelpers.Madrid)
}
