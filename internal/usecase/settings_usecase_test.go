package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/repository/sqlstore/testhelpers"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
)

func TestSettingsUseCase_InitializeIsIdempotent(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	assert.Regexp(t, `^user_[0-9a-f]{12}$`, e.self.LocalUserID)

	again, err := e.settings.Initialize(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, e.self.LocalUserID, again.LocalUserID)

	other := usecase.NewSettingsUseCase(e.tdb.Store, e.ledger, e.tdb.Logger)
	s, err := other.Initialize(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, e.self.LocalUserID, s.LocalUserID)
}

func TestSettingsUseCase_GetBeforeInitialize(t *testing.T) {
	tdb := testhelpers.SetupTestDB(t)
	t.Cleanup(tdb.Close)

	uc := usecase.NewSettingsUseCase(tdb.Store, usecase.NewLedger(tdb.Logger), tdb.Logger)
	_, err := uc.Get(t.Context())
	assert.ErrorIs(t, err, errors.ErrSettingsNotInitialized)
}

func TestSettingsUseCase_UpdateVehicleFillsProfile(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})

	s, err := e.settings.UpdateVehicle(e.ctx, dto.UpdateVehicleRequest{
		VehicleType: domain.VehicleTruckLarge,
		Height:      floatPtr(4.2),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleTruckLarge, s.VehicleType)
	assert.Equal(t, 4.2, *s.VehicleHeight)

	profile, ok := domain.ProfileFor(domain.VehicleTruckLarge)
	require.True(t, ok)
	assert.Equal(t, profile.Dimensions().Weight, s.VehicleWeight)

	_, err = e.settings.UpdateVehicle(e.ctx, dto.UpdateVehicleRequest{VehicleType: "spaceship"})
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestSettingsUseCase_UpdatePreferences(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})

	distance := 12
	s, err := e.settings.UpdatePreferences(e.ctx, dto.UpdatePreferencesRequest{
		Nickname:                 strPtr("Camionero"),
		RestrictionAlertDistance: &distance,
	})
	require.NoError(t, err)
	assert.Equal(t, "Camionero", domain.StringValue(s.Nickname))
	assert.Equal(t, 12, s.RestrictionAlertDistance)

	actor, err := e.settings.ResolveActor(e.ctx, dto.ActorRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Camionero", domain.StringValue(actor.UserName))

	tooFar := 50
	_, err = e.settings.UpdatePreferences(e.ctx, dto.UpdatePreferencesRequest{RestrictionAlertDistance: &tooFar})
	assert.ErrorIs(t, err, errors.ErrValidation)

	s, err = e.settings.Get(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, s.RestrictionAlertDistance)
}

func TestSettingsUseCase_RebuildCountersMatchesLedger(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})

	placeID := createPlace(t, e, "Taller Centro", domain.CategoryWorkshop, testhelpers.Madrid)
	_, err := e.places.Confirm(e.ctx, placeID, dto.ActorRequest{})
	require.NoError(t, err)
	createRestriction(t, e, "Puente bajo", 3.0, testhelpers.Getafe)
	_, err = e.places.Confirm(e.ctx, placeID, dto.ActorRequest{UserID: "user_other"})
	require.NoError(t, err)

	incremental := e.refreshSettings(t)
	assert.Equal(t, 3, incremental.TotalContributions)
	assert.Equal(t, 1, incremental.PlacesAdded)
	assert.Equal(t, 1, incremental.ConfirmationsMade)

	rebuilt, err := e.settings.RebuildCounters(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, incremental.TotalContributions, rebuilt.TotalContributions)
	assert.Equal(t, incremental.PlacesAdded, rebuilt.PlacesAdded)
	assert.Equal(t, incremental.ConfirmationsMade, rebuilt.ConfirmationsMade)
	assert.Equal(t, incremental.HelpProvided, rebuilt.HelpProvided)
}

func TestSettingsUseCase_Regions(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})

	_, err := e.settings.AddRegion(e.ctx, "madrid")
	require.NoError(t, err)
	s, err := e.settings.AddRegion(e.ctx, "castilla_la_mancha")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"madrid", "castilla_la_mancha"}, s.RegionsList())

	_, err = e.settings.AddRegion(e.ctx, "atlantis")
	assert.ErrorIs(t, err, errors.ErrInvalidRegion)

	createPlace(t, e, "Bar Toledo", domain.CategoryBar, testhelpers.Toledo)
	madrid := createPlace(t, e, "Bar Madrid", domain.CategoryBar, testhelpers.Madrid)

	s, err = e.settings.RemoveRegion(e.ctx, "castilla_la_mancha")
	require.NoError(t, err)
	assert.Equal(t, []string{"madrid"}, s.RegionsList())

	res, err := e.places.ByRegion(e.ctx, "castilla_la_mancha", 0)
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	_, err = e.places.GetByID(e.ctx, madrid)
	require.NoError(t, err)
}

func TestSettingsUseCase_ClearAllData(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	createPlace(t, e, "Bar Madrid", domain.CategoryBar, testhelpers.Madrid)
	registerHelper(t, e, dto.ActorRequest{}, "Juan", testhelpers.Madrid)

	require.NoError(t, e.settings.ClearAllData(e.ctx))

	n, err := e.contributions.CountAll(e.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	s, err := e.settings.Get(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, e.self.LocalUserID, s.LocalUserID)
	assert.Zero(t, s.TotalContributions)
	assert.Zero(t, s.PlacesAdded)
	assert.False(t, s.IsHelper)
}

func TestSettingsUseCase_AcceptTerms(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	assert.Nil(t, e.self.AcceptedTermsAt)

	s, err := e.settings.AcceptTerms(e.ctx)
	require.NoError(t, err)
	require.NotNil(t, s.AcceptedTermsAt)
	assert.Equal(t, s.AcceptedTermsAt, s.AcceptedPrivacyAt)
}
