package usecase_test

import (
	"testing"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/pkg/geo"
	"github.com/siempreabierto/internal/repository/sqlstore/testhelpers"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

// north - точка в km километрах к северу от p
func north(p domain.Point, km float64) domain.Point {
	return domain.Point{Lat: p.Lat + km/geo.KmPerDegree, Lon: p.Lon}
}

func createRestriction(t *testing.T, e *testEnv, name string, maxHeight float64, p domain.Point) int64 {
	t.Helper()
	id, err := e.restrictions.Create(e.ctx, dto.CreateRestrictionRequest{
		Name:      name,
		Type:      domain.RestrictionHeight,
		Lat:       coord(p.Lat),
		Lon:       coord(p.Lon),
		MaxHeight: floatPtr(maxHeight),
	})
	require.NoError(t, err)
	return id
}

func TestRestrictionUseCase_CreateRequiresLimit(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})

	_, err := e.restrictions.Create(e.ctx, dto.CreateRestrictionRequest{
		Name: "Puente",
		Type: domain.RestrictionBridge,
		Lat:  coord(testhelpers.Madrid.Lat),
		Lon:  coord(testhelpers.Madrid.Lon),
	})
	assert.ErrorIs(t, err, errors.ErrValidation)

	id := createRestriction(t, e, "Túnel", 3.5, testhelpers.Madrid)
	history := e.history(t, domain.RestrictionRef{RestrictionID: id})
	require.Len(t, history, 1)
	assert.Equal(t, domain.TargetRestriction, history[0].TargetType)

	// создание ограничения не считается добавленным местом
	s := e.refreshSettings(t)
	assert.Equal(t, 1, s.TotalContributions)
	assert.Zero(t, s.PlacesAdded)
}

func TestRestrictionUseCase_Update(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	id := createRestriction(t, e, "Túnel", 3.5, testhelpers.Madrid)

	r, err := e.restrictions.Update(e.ctx, id, dto.UpdateRestrictionRequest{MaxHeight: floatPtr(3.2)})
	require.NoError(t, err)
	assert.Equal(t, 3.2, *r.MaxHeight)

	changes, err := e.contributions.HistoryForTarget(e.ctx, domain.RestrictionRef{RestrictionID: id}, "max_height", 10)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "3.5", domain.StringValue(changes[0].OldValue))
	assert.Equal(t, "3.2", domain.StringValue(changes[0].NewValue))
}

func TestRestrictionUseCase_CheckForVehicle(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	high := createRestriction(t, e, "Puente bajo", 3.0, north(testhelpers.Madrid, 2))
	critical := createRestriction(t, e, "Túnel", 3.2, north(testhelpers.Madrid, 0.5))
	createRestriction(t, e, "Paso alto", 4.5, north(testhelpers.Madrid, 1))
	createRestriction(t, e, "Lejos", 2.0, testhelpers.Toledo)

	truck := domain.VehicleDimensions{Height: floatPtr(4.0)}
	alerts, err := e.restrictions.CheckForVehicle(e.ctx, truck, testhelpers.Madrid.Lat, testhelpers.Madrid.Lon, 5)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, critical, alerts[0].Restriction.ID)
	assert.Equal(t, domain.SeverityCritical, alerts[0].Severity)

	assert.Equal(t, high, alerts[1].Restriction.ID)
	assert.Equal(t, domain.SeverityHigh, alerts[1].Severity)
	assert.InDelta(t, 2.0, alerts[1].DistanceKm, 0.05)
	assert.Equal(t, []string{"Height: 4m > max 3m"}, alerts[1].Reasons)

	car := domain.VehicleDimensions{Height: floatPtr(1.5)}
	alerts, err = e.restrictions.CheckForVehicle(e.ctx, car, testhelpers.Madrid.Lat, testhelpers.Madrid.Lon, 5)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	_, err = e.restrictions.CheckForVehicle(e.ctx, truck, testhelpers.Madrid.Lat, testhelpers.Madrid.Lon, 0)
	assert.ErrorIs(t, err, errors.ErrInvalidRadius)
}

func TestRestrictionUseCase_AlertsForMyVehicle(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	createRestriction(t, e, "Puente bajo", 3.0, north(testhelpers.Madrid, 2))

	req := dto.AlertRequest{Lat: coord(testhelpers.Madrid.Lat), Lon: coord(testhelpers.Madrid.Lon)}

	// coche por defecto: 1.5 m
	res, err := e.restrictions.AlertsForMyVehicle(e.ctx, req)
	require.NoError(t, err)
	assert.Empty(t, res.Alerts)
	assert.Equal(t, float64(domain.AlertDistanceDefaultKm), res.RadiusKm)

	_, err = e.settings.UpdateVehicle(e.ctx, dto.UpdateVehicleRequest{VehicleType: domain.VehicleTruckLarge})
	require.NoError(t, err)

	res, err = e.restrictions.AlertsForMyVehicle(e.ctx, req)
	require.NoError(t, err)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, domain.SeverityHigh, res.Alerts[0].Severity)
	assert.Equal(t, 4.0, *res.Vehicle.Height)

	// габариты из запроса важнее настроек
	req.Height = floatPtr(2.5)
	res, err = e.restrictions.AlertsForMyVehicle(e.ctx, req)
	require.NoError(t, err)
	assert.Empty(t, res.Alerts)
}

func TestRestrictionUseCase_NearbyAndDeactivate(t *testing.T) {
	e := newTestEnv(t, usecase.SyncOptions{})
	id := createRestriction(t, e, "Túnel", 3.5, north(testhelpers.Madrid, 1))

	req := dto.NearbyRestrictionsRequest{
		NearbyRequest: nearMadrid(5),
	}
	res, err := e.restrictions.Nearby(e.ctx, req)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Max height: 3.5m", res.Items[0].LimitsText)

	require.NoError(t, e.restrictions.Deactivate(e.ctx, id, dto.DeactivateRequest{}))

	res, err = e.restrictions.Nearby(e.ctx, req)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Len(t, e.history(t, domain.RestrictionRef{RestrictionID: id}), 2)
}
