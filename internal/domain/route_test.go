package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaypoints_RoundTrip(t *testing.T) {
	points := []Point{{Lat: 40.4168, Lon: -3.7038}, {Lat: 40.9429, Lon: -4.1088}, {Lat: 41.6523, Lon: -4.7245}}

	data, err := EncodeWaypoints(points)
	require.NoError(t, err)

	decoded, err := DecodeWaypoints(data)
	require.NoError(t, err)
	assert.Equal(t, points, decoded)
}

func TestWaypoints_GeoJSON(t *testing.T) {
	raw := []byte(`{"type":"LineString","coordinates":[[-3.7038,40.4168],[2.1734,41.3851]]}`)

	points, err := ParseGeoJSONLineString(raw)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 40.4168, points[0].Lat)
	assert.Equal(t, 2.1734, points[1].Lon)

	out, err := WaypointsGeoJSON(points)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}

func TestWaypoints_Invalid(t *testing.T) {
	_, err := EncodeWaypoints([]Point{{Lat: 1, Lon: 1}})
	assert.ErrorIs(t, err, ErrEmptyGeometry)

	_, err = ParseGeoJSONLineString([]byte(`{"type":"Point","coordinates":[-3.7,40.4]}`))
	assert.Error(t, err)

	points, err := DecodeWaypoints(nil)
	assert.NoError(t, err)
	assert.Nil(t, points)
}

func TestRoute_IsSuitableFor(t *testing.T) {
	r := Route{SuitableForTruck: false, SuitableForBus: true, SuitableForCamper: true}

	assert.True(t, r.IsSuitableFor(RouteVehicleCar))
	assert.False(t, r.IsSuitableFor(RouteVehicleTruck))
	assert.True(t, r.IsSuitableFor(RouteVehicleBus))
	assert.True(t, r.IsSuitableFor("motorcycle"))
	assert.Equal(t, RouteVehicleTruck, RouteVehicleFamily(VehicleTruckTrailer))
	assert.Equal(t, RouteVehicleCar, RouteVehicleFamily(VehicleVan))
}
