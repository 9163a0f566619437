package geo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	name     string
	lat, lon float64
}

func (p point) Coordinates() (float64, float64) { return p.lat, p.lon }

func TestDistanceKm_MadridBarcelona(t *testing.T) {
	d := DistanceKm(40.4168, -3.7038, 41.3851, 2.1734)
	assert.InDelta(t, 505, d, 5)
}

func TestDistanceKm_SymmetryAndIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		lat1, lon1 := rng.Float64()*180-90, rng.Float64()*360-180
		lat2, lon2 := rng.Float64()*180-90, rng.Float64()*360-180

		ab := DistanceKm(lat1, lon1, lat2, lon2)
		ba := DistanceKm(lat2, lon2, lat1, lon1)

		assert.InDelta(t, ab, ba, 1e-9)
		assert.Equal(t, 0.0, DistanceKm(lat1, lon1, lat1, lon1))
		assert.False(t, math.IsNaN(ab))
	}
}

func TestDistanceKm_Extremes(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
	}{
		{"pole to pole", 90, 0, -90, 0, math.Pi * EarthRadiusKm},
		{"antipodal on equator", 0, 0, 0, 180, math.Pi * EarthRadiusKm},
		{"across antimeridian", 0, 179.5, 0, -179.5, 111.19},
		{"same pole different lon", 90, 10, 90, -170, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				d := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
				assert.InDelta(t, tt.expected, d, 0.5)
			})
		})
	}
}

func TestBoundingBoxAround_Equator(t *testing.T) {
	box := BoundingBoxAround(0, 0, 111)

	assert.InDelta(t, -1, box.MinLat, 1e-9)
	assert.InDelta(t, 1, box.MaxLat, 1e-9)
	assert.InDelta(t, -1, box.MinLon, 1e-9)
	assert.InDelta(t, 1, box.MaxLon, 1e-9)
}

func TestBoundingBoxAround_ContainsCenter(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		lat, lon := rng.Float64()*180-90, rng.Float64()*360-180
		radius := 0.01 + rng.Float64()*500

		box := BoundingBoxAround(lat, lon, radius)
		assert.True(t, box.Contains(lat, lon), "lat=%f lon=%f r=%f box=%+v", lat, lon, radius, box)
	}
}

func TestBoundingBoxAround_SupersetOfCircle(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 200; i++ {
		lat := rng.Float64()*120 - 60
		lon := rng.Float64()*340 - 170
		radius := 0.5 + rng.Float64()*99.5

		box := BoundingBoxAround(lat, lon, radius)
		for bearing := 0.0; bearing < 360; bearing += 15 {
			pLat, pLon := Destination(lat, lon, bearing, radius*0.999)
			require.LessOrEqual(t, DistanceKm(lat, lon, pLat, pLon), radius)
			assert.True(t, box.Contains(pLat, pLon),
				"center=(%f,%f) r=%f bearing=%f point=(%f,%f)", lat, lon, radius, bearing, pLat, pLon)
		}
	}
}

func TestBoundingBoxAround_NoPanicAtExtremes(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"north pole", 90, 0},
		{"south pole", -90, 0},
		{"antimeridian east", 0, 180},
		{"antimeridian west", 0, -180},
		{"out of range", 123, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				box := BoundingBoxAround(tt.lat, tt.lon, 10)
				assert.False(t, math.IsNaN(box.MinLon))
				assert.False(t, math.IsNaN(box.MaxLon))
			})
		})
	}
}

func TestBoundingBoxAround_NonPositiveRadiusIsEmpty(t *testing.T) {
	assert.True(t, BoundingBoxAround(40, -3, -5).IsEmpty())
	assert.False(t, BoundingBoxAround(40, -3, 0).IsEmpty())
	assert.False(t, BoundingBoxAround(40, -3, 5).IsEmpty())
}

func TestFilterAndSortByDistance(t *testing.T) {
	center := point{"center", 40.4168, -3.7038}
	candidates := []point{
		{"toledo", 39.8628, -4.0273},    // ~67 km
		{"getafe", 40.3057, -3.7329},    // ~12.6 km
		{"alcala", 40.4818, -3.3643},    // ~29.6 km
		{"segovia", 40.9429, -4.1088},   // ~68 km
		{"same spot", 40.4168, -3.7038}, // 0 km
	}

	result := FilterAndSortByDistance(candidates, center.lat, center.lon, 30)

	require.Len(t, result, 3)
	assert.Equal(t, "same spot", result[0].Item.name)
	assert.Equal(t, "getafe", result[1].Item.name)
	assert.Equal(t, "alcala", result[2].Item.name)
	for i := 1; i < len(result); i++ {
		assert.LessOrEqual(t, result[i-1].DistanceKm, result[i].DistanceKm)
	}
}

func TestFilterAndSortByDistance_NonPositiveRadius(t *testing.T) {
	candidates := []point{{"a", 40, -3}}

	assert.Empty(t, FilterAndSortByDistance(candidates, 40, -3, 0))
	assert.Empty(t, FilterAndSortByDistance(candidates, 40, -3, -1))
}

func TestETAMinutes(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		speed    float64
		expected int
	}{
		{"default speed", 30, 0, 30},
		{"rounds up", 10.6, 60, 11},
		{"rounds down", 10.4, 60, 10},
		{"truck speed", 90, 80, 68},
		{"zero distance", 0, 60, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ETAMinutes(tt.distance, tt.speed))
		})
	}
}

func TestBearingAndCardinal(t *testing.T) {
	assert.InDelta(t, 0, Bearing(40, -3, 41, -3), 0.01)
	assert.InDelta(t, 90, Bearing(0, 0, 0, 1), 0.01)
	assert.Equal(t, "N", CardinalDirection(0))
	assert.Equal(t, "E", CardinalDirection(92))
	assert.Equal(t, "SW", CardinalDirection(225))
	assert.Equal(t, "N", CardinalDirection(359))
}

func TestDestination_RoundTrip(t *testing.T) {
	lat, lon := Destination(40.4168, -3.7038, 45, 25)
	assert.InDelta(t, 25, DistanceKm(40.4168, -3.7038, lat, lon), 0.01)
	assert.InDelta(t, 45, Bearing(40.4168, -3.7038, lat, lon), 0.5)
}

func TestBoundingBox_Helpers(t *testing.T) {
	box := BoundingBox{MinLat: 40, MaxLat: 42, MinLon: -4, MaxLon: -2}

	lat, lon := box.Center()
	assert.Equal(t, 41.0, lat)
	assert.Equal(t, -3.0, lon)
	assert.True(t, box.Contains(40, -4))
	assert.False(t, box.Contains(39.99, -3))

	expanded := box.Expand(11.1)
	assert.InDelta(t, 39.9, expanded.MinLat, 1e-9)
	assert.True(t, expanded.Contains(39.95, -4.05))
}

func TestPathLengthKm(t *testing.T) {
	path := [][2]float64{{40.4168, -3.7038}, {41.3851, 2.1734}}
	assert.InDelta(t, DistanceKm(40.4168, -3.7038, 41.3851, 2.1734), PathLengthKm(path), 1e-9)
	assert.Equal(t, 0.0, PathLengthKm(nil))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "500 m", FormatDistance(0.5))
	assert.Equal(t, "3.4 km", FormatDistance(3.42))
	assert.Equal(t, "27 km", FormatDistance(27.9))
	assert.Equal(t, "6.2 mi", FormatDistanceUnit(10, "mi"))
	assert.Equal(t, "< 1 min", FormatETA(0))
	assert.Equal(t, "45 min", FormatETA(45))
	assert.Equal(t, "2h", FormatETA(120))
	assert.Equal(t, "1h 15min", FormatETA(75))
}

func TestValidate(t *testing.T) {
	assert.True(t, ValidateCoordinates(90, -180))
	assert.False(t, ValidateCoordinates(91, 0))
	assert.True(t, ValidateRadius(20, 0.1, 100))
	assert.False(t, ValidateRadius(0, 0, 100))
	assert.False(t, ValidateRadius(150, 0.1, 100))
}
