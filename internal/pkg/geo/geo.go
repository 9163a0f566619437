// Package geo содержит чистые гео-функции: bounding box, haversine,
// фильтрацию по радиусу, ETA и классификацию регионов.
//
// Все функции тотальны на числовом входе: координаты вне диапазона не
// вызывают panic, результат просто геометрически бессмыслен.
package geo

import (
	"math"
	"sort"
)

const (
	// EarthRadiusKm - радиус Земли для формулы haversine
	EarthRadiusKm = 6371.0

	// KmPerDegree - приближение: 1° широты ≈ 111 км
	KmPerDegree = 111.0

	// DefaultSpeedKmh - скорость по умолчанию для ETA
	DefaultSpeedKmh = 60.0
)

// BoundingBox - прямоугольник широта/долгота для грубого пред-фильтра
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Contains проверяет, лежит ли точка внутри прямоугольника (границы включительно)
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Center возвращает центр прямоугольника
func (b BoundingBox) Center() (lat, lon float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2
}

// Expand расширяет прямоугольник на заданное число километров со всех сторон
func (b BoundingBox) Expand(km float64) BoundingBox {
	lat, _ := b.Center()
	latDelta := km / KmPerDegree
	lonDelta := km / (KmPerDegree * math.Cos(toRadians(lat)))
	return BoundingBox{
		MinLat: b.MinLat - latDelta,
		MaxLat: b.MaxLat + latDelta,
		MinLon: b.MinLon - lonDelta,
		MaxLon: b.MaxLon + lonDelta,
	}
}

// IsEmpty - true для вырожденного или перевёрнутого прямоугольника
func (b BoundingBox) IsEmpty() bool {
	return b.MinLat > b.MaxLat || b.MinLon > b.MaxLon
}

// BoundingBoxAround строит прямоугольник вокруг точки:
// Δlat = r/111, Δlon = r/(111·cos(lat)).
// Для r <= 0 результат вырожденный или перевёрнутый (IsEmpty).
func BoundingBoxAround(lat, lon, radiusKm float64) BoundingBox {
	latDelta := radiusKm / KmPerDegree
	lonDelta := radiusKm / (KmPerDegree * math.Cos(toRadians(lat)))
	if math.IsNaN(lonDelta) {
		lonDelta = 0
	}

	// near the poles cos(lat) can be negative from float error
	lonDelta = math.Abs(lonDelta)
	if radiusKm < 0 {
		lonDelta = -lonDelta
	}

	return BoundingBox{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLon: lon - lonDelta,
		MaxLon: lon + lonDelta,
	}
}

// DistanceKm - расстояние по большому кругу (haversine), км
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	// clamp: float error can push a slightly above 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Locatable - любая запись с координатами
type Locatable interface {
	Coordinates() (lat, lon float64)
}

// WithDistance - запись с посчитанным расстоянием до центра поиска
type WithDistance[T any] struct {
	Item       T       `json:"item"`
	DistanceKm float64 `json:"distance_km"`
}

// FilterAndSortByDistance пересчитывает точное расстояние для кандидатов,
// прошедших bounding box, отбрасывает всё дальше radiusKm и сортирует по возрастанию.
// При radiusKm <= 0 результат пустой.
func FilterAndSortByDistance[T Locatable](candidates []T, centerLat, centerLon, radiusKm float64) []WithDistance[T] {
	result := make([]WithDistance[T], 0, len(candidates))
	if radiusKm <= 0 {
		return result
	}

	for _, c := range candidates {
		lat, lon := c.Coordinates()
		d := DistanceKm(centerLat, centerLon, lat, lon)
		if d > radiusKm {
			continue
		}
		result = append(result, WithDistance[T]{Item: c, DistanceKm: d})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})

	return result
}

// SortByDistance сортирует записи по расстоянию без отсечения по радиусу
func SortByDistance[T Locatable](items []T, centerLat, centerLon float64) []WithDistance[T] {
	result := make([]WithDistance[T], 0, len(items))
	for _, it := range items {
		lat, lon := it.Coordinates()
		result = append(result, WithDistance[T]{Item: it, DistanceKm: DistanceKm(centerLat, centerLon, lat, lon)})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})
	return result
}

// ETAMinutes - round(distance / speed * 60). speedKmh <= 0 заменяется на 60 км/ч.
func ETAMinutes(distanceKm, speedKmh float64) int {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	return int(math.Round(distanceKm / speedKmh * 60))
}

// Bearing - начальный азимут от точки 1 к точке 2 в градусах [0, 360)
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dLon := toRadians(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLon)

	return math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
}

// Destination возвращает точку на расстоянии distanceKm по азимуту bearing
func Destination(lat, lon, bearing, distanceKm float64) (float64, float64) {
	angular := distanceKm / EarthRadiusKm
	brng := toRadians(bearing)
	latRad := toRadians(lat)
	lonRad := toRadians(lon)

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(angular) + math.Cos(latRad)*math.Sin(angular)*math.Cos(brng))
	lon2 := lonRad + math.Atan2(
		math.Sin(brng)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(lat2),
	)

	return toDegrees(lat2), normalizeLon(toDegrees(lon2))
}

// CardinalDirection переводит азимут в одно из 8 направлений (N, NE, E, ...)
func CardinalDirection(bearing float64) string {
	directions := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	idx := int(math.Round(math.Mod(bearing+360, 360)/45)) % 8
	return directions[idx]
}

// PathLengthKm - длина ломаной по точкам [lat, lon]
func PathLengthKm(points [][2]float64) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += DistanceKm(points[i-1][0], points[i-1][1], points[i][0], points[i][1])
	}
	return total
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidateRadius проверяет, что радиус в допустимом диапазоне
func ValidateRadius(radiusKm, minKm, maxKm float64) bool {
	return radiusKm > 0 && radiusKm >= minKm && radiusKm <= maxKm
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func toDegrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

func normalizeLon(lon float64) float64 {
	return math.Mod(lon+540, 360) - 180
}
