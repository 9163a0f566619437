package domain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// Route - сохранённый маршрут origin → destination
type Route struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`

	// Геометрия хранится в WKB, наружу отдаётся списком точек
	Geometry  []byte  `json:"-" db:"geometry"`
	Waypoints []Point `json:"waypoints" db:"-"`

	OriginName       string  `json:"origin_name" db:"origin_name"`
	OriginLat        float64 `json:"origin_lat" db:"origin_lat"`
	OriginLon        float64 `json:"origin_lon" db:"origin_lon"`
	DestinationName  string  `json:"destination_name" db:"destination_name"`
	DestinationLat   float64 `json:"destination_lat" db:"destination_lat"`
	DestinationLon   float64 `json:"destination_lon" db:"destination_lon"`
	DistanceKm       float64 `json:"distance_km" db:"distance_km"`
	EstimatedMinutes int     `json:"estimated_minutes" db:"estimated_minutes"`
	Region           *string `json:"region,omitempty" db:"region"`

	// Пригодность и ограничения
	TollRoads             bool     `json:"toll_roads" db:"toll_roads"`
	TollCost              *float64 `json:"toll_cost,omitempty" db:"toll_cost"`
	VehicleType           string   `json:"vehicle_type" db:"vehicle_type"`
	SuitableForTruck      bool     `json:"suitable_for_truck" db:"suitable_for_truck"`
	SuitableForBus        bool     `json:"suitable_for_bus" db:"suitable_for_bus"`
	SuitableForCamper     bool     `json:"suitable_for_camper" db:"suitable_for_camper"`
	HasHeightRestrictions bool     `json:"has_height_restrictions" db:"has_height_restrictions"`
	MinHeightOnRoute      *float64 `json:"min_height_on_route,omitempty" db:"min_height_on_route"`
	HasWeightRestrictions bool     `json:"has_weight_restrictions" db:"has_weight_restrictions"`
	MaxWeightOnRoute      *float64 `json:"max_weight_on_route,omitempty" db:"max_weight_on_route"`
	RestrictionNotes      *string  `json:"restriction_notes,omitempty" db:"restriction_notes"`

	// Сообщество
	IsPublic               bool    `json:"is_public" db:"is_public"`
	IsCommunityRecommended bool    `json:"is_community_recommended" db:"is_community_recommended"`
	Upvotes                int     `json:"upvotes" db:"upvotes"`
	Downvotes              int     `json:"downvotes" db:"downvotes"`
	CommunityNotes         *string `json:"community_notes,omitempty" db:"community_notes"`
	ContributedBy          string  `json:"contributed_by" db:"contributed_by"`

	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	IsFavorite bool       `json:"is_favorite" db:"is_favorite"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	UsageCount int        `json:"usage_count" db:"usage_count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
}

// Route vehicle types
const (
	RouteVehicleCar    = "car"
	RouteVehicleTruck  = "truck"
	RouteVehicleBus    = "bus"
	RouteVehicleCamper = "camper"
	RouteVehicleAny    = "any"
)

// CommunityRecommendedScore - минимальный баланс голосов для пометки "рекомендовано"
const CommunityRecommendedScore = 5

// Coordinates - маршрут ищется по точке отправления
func (r Route) Coordinates() (float64, float64) {
	return r.OriginLat, r.OriginLon
}

// Score - баланс голосов
func (r Route) Score() int {
	return r.Upvotes - r.Downvotes
}

// IsSuitableFor - маршрут подходит для типа ТС
func (r Route) IsSuitableFor(vehicleType string) bool {
	switch vehicleType {
	case RouteVehicleCar:
		return true
	case RouteVehicleTruck:
		return r.SuitableForTruck
	case RouteVehicleBus:
		return r.SuitableForBus
	case RouteVehicleCamper:
		return r.SuitableForCamper
	default:
		return true
	}
}

// RouteVehicleFamily сводит тип ТС из настроек (truck_large, bus_large...) к типу маршрута
func RouteVehicleFamily(userVehicleType string) string {
	switch userVehicleType {
	case VehicleTruckSmall, VehicleTruckMedium, VehicleTruckLarge, VehicleTruckTrailer:
		return RouteVehicleTruck
	case VehicleBus, VehicleBusLarge:
		return RouteVehicleBus
	case VehicleCamper, VehicleCamperLarge:
		return RouteVehicleCamper
	default:
		return RouteVehicleCar
	}
}

var ErrEmptyGeometry = errors.New("route geometry needs at least two points")

// EncodeWaypoints кодирует точки маршрута в WKB LineString
func EncodeWaypoints(points []Point) ([]byte, error) {
	if len(points) < 2 {
		return nil, ErrEmptyGeometry
	}
	coords := make([]geom.Coord, 0, len(points))
	for _, p := range points {
		coords = append(coords, geom.Coord{p.Lon, p.Lat})
	}
	ls, err := geom.NewLineString(geom.XY).SetCoords(coords)
	if err != nil {
		return nil, fmt.Errorf("build line string: %w", err)
	}
	return wkb.Marshal(ls, binary.LittleEndian)
}

// DecodeWaypoints декодирует WKB LineString в точки
func DecodeWaypoints(data []byte) ([]Point, error) {
	if len(data) == 0 {
		return nil, nil
	}
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode wkb: %w", err)
	}
	return pointsFromGeometry(g)
}

// ParseGeoJSONLineString разбирает GeoJSON геометрию LineString
func ParseGeoJSONLineString(raw []byte) ([]Point, error) {
	var g geom.T
	if err := gjson.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	return pointsFromGeometry(g)
}

// WaypointsGeoJSON возвращает геометрию маршрута в виде GeoJSON
func WaypointsGeoJSON(points []Point) ([]byte, error) {
	data, err := EncodeWaypoints(points)
	if err != nil {
		return nil, err
	}
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return gjson.Marshal(g)
}

func pointsFromGeometry(g geom.T) ([]Point, error) {
	ls, ok := g.(*geom.LineString)
	if !ok {
		return nil, fmt.Errorf("unsupported geometry %T, expected LineString", g)
	}
	if ls.NumCoords() < 2 {
		return nil, ErrEmptyGeometry
	}
	points := make([]Point, 0, ls.NumCoords())
	for _, c := range ls.Coords() {
		points = append(points, Point{Lat: c.Y(), Lon: c.X()})
	}
	return points, nil
}
