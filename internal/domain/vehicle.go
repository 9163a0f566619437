package domain

import "slices"

// User vehicle types
const (
	VehicleCar          = "car"
	VehicleVan          = "van"
	VehicleTruckSmall   = "truck_small"
	VehicleTruckMedium  = "truck_medium"
	VehicleTruckLarge   = "truck_large"
	VehicleTruckTrailer = "truck_trailer"
	VehicleBus          = "bus"
	VehicleBusLarge     = "bus_large"
	VehicleCamper       = "camper"
	VehicleCamperLarge  = "camper_large"
	VehicleMotorcycle   = "motorcycle"
)

// VehicleProfile - типовые габариты для типа ТС
type VehicleProfile struct {
	Type          string  `json:"type"`
	Name          string  `json:"name"`
	DefaultHeight float64 `json:"default_height"`
	DefaultWidth  float64 `json:"default_width"`
	DefaultWeight float64 `json:"default_weight"`
	DefaultLength float64 `json:"default_length"`
}

var VehicleProfiles = []VehicleProfile{
	{VehicleCar, "Coche", 1.5, 1.8, 2.0, 4.5},
	{VehicleVan, "Furgoneta", 2.2, 2.0, 3.0, 5.5},
	{VehicleTruckSmall, "Camión pequeño", 2.8, 2.2, 3.5, 6.0},
	{VehicleTruckMedium, "Camión mediano", 3.2, 2.5, 12.0, 8.0},
	{VehicleTruckLarge, "Camión grande", 4.0, 2.5, 26.0, 12.0},
	{VehicleTruckTrailer, "Tráiler", 4.0, 2.55, 40.0, 16.5},
	{VehicleBus, "Autobús", 3.2, 2.5, 18.0, 12.0},
	{VehicleBusLarge, "Autocar grande", 3.8, 2.55, 24.0, 15.0},
	{VehicleCamper, "Camper", 2.8, 2.2, 3.5, 6.5},
	{VehicleCamperLarge, "Autocaravana grande", 3.2, 2.35, 5.0, 8.0},
}

// ProfileFor возвращает профиль по типу ТС
func ProfileFor(vehicleType string) (VehicleProfile, bool) {
	for _, p := range VehicleProfiles {
		if p.Type == vehicleType {
			return p, true
		}
	}
	return VehicleProfile{}, false
}

// Dimensions - габариты профиля
func (p VehicleProfile) Dimensions() VehicleDimensions {
	h, w, wt, l := p.DefaultHeight, p.DefaultWidth, p.DefaultWeight, p.DefaultLength
	return VehicleDimensions{Height: &h, Width: &w, Weight: &wt, Length: &l}
}

// NeedsRestrictionAlerts - грузовики, автобусы и кемперы
func NeedsRestrictionAlerts(vehicleType string) bool {
	return slices.Contains([]string{
		VehicleTruckSmall, VehicleTruckMedium, VehicleTruckLarge, VehicleTruckTrailer,
		VehicleBus, VehicleBusLarge, VehicleCamper, VehicleCamperLarge,
	}, vehicleType)
}

// IsValidVehicleType проверяет тип ТС из настроек
func IsValidVehicleType(vehicleType string) bool {
	if vehicleType == VehicleMotorcycle {
		return true
	}
	_, ok := ProfileFor(vehicleType)
	return ok
}
