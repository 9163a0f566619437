package domain

import (
	"slices"
	"strings"
	"time"
)

// Place - точка интереса для водителей (мастерская, заправка, парковка...)
type Place struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Category    string  `json:"category" db:"category"`
	Subcategory *string `json:"subcategory,omitempty" db:"subcategory"`
	Latitude    float64 `json:"latitude" db:"latitude"`
	Longitude   float64 `json:"longitude" db:"longitude"`

	// Адрес
	Address  *string `json:"address,omitempty" db:"address"`
	City     *string `json:"city,omitempty" db:"city"`
	Province *string `json:"province,omitempty" db:"province"`
	Region   string  `json:"region" db:"region"`

	// Контакты и расписание
	Phone       *string `json:"phone,omitempty" db:"phone"`
	Phone2      *string `json:"phone2,omitempty" db:"phone2"`
	Schedule    *string `json:"schedule,omitempty" db:"schedule"`
	Is24h       bool    `json:"is_24h" db:"is_24h"`
	UsuallyOpen *string `json:"usually_open,omitempty" db:"usually_open"`

	// Габариты для больших транспортных средств
	FitsTrailer *bool    `json:"fits_trailer,omitempty" db:"fits_trailer"`
	FitsBus     *bool    `json:"fits_bus,omitempty" db:"fits_bus"`
	FitsTruck   *bool    `json:"fits_truck,omitempty" db:"fits_truck"`
	MaxHeight   *float64 `json:"max_height,omitempty" db:"max_height"`
	MaxWidth    *float64 `json:"max_width,omitempty" db:"max_width"`
	MaxWeight   *float64 `json:"max_weight,omitempty" db:"max_weight"`

	PriceRange *string `json:"price_range,omitempty" db:"price_range"`
	Services   *string `json:"services,omitempty" db:"services"`
	Notes      *string `json:"notes,omitempty" db:"notes"`

	// Трассируемость
	ContributedBy   string     `json:"contributed_by" db:"contributed_by"`
	Source          string     `json:"source" db:"source"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	LastConfirmedAt *time.Time `json:"last_confirmed_at,omitempty" db:"last_confirmed_at"`
	LastConfirmedBy *string    `json:"last_confirmed_by,omitempty" db:"last_confirmed_by"`
	IsVerified      bool       `json:"is_verified" db:"is_verified"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	ReportCount     int        `json:"report_count" db:"report_count"`
}

// Coordinates реализует geo.Locatable
func (p Place) Coordinates() (float64, float64) {
	return p.Latitude, p.Longitude
}

// NeedsReview - место набрало достаточно жалоб для проверки
func (p Place) NeedsReview() bool {
	return p.ReportCount >= ReportThreshold
}

// ServicesList возвращает список услуг (через запятую в БД)
func (p Place) ServicesList() []string {
	return SplitTags(StringValue(p.Services))
}

// IsTruckFriendly - место подходит для грузовиков
func (p Place) IsTruckFriendly() bool {
	if p.FitsTruck != nil && *p.FitsTruck {
		return true
	}
	return slices.Contains(TruckCategories, p.Category)
}

// Place categories
const (
	CategoryWorkshop       = "workshop"
	CategoryWorkshop24h    = "workshop_24h"
	CategoryTowTruck       = "tow_truck"
	CategoryGasStation     = "gas_station"
	CategoryCarWash        = "car_wash"
	CategoryTruckWash      = "truck_wash"
	CategoryVacuum         = "vacuum"
	CategoryParking        = "parking"
	CategoryTruckParking   = "truck_parking"
	CategoryRestArea       = "rest_area"
	CategoryShowers        = "showers"
	CategorySupermarket    = "supermarket"
	CategorySupermarket24h = "supermarket_24h"
	CategoryBar            = "bar"
	CategoryCafe           = "cafe"
	CategoryRestaurant     = "restaurant"
)

// Category - код и отображаемое имя категории
type Category struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var PlaceCategories = []Category{
	{CategoryWorkshop, "Talleres"},
	{CategoryWorkshop24h, "Talleres 24h"},
	{CategoryTowTruck, "Grúas"},
	{CategoryGasStation, "Gasolineras"},
	{CategoryCarWash, "Lavaderos Coche"},
	{CategoryTruckWash, "Lavaderos Camión"},
	{CategoryVacuum, "Aspiradores"},
	{CategoryParking, "Parkings"},
	{CategoryTruckParking, "Parkings Camión"},
	{CategoryRestArea, "Zonas Descanso"},
	{CategoryShowers, "Duchas"},
	{CategorySupermarket, "Supermercados"},
	{CategorySupermarket24h, "Supermercados 24h"},
	{CategoryBar, "Bares"},
	{CategoryCafe, "Cafeterías"},
	{CategoryRestaurant, "Restaurantes"},
}

// EmergencyCategories - категории, полезные при поломке
var EmergencyCategories = []string{CategoryWorkshop, CategoryWorkshop24h, CategoryTowTruck, CategoryGasStation}

// TruckCategories - категории для больших транспортных средств
var TruckCategories = []string{CategoryTruckWash, CategoryTruckParking, CategoryRestArea, CategoryShowers}

// IsValidCategory проверяет код категории
func IsValidCategory(code string) bool {
	for _, c := range PlaceCategories {
		if c.Code == code {
			return true
		}
	}
	return false
}

// SplitTags разбирает список через запятую
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// JoinTags собирает список через запятую
func JoinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}
