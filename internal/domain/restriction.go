package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Restriction - ограничение по габаритам/массе в точке дороги (туннель, мост...)
type Restriction struct {
	ID               int64    `json:"id" db:"id"`
	Latitude         float64  `json:"latitude" db:"latitude"`
	Longitude        float64  `json:"longitude" db:"longitude"`
	Name             string   `json:"name" db:"name"`
	Description      *string  `json:"description,omitempty" db:"description"`
	RoadName         *string  `json:"road_name,omitempty" db:"road_name"`
	KmPoint          *string  `json:"km_point,omitempty" db:"km_point"`
	Type             string   `json:"type" db:"type"`
	MaxHeight        *float64 `json:"max_height,omitempty" db:"max_height"`
	MaxWidth         *float64 `json:"max_width,omitempty" db:"max_width"`
	MaxWeight        *float64 `json:"max_weight,omitempty" db:"max_weight"`
	MaxLength        *float64 `json:"max_length,omitempty" db:"max_length"`
	Direction        *string  `json:"direction,omitempty" db:"direction"`
	AlternativeRoute *string  `json:"alternative_route,omitempty" db:"alternative_route"`
	Notes            *string  `json:"notes,omitempty" db:"notes"`
	City             *string  `json:"city,omitempty" db:"city"`
	Province         *string  `json:"province,omitempty" db:"province"`
	Region           string   `json:"region" db:"region"`

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

// Restriction types
const (
	RestrictionHeight    = "height"
	RestrictionWidth     = "width"
	RestrictionWeight    = "weight"
	RestrictionLength    = "length"
	RestrictionCombined  = "combined"
	RestrictionTunnel    = "tunnel"
	RestrictionBridge    = "bridge"
	RestrictionUnderpass = "underpass"
)

var RestrictionTypes = []string{
	RestrictionHeight, RestrictionWidth, RestrictionWeight, RestrictionLength,
	RestrictionCombined, RestrictionTunnel, RestrictionBridge, RestrictionUnderpass,
}

// Coordinates реализует geo.Locatable
func (r Restriction) Coordinates() (float64, float64) {
	return r.Latitude, r.Longitude
}

// HasAnyLimit - задан хотя бы один лимит
func (r Restriction) HasAnyLimit() bool {
	return r.MaxHeight != nil || r.MaxWidth != nil || r.MaxWeight != nil || r.MaxLength != nil
}

// NeedsReview - ограничение набрало достаточно жалоб для проверки
func (r Restriction) NeedsReview() bool {
	return r.ReportCount >= ReportThreshold
}

// VehicleDimensions - габариты транспортного средства; nil - неизвестно
type VehicleDimensions struct {
	Height *float64 `json:"height,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Length *float64 `json:"length,omitempty"`
}

// IsEmpty - ни одного габарита не задано
func (v VehicleDimensions) IsEmpty() bool {
	return v.Height == nil && v.Width == nil && v.Weight == nil && v.Length == nil
}

// Violations возвращает причины, по которым ТС не проходит ограничение.
// Пустой результат - ТС проходит (или данных недостаточно для проверки).
func (r Restriction) Violations(v VehicleDimensions) []string {
	var reasons []string

	check := func(label, unit string, vehicle, limit *float64) {
		if vehicle == nil || limit == nil {
			return
		}
		if *vehicle > *limit {
			reasons = append(reasons, fmt.Sprintf("%s: %s%s > max %s%s",
				label, formatMeasure(*vehicle), unit, formatMeasure(*limit), unit))
		}
	}

	check("Height", "m", v.Height, r.MaxHeight)
	check("Width", "m", v.Width, r.MaxWidth)
	check("Weight", "t", v.Weight, r.MaxWeight)
	check("Length", "m", v.Length, r.MaxLength)

	return reasons
}

// CanPass - ТС проходит ограничение. Без данных о ТС считаем, что проходит.
func (r Restriction) CanPass(v VehicleDimensions) bool {
	if v.IsEmpty() {
		return true
	}
	return len(r.Violations(v)) == 0
}

// LimitsText - "Max height: 3.5m • Max weight: 12t"
func (r Restriction) LimitsText() string {
	var parts []string
	if r.MaxHeight != nil {
		parts = append(parts, "Max height: "+formatMeasure(*r.MaxHeight)+"m")
	}
	if r.MaxWidth != nil {
		parts = append(parts, "Max width: "+formatMeasure(*r.MaxWidth)+"m")
	}
	if r.MaxWeight != nil {
		parts = append(parts, "Max weight: "+formatMeasure(*r.MaxWeight)+"t")
	}
	if r.MaxLength != nil {
		parts = append(parts, "Max length: "+formatMeasure(*r.MaxLength)+"m")
	}
	return strings.Join(parts, " • ")
}

func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// AlertSeverity - срочность предупреждения, зависит только от расстояния
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityHigh     AlertSeverity = "high"
	SeverityMedium   AlertSeverity = "medium"
	SeverityLow      AlertSeverity = "low"
)

// SeverityForDistance: <1 км critical, <3 км high, <5 км medium, иначе low
func SeverityForDistance(distanceKm float64) AlertSeverity {
	switch {
	case distanceKm < 1:
		return SeverityCritical
	case distanceKm < 3:
		return SeverityHigh
	case distanceKm < 5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// RestrictionAlert - ограничение, которое не проходит данное ТС
type RestrictionAlert struct {
	Restriction Restriction   `json:"restriction"`
	DistanceKm  float64       `json:"distance_km"`
	Reasons     []string      `json:"reasons"`
	Severity    AlertSeverity `json:"severity"`
}
