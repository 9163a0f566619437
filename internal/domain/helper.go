package domain

import (
	"slices"
	"time"
)

// Helper - участник сообщества, готовый помочь на дороге
type Helper struct {
	ID               int64   `json:"id" db:"id"`
	Nickname         string  `json:"nickname" db:"nickname"`
	LocalUserID      string  `json:"local_user_id" db:"local_user_id"`
	Latitude         float64 `json:"latitude" db:"latitude"`
	Longitude        float64 `json:"longitude" db:"longitude"`
	City             *string `json:"city,omitempty" db:"city"`
	Province         *string `json:"province,omitempty" db:"province"`
	Region           string  `json:"region" db:"region"`
	CoverageRadiusKm int     `json:"coverage_radius_km" db:"coverage_radius_km"`

	// Контакт
	Phone        *string `json:"phone,omitempty" db:"phone"`
	PhoneVisible bool    `json:"phone_visible" db:"phone_visible"`
	ContactNotes *string `json:"contact_notes,omitempty" db:"contact_notes"`

	// Возможности
	VehicleType   string `json:"vehicle_type" db:"vehicle_type"`
	CanHelpWith   string `json:"can_help_with" db:"can_help_with"`
	HasTools      bool   `json:"has_tools" db:"has_tools"`
	HasJumpCables bool   `json:"has_jump_cables" db:"has_jump_cables"`
	HasTowRope    bool   `json:"has_tow_rope" db:"has_tow_rope"`
	HasCompressor bool   `json:"has_compressor" db:"has_compressor"`

	// Доступность
	IsAvailable       bool    `json:"is_available" db:"is_available"`
	AvailableSchedule *string `json:"available_schedule,omitempty" db:"available_schedule"`
	AvailableNotes    *string `json:"available_notes,omitempty" db:"available_notes"`

	// Репутация
	HelpCount   int      `json:"help_count" db:"help_count"`
	Rating      *float64 `json:"rating,omitempty" db:"rating"`
	RatingCount int      `json:"rating_count" db:"rating_count"`

	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	LastActiveAt time.Time `json:"last_active_at" db:"last_active_at"`
	IsVerified   bool      `json:"is_verified" db:"is_verified"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}

// Helper coverage limits, km
const (
	HelperCoverageDefaultKm = 20
	HelperCoverageMinKm     = 5
	HelperCoverageMaxKm     = 50
)

// Help types
const (
	HelpJumpStart  = "jump_start"
	HelpFlatTire   = "flat_tire"
	HelpFuel       = "fuel"
	HelpTowShort   = "tow_short"
	HelpTools      = "tools"
	HelpCompany    = "company"
	HelpDirections = "directions"
	HelpCallHelp   = "call_help"
	HelpTransport  = "transport"
)

var HelpTypes = []Category{
	{HelpJumpStart, "Puente de batería"},
	{HelpFlatTire, "Ayuda con pinchazo"},
	{HelpFuel, "Llevar combustible"},
	{HelpTowShort, "Remolque corto"},
	{HelpTools, "Prestar herramientas"},
	{HelpCompany, "Hacer compañía"},
	{HelpDirections, "Guiar por la zona"},
	{HelpCallHelp, "Llamar ayuda profesional"},
	{HelpTransport, "Llevar a algún sitio"},
}

// Coordinates реализует geo.Locatable
func (h Helper) Coordinates() (float64, float64) {
	return h.Latitude, h.Longitude
}

// HelpTypesList - список типов помощи
func (h Helper) HelpTypesList() []string {
	return SplitTags(h.CanHelpWith)
}

// CanHelpWithType - помощник умеет данный тип помощи
func (h Helper) CanHelpWithType(helpType string) bool {
	return slices.Contains(h.HelpTypesList(), helpType)
}

// Covers - точка на расстоянии distanceKm в радиусе покрытия помощника
func (h Helper) Covers(distanceKm float64) bool {
	radius := h.CoverageRadiusKm
	if radius <= 0 {
		radius = HelperCoverageDefaultKm
	}
	return distanceKm <= float64(radius)
}

// ApplyRating пересчитывает среднюю оценку с новой оценкой 1..5
func (h *Helper) ApplyRating(rating int) {
	current := 0.0
	if h.Rating != nil {
		current = *h.Rating
	}
	total := current*float64(h.RatingCount) + float64(rating)
	h.RatingCount++
	avg := total / float64(h.RatingCount)
	h.Rating = &avg
}

// PublicPhone - телефон только если помощник разрешил его показывать
func (h Helper) PublicPhone() *string {
	if !h.PhoneVisible {
		return nil
	}
	return h.Phone
}
