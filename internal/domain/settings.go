package domain

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SettingsID - единственная строка настроек устройства
const SettingsID = 1

// UserSettings - настройки устройства (singleton)
type UserSettings struct {
	ID          int     `json:"id" db:"id"`
	LocalUserID string  `json:"local_user_id" db:"local_user_id"`
	Nickname    *string `json:"nickname,omitempty" db:"nickname"`

	// Профиль ТС
	VehicleType        string   `json:"vehicle_type" db:"vehicle_type"`
	VehicleHeight      *float64 `json:"vehicle_height,omitempty" db:"vehicle_height"`
	VehicleWidth       *float64 `json:"vehicle_width,omitempty" db:"vehicle_width"`
	VehicleWeight      *float64 `json:"vehicle_weight,omitempty" db:"vehicle_weight"`
	VehicleLength      *float64 `json:"vehicle_length,omitempty" db:"vehicle_length"`
	VehiclePlate       *string  `json:"vehicle_plate,omitempty" db:"vehicle_plate"`
	VehicleDescription *string  `json:"vehicle_description,omitempty" db:"vehicle_description"`

	// Отображение и карта
	DarkMode              bool    `json:"dark_mode" db:"dark_mode"`
	MapZoomDefault        float64 `json:"map_zoom_default" db:"map_zoom_default"`
	ShowRestrictionsOnMap bool    `json:"show_restrictions_on_map" db:"show_restrictions_on_map"`
	ShowHelpersOnMap      bool    `json:"show_helpers_on_map" db:"show_helpers_on_map"`
	DistanceUnit          string  `json:"distance_unit" db:"distance_unit"`
	AvoidTolls            bool    `json:"avoid_tolls" db:"avoid_tolls"`
	AvoidHighways         bool    `json:"avoid_highways" db:"avoid_highways"`
	PreferTruckRoutes     bool    `json:"prefer_truck_routes" db:"prefer_truck_routes"`

	// Уведомления
	NotifyRestrictions       bool `json:"notify_restrictions" db:"notify_restrictions"`
	NotifyNearbyHelpers      bool `json:"notify_nearby_helpers" db:"notify_nearby_helpers"`
	RestrictionAlertDistance int  `json:"restriction_alert_distance" db:"restriction_alert_distance"`

	// Режим помощника
	IsHelper        bool   `json:"is_helper" db:"is_helper"`
	HelperProfileID *int64 `json:"helper_profile_id,omitempty" db:"helper_profile_id"`

	// JSON список скачанных регионов
	DownloadedRegions string `json:"-" db:"downloaded_regions"`

	// Счётчики (кеш, пересчитываются из журнала вкладов)
	TotalContributions int `json:"total_contributions" db:"total_contributions"`
	PlacesAdded        int `json:"places_added" db:"places_added"`
	ConfirmationsMade  int `json:"confirmations_made" db:"confirmations_made"`
	HelpProvided       int `json:"help_provided" db:"help_provided"`

	LastSyncAt        *time.Time `json:"last_sync_at,omitempty" db:"last_sync_at"`
	AutoSync          bool       `json:"auto_sync" db:"auto_sync"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
	AcceptedTermsAt   *time.Time `json:"accepted_terms_at,omitempty" db:"accepted_terms_at"`
	AcceptedPrivacyAt *time.Time `json:"accepted_privacy_at,omitempty" db:"accepted_privacy_at"`
}

// Restriction alert distance limits, km
const (
	AlertDistanceDefaultKm = 5
	AlertDistanceMinKm     = 1
	AlertDistanceMaxKm     = 20
)

// NewLocalUserID генерирует анонимный идентификатор устройства: user_<12 hex>
func NewLocalUserID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "user_" + id[:12]
}

// DefaultUserSettings - строка настроек при первом запуске
func DefaultUserSettings(now time.Time) UserSettings {
	return UserSettings{
		ID:                       SettingsID,
		LocalUserID:              NewLocalUserID(),
		VehicleType:              VehicleCar,
		DarkMode:                 true,
		MapZoomDefault:           12,
		ShowRestrictionsOnMap:    true,
		ShowHelpersOnMap:         true,
		DistanceUnit:             DistanceKilometers,
		NotifyRestrictions:       true,
		RestrictionAlertDistance: AlertDistanceDefaultKm,
		DownloadedRegions:        "[]",
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

// Vehicle возвращает габариты ТС из настроек
func (s UserSettings) Vehicle() VehicleDimensions {
	return VehicleDimensions{
		Height: s.VehicleHeight,
		Width:  s.VehicleWidth,
		Weight: s.VehicleWeight,
		Length: s.VehicleLength,
	}
}

// NeedsRestrictionAlerts - для типа ТС нужны предупреждения об ограничениях
func (s UserSettings) NeedsRestrictionAlerts() bool {
	return NeedsRestrictionAlerts(s.VehicleType)
}

// DisplayName - ник или идентификатор устройства
func (s UserSettings) DisplayName() string {
	if s.Nickname != nil && *s.Nickname != "" {
		return *s.Nickname
	}
	return s.LocalUserID
}

// RegionsList разбирает JSON список скачанных регионов
func (s UserSettings) RegionsList() []string {
	var regions []string
	if err := json.Unmarshal([]byte(s.DownloadedRegions), &regions); err != nil {
		return nil
	}
	return regions
}

// HasRegionDownloaded - регион уже скачан
func (s UserSettings) HasRegionDownloaded(region string) bool {
	return slices.Contains(s.RegionsList(), region)
}

// SetRegions сохраняет список регионов как JSON (отсортированный, без дублей)
func (s *UserSettings) SetRegions(regions []string) {
	clean := slices.Clone(regions)
	slices.Sort(clean)
	clean = slices.Compact(clean)
	if clean == nil {
		clean = []string{}
	}
	data, _ := json.Marshal(clean)
	s.DownloadedRegions = string(data)
}

// HasAcceptedTerms - приняты условия и политика конфиденциальности
func (s UserSettings) HasAcceptedTerms() bool {
	return s.AcceptedTermsAt != nil && s.AcceptedPrivacyAt != nil
}

// ResetCounters обнуляет кеш счётчиков
func (s *UserSettings) ResetCounters() {
	s.TotalContributions = 0
	s.PlacesAdded = 0
	s.ConfirmationsMade = 0
	s.HelpProvided = 0
}

// Distance units
const (
	DistanceKilometers = "km"
	DistanceMiles      = "mi"
)
