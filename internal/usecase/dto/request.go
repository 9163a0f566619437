package dto

import "encoding/json"

// ActorRequest - кто совершает изменение. Пустой user_id - локальный пользователь устройства.
type ActorRequest struct {
	UserID   string `json:"user_id" validate:"omitempty,max=64"`
	UserName string `json:"user_name" validate:"omitempty,max=60"`
}

// NearbyRequest - поиск в радиусе от точки
type NearbyRequest struct {
	Lat      *float64 `json:"lat" query:"lat" validate:"required,latitude"`
	Lon      *float64 `json:"lon" query:"lon" validate:"required,longitude"`
	RadiusKm float64  `json:"radius_km" query:"radius_km" validate:"omitempty,gt=0,max=500"`
	Limit    int      `json:"limit" query:"limit" validate:"omitempty,min=1,max=500"`
}

// NearbyPlacesRequest - поиск мест рядом
type NearbyPlacesRequest struct {
	NearbyRequest
	Category      string `json:"category" query:"category" validate:"omitempty,category"`
	Only24h       bool   `json:"only_24h" query:"only_24h"`
	TruckFriendly bool   `json:"truck_friendly" query:"truck_friendly"`
}

// SearchPlacesRequest - поиск мест по тексту (название, город, адрес)
type SearchPlacesRequest struct {
	Query    string `json:"q" query:"q" validate:"required,min=2,max=100"`
	Category string `json:"category" query:"category" validate:"omitempty,category"`
	Limit    int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=500"`
}

// CreatePlaceRequest - новое место сообщества
type CreatePlaceRequest struct {
	ActorRequest
	Name        string   `json:"name" validate:"required,min=2,max=120"`
	Category    string   `json:"category" validate:"required,category"`
	Subcategory *string  `json:"subcategory,omitempty" validate:"omitempty,max=60"`
	Lat         *float64 `json:"lat" validate:"required,latitude"`
	Lon         *float64 `json:"lon" validate:"required,longitude"`
	Address     *string  `json:"address,omitempty" validate:"omitempty,max=200"`
	City        *string  `json:"city,omitempty" validate:"omitempty,max=80"`
	Province    *string  `json:"province,omitempty" validate:"omitempty,max=80"`
	Region      string   `json:"region,omitempty" validate:"omitempty,region"`
	Phone       *string  `json:"phone,omitempty" validate:"omitempty,max=30"`
	Phone2      *string  `json:"phone2,omitempty" validate:"omitempty,max=30"`
	Schedule    *string  `json:"schedule,omitempty" validate:"omitempty,max=200"`
	Is24h       bool     `json:"is_24h"`
	UsuallyOpen *string  `json:"usually_open,omitempty" validate:"omitempty,max=200"`
	FitsTrailer *bool    `json:"fits_trailer,omitempty"`
	FitsBus     *bool    `json:"fits_bus,omitempty"`
	FitsTruck   *bool    `json:"fits_truck,omitempty"`
	MaxHeight   *float64 `json:"max_height,omitempty" validate:"omitempty,gt=0,lte=10"`
	MaxWidth    *float64 `json:"max_width,omitempty" validate:"omitempty,gt=0,lte=10"`
	MaxWeight   *float64 `json:"max_weight,omitempty" validate:"omitempty,gt=0,lte=100"`
	PriceRange  *string  `json:"price_range,omitempty" validate:"omitempty,max=20"`
	Services    []string `json:"services,omitempty" validate:"omitempty,max=30,dive,max=40"`
	Notes       *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Source      string   `json:"source,omitempty" validate:"omitempty,oneof=community business import"`
}

// UpdatePlaceRequest - частичное изменение места; nil поля не меняются
type UpdatePlaceRequest struct {
	ActorRequest
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,category"`
	Subcategory *string   `json:"subcategory,omitempty" validate:"omitempty,max=60"`
	Address     *string   `json:"address,omitempty" validate:"omitempty,max=200"`
	City        *string   `json:"city,omitempty" validate:"omitempty,max=80"`
	Province    *string   `json:"province,omitempty" validate:"omitempty,max=80"`
	Phone       *string   `json:"phone,omitempty" validate:"omitempty,max=30"`
	Phone2      *string   `json:"phone2,omitempty" validate:"omitempty,max=30"`
	Schedule    *string   `json:"schedule,omitempty" validate:"omitempty,max=200"`
	Is24h       *bool     `json:"is_24h,omitempty"`
	UsuallyOpen *string   `json:"usually_open,omitempty" validate:"omitempty,max=200"`
	FitsTrailer *bool     `json:"fits_trailer,omitempty"`
	FitsBus     *bool     `json:"fits_bus,omitempty"`
	FitsTruck   *bool     `json:"fits_truck,omitempty"`
	MaxHeight   *float64  `json:"max_height,omitempty" validate:"omitempty,gt=0,lte=10"`
	MaxWidth    *float64  `json:"max_width,omitempty" validate:"omitempty,gt=0,lte=10"`
	MaxWeight   *float64  `json:"max_weight,omitempty" validate:"omitempty,gt=0,lte=100"`
	PriceRange  *string   `json:"price_range,omitempty" validate:"omitempty,max=20"`
	Services    *[]string `json:"services,omitempty" validate:"omitempty,max=30"`
	Notes       *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ReportRequest - жалоба на неверные данные
type ReportRequest struct {
	ActorRequest
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// DeactivateRequest - мягкое удаление с причиной
type DeactivateRequest struct {
	ActorRequest
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// CreateRestrictionRequest - новое дорожное ограничение; нужен хотя бы один лимит (проверяется в use case)
type CreateRestrictionRequest struct {
	ActorRequest
	Name             string   `json:"name" validate:"required,min=2,max=120"`
	Type             string   `json:"type" validate:"required,restriction_type"`
	Lat              *float64 `json:"lat" validate:"required,latitude"`
	Lon              *float64 `json:"lon" validate:"required,longitude"`
	Description      *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	RoadName         *string  `json:"road_name,omitempty" validate:"omitempty,max=60"`
	KmPoint          *string  `json:"km_point,omitempty" validate:"omitempty,max=20"`
	MaxHeight        *float64 `json:"max_height,omitempty" validate:"omitempty,gt=0,lte=10"`
	MaxWidth         *float64 `json:"max_width,omitempty" validate:"omitempty,gt=0,lte=10"`
	MaxWeight        *float64 `json:"max_weight,omitempty" validate:"omitempty,gt=0,lte=100"`
	MaxLength        *float64 `json:"max_length,omitempty" validate:"omitempty,gt=0,lte=50"`
	Direction        *string  `json:"direction,omitempty" validate:"omitempty,max=60"`
	AlternativeRoute *string  `json:"alternative_route,omitempty" validate:"omitempty,max=500"`
	Notes            *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
	City             *string  `json:"city,omitempty" validate:"omitempty,max=80"`
	Province         *string  `json:"province,omitempty" validate:"omitempty,max=80"`
	Region           string   `json:"region,omitempty" validate:"omitempty,region"`
	Source           string   `json:"source,omitempty" validate:"omitempty,oneof=community official import"`
}

// UpdateRestrictionRequest - частичное изменение ограничения
type UpdateRestrictionRequest struct {
	ActorRequest
	Name             *string  `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Type             *string  `json:"type,omitempty" validate:"omitempty,restriction_type"`
	Description      *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	RoadName         *string  `json:"road_name,omitempty" validate:"omitempty,max=60"`
	KmPoint          *string  `json:"km_point,omitempty" validate:"omitempty,max=20"`
	MaxHeight        *float64 `json:"max_height,omitempty" validate:"omitempty,gt=0,lte=10"`
	MaxWidth         *float64 `json:"max_width,omitempty" validate:"omitempty,gt=0,lte=10"`
	MaxWeight        *float64 `json:"max_weight,omitempty" validate:"omitempty,gt=0,lte=100"`
	MaxLength        *float64 `json:"max_length,omitempty" validate:"omitempty,gt=0,lte=50"`
	Direction        *string  `json:"direction,omitempty" validate:"omitempty,max=60"`
	AlternativeRoute *string  `json:"alternative_route,omitempty" validate:"omitempty,max=500"`
	Notes            *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// NearbyRestrictionsRequest - ограничения рядом
type NearbyRestrictionsRequest struct {
	NearbyRequest
	Type string `json:"type" query:"type" validate:"omitempty,restriction_type"`
}

// AlertRequest - проверка ограничений для габаритов ТС.
// Если габариты не заданы, используются габариты из настроек.
type AlertRequest struct {
	Lat      *float64 `json:"lat" query:"lat" validate:"required,latitude"`
	Lon      *float64 `json:"lon" query:"lon" validate:"required,longitude"`
	RadiusKm float64  `json:"radius_km" query:"radius_km" validate:"omitempty,gt=0,max=100"`
	Height   *float64 `json:"height,omitempty" query:"height" validate:"omitempty,gt=0,lte=10"`
	Width    *float64 `json:"width,omitempty" query:"width" validate:"omitempty,gt=0,lte=10"`
	Weight   *float64 `json:"weight,omitempty" query:"weight" validate:"omitempty,gt=0,lte=100"`
	Length   *float64 `json:"length,omitempty" query:"length" validate:"omitempty,gt=0,lte=50"`
}

// RegisterHelperRequest - профиль помощника устройства
type RegisterHelperRequest struct {
	ActorRequest
	Nickname          string   `json:"nickname" validate:"required,min=2,max=40"`
	Lat               *float64 `json:"lat" validate:"required,latitude"`
	Lon               *float64 `json:"lon" validate:"required,longitude"`
	City              *string  `json:"city,omitempty" validate:"omitempty,max=80"`
	Province          *string  `json:"province,omitempty" validate:"omitempty,max=80"`
	Region            string   `json:"region,omitempty" validate:"omitempty,region"`
	CoverageRadiusKm  int      `json:"coverage_radius_km" validate:"omitempty,min=5,max=50"`
	Phone             *string  `json:"phone,omitempty" validate:"omitempty,max=30"`
	PhoneVisible      bool     `json:"phone_visible"`
	ContactNotes      *string  `json:"contact_notes,omitempty" validate:"omitempty,max=500"`
	VehicleType       string   `json:"vehicle_type" validate:"omitempty,vehicle_type"`
	CanHelpWith       []string `json:"can_help_with" validate:"required,min=1,dive,required,max=40"`
	HasTools          bool     `json:"has_tools"`
	HasJumpCables     bool     `json:"has_jump_cables"`
	HasTowRope        bool     `json:"has_tow_rope"`
	HasCompressor     bool     `json:"has_compressor"`
	AvailableSchedule *string  `json:"available_schedule,omitempty" validate:"omitempty,max=200"`
	AvailableNotes    *string  `json:"available_notes,omitempty" validate:"omitempty,max=500"`
}

// UpdateHelperRequest - частичное изменение профиля помощника
type UpdateHelperRequest struct {
	ActorRequest
	Nickname          *string   `json:"nickname,omitempty" validate:"omitempty,min=2,max=40"`
	Lat               *float64  `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lon               *float64  `json:"lon,omitempty" validate:"omitempty,longitude"`
	CoverageRadiusKm  *int      `json:"coverage_radius_km,omitempty" validate:"omitempty,min=5,max=50"`
	Phone             *string   `json:"phone,omitempty" validate:"omitempty,max=30"`
	PhoneVisible      *bool     `json:"phone_visible,omitempty"`
	ContactNotes      *string   `json:"contact_notes,omitempty" validate:"omitempty,max=500"`
	CanHelpWith       *[]string `json:"can_help_with,omitempty" validate:"omitempty,min=1"`
	HasTools          *bool     `json:"has_tools,omitempty"`
	HasJumpCables     *bool     `json:"has_jump_cables,omitempty"`
	HasTowRope        *bool     `json:"has_tow_rope,omitempty"`
	HasCompressor     *bool     `json:"has_compressor,omitempty"`
	AvailableSchedule *string   `json:"available_schedule,omitempty" validate:"omitempty,max=200"`
	AvailableNotes    *string   `json:"available_notes,omitempty" validate:"omitempty,max=500"`
}

// AvailabilityRequest - переключение доступности помощника
type AvailabilityRequest struct {
	ActorRequest
	Available bool `json:"available"`
}

// NearbyHelpersRequest - доступные помощники, покрывающие точку
type NearbyHelpersRequest struct {
	NearbyRequest
	HelpType string `json:"help_type" query:"help_type" validate:"omitempty,max=40"`
}

// CreateHelpRequestRequest - запрос помощи на дороге
type CreateHelpRequestRequest struct {
	RequesterID         string   `json:"requester_id" validate:"omitempty,max=64"`
	RequesterName       *string  `json:"requester_name,omitempty" validate:"omitempty,max=60"`
	RequesterPhone      *string  `json:"requester_phone,omitempty" validate:"omitempty,max=30"`
	Lat                 *float64 `json:"lat" validate:"required,latitude"`
	Lon                 *float64 `json:"lon" validate:"required,longitude"`
	LocationDescription string   `json:"location_description" validate:"required,public_location"`
	ProblemType         string   `json:"problem_type" validate:"required,oneof=battery flat_tire wont_start overheating brakes fuel locked other"`
	ProblemDescription  *string  `json:"problem_description,omitempty" validate:"omitempty,max=1000,no_private_address"`
	VehicleType         *string  `json:"vehicle_type,omitempty" validate:"omitempty,vehicle_type"`
	VehicleDescription  *string  `json:"vehicle_description,omitempty" validate:"omitempty,max=200"`
}

// AcceptHelpRequest - помощник берёт запрос
type AcceptHelpRequest struct {
	HelperID int64 `json:"helper_id" validate:"required,gt=0"`
}

// CompleteHelpRequest - завершение с необязательной оценкой помощника
type CompleteHelpRequest struct {
	WasHelpful *bool   `json:"was_helpful,omitempty"`
	Rating     *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Feedback   *string `json:"feedback,omitempty" validate:"omitempty,max=1000"`
}

// CreateRouteRequest - сохранение маршрута. Геометрия - GeoJSON LineString.
type CreateRouteRequest struct {
	ActorRequest
	Name                  string          `json:"name" validate:"required,min=2,max=120"`
	Description           *string         `json:"description,omitempty" validate:"omitempty,max=1000"`
	Geometry              json.RawMessage `json:"geometry,omitempty" swaggertype:"object"`
	OriginName            string          `json:"origin_name" validate:"required,max=120"`
	OriginLat             float64         `json:"origin_lat" validate:"omitempty,latitude"`
	OriginLon             float64         `json:"origin_lon" validate:"omitempty,longitude"`
	DestinationName       string          `json:"destination_name" validate:"required,max=120"`
	DestinationLat        float64         `json:"destination_lat" validate:"omitempty,latitude"`
	DestinationLon        float64         `json:"destination_lon" validate:"omitempty,longitude"`
	DistanceKm            float64         `json:"distance_km" validate:"omitempty,gt=0"`
	EstimatedMinutes      int             `json:"estimated_minutes" validate:"omitempty,gt=0"`
	TollRoads             bool            `json:"toll_roads"`
	TollCost              *float64        `json:"toll_cost,omitempty" validate:"omitempty,gte=0"`
	VehicleType           string          `json:"vehicle_type" validate:"omitempty,oneof=car truck bus camper any"`
	SuitableForTruck      bool            `json:"suitable_for_truck"`
	SuitableForBus        bool            `json:"suitable_for_bus"`
	SuitableForCamper     bool            `json:"suitable_for_camper"`
	HasHeightRestrictions bool            `json:"has_height_restrictions"`
	MinHeightOnRoute      *float64        `json:"min_height_on_route,omitempty" validate:"omitempty,gt=0"`
	HasWeightRestrictions bool            `json:"has_weight_restrictions"`
	MaxWeightOnRoute      *float64        `json:"max_weight_on_route,omitempty" validate:"omitempty,gt=0"`
	RestrictionNotes      *string         `json:"restriction_notes,omitempty" validate:"omitempty,max=1000"`
	IsPublic              bool            `json:"is_public"`
	CommunityNotes        *string         `json:"community_notes,omitempty" validate:"omitempty,max=1000"`
}

// RouteFilter - выборка маршрутов
type RouteFilter struct {
	VehicleType   string `query:"vehicle_type" validate:"omitempty,oneof=car truck bus camper any"`
	PublicOnly    bool   `query:"public"`
	FavoritesOnly bool   `query:"favorites"`
	Region        string `query:"region" validate:"omitempty,region"`
	Limit         int    `query:"limit" validate:"omitempty,min=1,max=500"`
}

// VoteRequest - голос за маршрут
type VoteRequest struct {
	ActorRequest
	Up bool `json:"up"`
}

// UpdateVehicleRequest - профиль ТС в настройках.
// Незаданные габариты берутся из типового профиля.
type UpdateVehicleRequest struct {
	VehicleType        string   `json:"vehicle_type" validate:"required,vehicle_type"`
	Height             *float64 `json:"height,omitempty" validate:"omitempty,gt=0,lte=10"`
	Width              *float64 `json:"width,omitempty" validate:"omitempty,gt=0,lte=10"`
	Weight             *float64 `json:"weight,omitempty" validate:"omitempty,gt=0,lte=100"`
	Length             *float64 `json:"length,omitempty" validate:"omitempty,gt=0,lte=50"`
	VehiclePlate       *string  `json:"vehicle_plate,omitempty" validate:"omitempty,max=20"`
	VehicleDescription *string  `json:"vehicle_description,omitempty" validate:"omitempty,max=200"`
}

// UpdatePreferencesRequest - настройки отображения и уведомлений; nil поля не меняются
type UpdatePreferencesRequest struct {
	Nickname                 *string  `json:"nickname,omitempty" validate:"omitempty,min=2,max=40"`
	DarkMode                 *bool    `json:"dark_mode,omitempty"`
	MapZoomDefault           *float64 `json:"map_zoom_default,omitempty" validate:"omitempty,min=1,max=20"`
	ShowRestrictionsOnMap    *bool    `json:"show_restrictions_on_map,omitempty"`
	ShowHelpersOnMap         *bool    `json:"show_helpers_on_map,omitempty"`
	DistanceUnit             *string  `json:"distance_unit,omitempty" validate:"omitempty,oneof=km mi"`
	AvoidTolls               *bool    `json:"avoid_tolls,omitempty"`
	AvoidHighways            *bool    `json:"avoid_highways,omitempty"`
	PreferTruckRoutes        *bool    `json:"prefer_truck_routes,omitempty"`
	NotifyRestrictions       *bool    `json:"notify_restrictions,omitempty"`
	NotifyNearbyHelpers      *bool    `json:"notify_nearby_helpers,omitempty"`
	RestrictionAlertDistance *int     `json:"restriction_alert_distance,omitempty" validate:"omitempty,min=1,max=20"`
	AutoSync                 *bool    `json:"auto_sync,omitempty"`
}

// RegionRequest - код региона для скачивания/удаления
type RegionRequest struct {
	Region string `json:"region" validate:"required,region"`
}
