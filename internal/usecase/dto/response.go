package dto

import (
	"time"

	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/pkg/geo"
)

// NearbyResponse - результат поиска в радиусе, отсортированный по расстоянию
type NearbyResponse[T any] struct {
	Items    []T          `json:"items"`
	Total    int          `json:"total"`
	Center   domain.Point `json:"center"`
	RadiusKm float64      `json:"radius_km"`
}

// ListResponse - простой список
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NewListResponse оборачивает срез; nil превращается в пустой список
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}

// PlaceResult - место с расстоянием и признаком "нужна проверка"
type PlaceResult struct {
	domain.Place
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	DistanceText string   `json:"distance_text,omitempty"`
	NeedsReview  bool     `json:"needs_review"`
}

func NewPlaceResult(p domain.Place, distanceKm *float64) PlaceResult {
	r := PlaceResult{Place: p, DistanceKm: distanceKm, NeedsReview: p.NeedsReview()}
	if distanceKm != nil {
		r.DistanceText = geo.FormatDistance(*distanceKm)
	}
	return r
}

// RestrictionResult - ограничение с текстом лимитов
type RestrictionResult struct {
	domain.Restriction
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	DistanceText string   `json:"distance_text,omitempty"`
	LimitsText   string   `json:"limits_text"`
	NeedsReview  bool     `json:"needs_review"`
}

func NewRestrictionResult(r domain.Restriction, distanceKm *float64) RestrictionResult {
	res := RestrictionResult{
		Restriction: r,
		DistanceKm:  distanceKm,
		LimitsText:  r.LimitsText(),
		NeedsReview: r.NeedsReview(),
	}
	if distanceKm != nil {
		res.DistanceText = geo.FormatDistance(*distanceKm)
	}
	return res
}

// HelperResult - публичный вид профиля помощника: телефон только если он разрешён
type HelperResult struct {
	domain.Helper
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	DistanceText string   `json:"distance_text,omitempty"`
	ETAMinutes   *int     `json:"eta_minutes,omitempty"`
	HelpTypes    []string `json:"help_types"`
}

func NewHelperResult(h domain.Helper, distanceKm *float64, speedKmh float64) HelperResult {
	h.Phone = h.PublicPhone()
	res := HelperResult{Helper: h, DistanceKm: distanceKm, HelpTypes: h.HelpTypesList()}
	if res.HelpTypes == nil {
		res.HelpTypes = []string{}
	}
	if distanceKm != nil {
		res.DistanceText = geo.FormatDistance(*distanceKm)
		eta := geo.ETAMinutes(*distanceKm, speedKmh)
		res.ETAMinutes = &eta
	}
	return res
}

// HelpRequestResult - запрос помощи с расстоянием и рекомендуемым типом помощи
type HelpRequestResult struct {
	domain.HelpRequest
	DistanceKm        *float64 `json:"distance_km,omitempty"`
	SuggestedHelpType string   `json:"suggested_help_type,omitempty"`
}

func NewHelpRequestResult(r domain.HelpRequest, distanceKm *float64) HelpRequestResult {
	return HelpRequestResult{
		HelpRequest:       r,
		DistanceKm:        distanceKm,
		SuggestedHelpType: domain.SuggestedHelpType(r.ProblemType),
	}
}

// RouteResult - маршрут с балансом голосов
type RouteResult struct {
	domain.Route
	Score        int      `json:"score"`
	ETAText      string   `json:"eta_text"`
	DistanceKmTo *float64 `json:"distance_km_to_origin,omitempty"`
}

func NewRouteResult(r domain.Route, distanceKm *float64) RouteResult {
	if r.Waypoints == nil {
		r.Waypoints = []domain.Point{}
	}
	return RouteResult{
		Route:        r,
		Score:        r.Score(),
		ETAText:      geo.FormatETA(r.EstimatedMinutes),
		DistanceKmTo: distanceKm,
	}
}

// AlertsResponse - ограничения, которые ТС не проходит
type AlertsResponse struct {
	Alerts   []domain.RestrictionAlert `json:"alerts"`
	Total    int                       `json:"total"`
	Vehicle  domain.VehicleDimensions  `json:"vehicle"`
	RadiusKm float64                   `json:"radius_km"`
}

// SyncResult - итог синхронизации журнала
type SyncResult struct {
	Synced       int64      `json:"synced"`
	Batches      int        `json:"batches"`
	StreamIDs    []string   `json:"stream_ids,omitempty"`
	StreamLength int64      `json:"stream_length,omitempty"`
	Remote       bool       `json:"remote"`
	SyncedAt     *time.Time `json:"synced_at,omitempty"`
}

// CreatedResponse - ID новой записи
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// LedgerStats - агрегаты журнала вкладов
type LedgerStats struct {
	Total        int64                       `json:"total"`
	ByAction     map[domain.Action]int64     `json:"by_action"`
	ByTargetType map[domain.TargetType]int64 `json:"by_target_type"`
	Contributors int64                       `json:"contributors"`
	Unsynced     int64                       `json:"unsynced"`
}
