package domain

import (
	"slices"
	"time"
)

// HelpStatus - состояние запроса помощи
type HelpStatus string

const (
	HelpStatusPending   HelpStatus = "pending"
	HelpStatusAccepted  HelpStatus = "accepted"
	HelpStatusCompleted HelpStatus = "completed"
	HelpStatusCancelled HelpStatus = "cancelled"
)

// transitions: pending → accepted → completed, cancelled из pending/accepted
var transitions = map[HelpStatus][]HelpStatus{
	HelpStatusPending:  {HelpStatusAccepted, HelpStatusCancelled},
	HelpStatusAccepted: {HelpStatusCompleted, HelpStatusCancelled},
}

// CanTransitionTo проверяет допустимость перехода
func (s HelpStatus) CanTransitionTo(next HelpStatus) bool {
	return slices.Contains(transitions[s], next)
}

// IsTerminal - completed и cancelled конечные
func (s HelpStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// SourcesFor возвращает статусы, из которых можно перейти в next
func SourcesFor(next HelpStatus) []HelpStatus {
	var out []HelpStatus
	for from, tos := range transitions {
		if slices.Contains(tos, next) {
			out = append(out, from)
		}
	}
	slices.Sort(out)
	return out
}

// HelpRequest - активный запрос помощи на дороге
type HelpRequest struct {
	ID                  int64   `json:"id" db:"id"`
	RequesterID         string  `json:"requester_id" db:"requester_id"`
	RequesterName       *string `json:"requester_name,omitempty" db:"requester_name"`
	RequesterPhone      *string `json:"requester_phone,omitempty" db:"requester_phone"`
	Latitude            float64 `json:"latitude" db:"latitude"`
	Longitude           float64 `json:"longitude" db:"longitude"`
	LocationDescription *string `json:"location_description,omitempty" db:"location_description"`
	ProblemType         string  `json:"problem_type" db:"problem_type"`
	ProblemDescription  *string `json:"problem_description,omitempty" db:"problem_description"`
	VehicleType         *string `json:"vehicle_type,omitempty" db:"vehicle_type"`
	VehicleDescription  *string `json:"vehicle_description,omitempty" db:"vehicle_description"`

	Status     HelpStatus `json:"status" db:"status"`
	HelperID   *int64     `json:"helper_id,omitempty" db:"helper_id"`
	HelperName *string    `json:"helper_name,omitempty" db:"helper_name"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	// Оценка после завершения
	WasHelpful *bool   `json:"was_helpful,omitempty" db:"was_helpful"`
	Rating     *int    `json:"rating,omitempty" db:"rating"`
	Feedback   *string `json:"feedback,omitempty" db:"feedback"`
}

// Coordinates реализует geo.Locatable
func (r HelpRequest) Coordinates() (float64, float64) {
	return r.Latitude, r.Longitude
}

// Emergency problem types
const (
	ProblemBattery     = "battery"
	ProblemFlatTire    = "flat_tire"
	ProblemWontStart   = "wont_start"
	ProblemOverheating = "overheating"
	ProblemBrakes      = "brakes"
	ProblemFuel        = "fuel"
	ProblemLocked      = "locked"
	ProblemOther       = "other"
)

var ProblemTypes = []Category{
	{ProblemBattery, "Batería descargada"},
	{ProblemFlatTire, "Pinchazo"},
	{ProblemWontStart, "No arranca"},
	{ProblemOverheating, "Sobrecalentamiento"},
	{ProblemBrakes, "Problema de frenos"},
	{ProblemFuel, "Sin combustible"},
	{ProblemLocked, "Llaves dentro"},
	{ProblemOther, "Otro problema"},
}

// SuggestedHelpType - тип помощи, подходящий для проблемы
func SuggestedHelpType(problem string) string {
	switch problem {
	case ProblemBattery, ProblemWontStart:
		return HelpJumpStart
	case ProblemFlatTire:
		return HelpFlatTire
	case ProblemFuel:
		return HelpFuel
	case ProblemLocked, ProblemBrakes, ProblemOverheating:
		return HelpCallHelp
	default:
		return ""
	}
}
