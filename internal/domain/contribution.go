package domain

import (
	"fmt"
	"time"
)

// TargetType - тип сущности, к которой относится вклад
type TargetType string

const (
	TargetPlace       TargetType = "place"
	TargetRestriction TargetType = "restriction"
	TargetRoute       TargetType = "route"
	TargetHelper      TargetType = "helper"
)

// TargetTypes - все типы целей
var TargetTypes = []TargetType{TargetPlace, TargetRestriction, TargetRoute, TargetHelper}

// Target - ключ цели вклада: PlaceRef, RestrictionRef, RouteRef или HelperRef.
// Закрытый интерфейс: других реализаций быть не может.
type Target interface {
	Type() TargetType
	ID() int64
	target()
}

type PlaceRef struct{ PlaceID int64 }
type RestrictionRef struct{ RestrictionID int64 }
type RouteRef struct{ RouteID int64 }
type HelperRef struct{ HelperID int64 }

func (PlaceRef) Type() TargetType       { return TargetPlace }
func (r PlaceRef) ID() int64            { return r.PlaceID }
func (PlaceRef) target()                {}
func (RestrictionRef) Type() TargetType { return TargetRestriction }
func (r RestrictionRef) ID() int64      { return r.RestrictionID }
func (RestrictionRef) target()          {}
func (RouteRef) Type() TargetType       { return TargetRoute }
func (r RouteRef) ID() int64            { return r.RouteID }
func (RouteRef) target()                {}
func (HelperRef) Type() TargetType      { return TargetHelper }
func (r HelperRef) ID() int64           { return r.HelperID }
func (HelperRef) target()               {}

// NewTarget собирает ключ цели из пары (type, id), пришедшей из БД или запроса
func NewTarget(t TargetType, id int64) (Target, error) {
	switch t {
	case TargetPlace:
		return PlaceRef{id}, nil
	case TargetRestriction:
		return RestrictionRef{id}, nil
	case TargetRoute:
		return RouteRef{id}, nil
	case TargetHelper:
		return HelperRef{id}, nil
	default:
		return nil, fmt.Errorf("unknown target type %q", t)
	}
}

// Action - вид действия в журнале
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionConfirm  Action = "confirm"
	ActionReport   Action = "report"
	ActionDelete   Action = "delete"
	ActionUpvote   Action = "upvote"
	ActionDownvote Action = "downvote"
)

var Actions = []Action{ActionCreate, ActionUpdate, ActionConfirm, ActionReport, ActionDelete, ActionUpvote, ActionDownvote}

// IsValidAction проверяет вид действия
func IsValidAction(a Action) bool {
	for _, v := range Actions {
		if v == a {
			return true
		}
	}
	return false
}

// Contribution - неизменяемая запись журнала вкладов.
// Меняется только флаг синхронизации; удаляется только полной очисткой.
type Contribution struct {
	ID           int64      `json:"id" db:"id"`
	TargetType   TargetType `json:"target_type" db:"target_type"`
	TargetID     int64      `json:"target_id" db:"target_id"`
	TargetName   *string    `json:"target_name,omitempty" db:"target_name"`
	Action       Action     `json:"action" db:"action"`
	FieldChanged *string    `json:"field_changed,omitempty" db:"field_changed"`
	OldValue     *string    `json:"old_value,omitempty" db:"old_value"`
	NewValue     *string    `json:"new_value,omitempty" db:"new_value"`
	Notes        *string    `json:"notes,omitempty" db:"notes"`
	UserID       string     `json:"user_id" db:"user_id"`
	UserName     *string    `json:"user_name,omitempty" db:"user_name"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	IsSynced     bool       `json:"is_synced" db:"is_synced"`
	SyncedAt     *time.Time `json:"synced_at,omitempty" db:"synced_at"`
}

// Target возвращает ключ цели записи
func (c Contribution) Target() (Target, error) {
	return NewTarget(c.TargetType, c.TargetID)
}

// Actor - кто совершает изменение
type Actor struct {
	UserID   string  `json:"user_id"`
	UserName *string `json:"user_name,omitempty"`
}

// FieldChange - изменение одного поля
type FieldChange struct {
	Field    string
	OldValue *string
	NewValue *string
}

// ContributionEntry - входные данные для записи в журнал
type ContributionEntry struct {
	Target     Target
	TargetName string
	Action     Action
	Actor      Actor
	Change     *FieldChange
	Notes      string
}

// ToContribution собирает запись журнала
func (e ContributionEntry) ToContribution(now time.Time) Contribution {
	c := Contribution{
		TargetType: e.Target.Type(),
		TargetID:   e.Target.ID(),
		Action:     e.Action,
		UserID:     e.Actor.UserID,
		UserName:   e.Actor.UserName,
		CreatedAt:  now,
	}
	if e.TargetName != "" {
		name := e.TargetName
		c.TargetName = &name
	}
	if e.Change != nil {
		field := e.Change.Field
		c.FieldChanged = &field
		c.OldValue = e.Change.OldValue
		c.NewValue = e.Change.NewValue
	}
	if e.Notes != "" {
		notes := e.Notes
		c.Notes = &notes
	}
	return c
}

// ContributionFilter - фильтр для подсчётов и выборок по журналу.
// Пустые поля не участвуют в фильтре.
type ContributionFilter struct {
	UserID     string
	Action     Action
	TargetType TargetType
	Field      string
	Since      *time.Time
}

// ContributionSummary - сводка вкладов пользователя
type ContributionSummary struct {
	UserID             string           `json:"user_id"`
	Total              int64            `json:"total"`
	ByAction           map[Action]int64 `json:"by_action"`
	PlacesAdded        int64            `json:"places_added"`
	RestrictionsAdded  int64            `json:"restrictions_added"`
	LastContributionAt *time.Time       `json:"last_contribution_at,omitempty"`
}
