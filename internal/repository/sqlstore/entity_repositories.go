package sqlstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	apperrors "github.com/siempreabierto/internal/pkg/errors"
)

type placeRepository struct {
	*table[domain.Place]
}

func newPlaceRepository(c *conn) repository.PlaceRepository {
	return &placeRepository{newTable(c, tablePlaces, func(p *domain.Place, id int64) { p.ID = id })}
}

type restrictionRepository struct {
	*table[domain.Restriction]
}

func newRestrictionRepository(c *conn) repository.RestrictionRepository {
	return &restrictionRepository{newTable(c, tableRestrictions, func(r *domain.Restriction, id int64) { r.ID = id })}
}

type helperRepository struct {
	*table[domain.Helper]
}

func newHelperRepository(c *conn) repository.HelperRepository {
	return &helperRepository{newTable(c, tableHelpers, func(h *domain.Helper, id int64) { h.ID = id })}
}

// GetByLocalUserID возвращает активный профиль помощника устройства
func (r *helperRepository) GetByLocalUserID(ctx context.Context, localUserID string) (*domain.Helper, error) {
	return r.First(ctx, repository.NewQuery(
		repository.Eq("local_user_id", localUserID),
		repository.Eq("is_active", true),
	))
}

type helpRequestRepository struct {
	*table[domain.HelpRequest]
}

func newHelpRequestRepository(c *conn) repository.HelpRequestRepository {
	return &helpRequestRepository{newTable(c, tableHelpRequests, func(r *domain.HelpRequest, id int64) { r.ID = id })}
}

// Transition - условный UPDATE: строка меняется, только если её статус входит в from
func (r *helpRequestRepository) Transition(ctx context.Context, req *domain.HelpRequest, from []domain.HelpStatus) error {
	if len(from) == 0 {
		return apperrors.ErrInvalidTransition
	}

	sets := make([]string, len(r.columns))
	for i, col := range r.columns {
		sets[i] = col + " = :" + col
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ")
	stmt := "UPDATE " + r.name + " SET " + strings.Join(sets, ", ") +
		" WHERE id = :id AND status IN (" + placeholders + ")"

	extra := make([]any, len(from))
	for i, s := range from {
		extra[i] = string(s)
	}

	err := r.execNamed(ctx, "transition", stmt, req, extra...)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrInvalidTransition
	}
	return err
}

type routeRepository struct {
	*table[domain.Route]
}

func newRouteRepository(c *conn) repository.RouteRepository {
	return &routeRepository{newTable(c, tableRoutes, func(r *domain.Route, id int64) { r.ID = id })}
}

// IncrementUsage увеличивает usage_count и обновляет last_used_at
func (r *routeRepository) IncrementUsage(ctx context.Context, id int64, at time.Time) error {
	affected, err := r.exec(ctx, "increment usage",
		"UPDATE routes SET usage_count = usage_count + 1, last_used_at = ? WHERE id = ?", at, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrRouteNotFound
	}
	return nil
}

type settingsRepository struct {
	*table[domain.UserSettings]
}

func newSettingsRepository(c *conn) repository.SettingsRepository {
	return &settingsRepository{newTable(c, tableSettings, func(s *domain.UserSettings, id int64) { s.ID = int(id) })}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.UserSettings, error) {
	return r.GetByID(ctx, domain.SettingsID)
}

// CreateIfAbsent вставляет строку настроек с id = 1, если её еще нет
func (r *settingsRepository) CreateIfAbsent(ctx context.Context, settings *domain.UserSettings) (bool, error) {
	settings.ID = domain.SettingsID

	cols := append([]string{"id"}, r.columns...)
	params := make([]string, len(cols))
	for i, col := range cols {
		params[i] = ":" + col
	}
	stmt := "INSERT INTO " + r.name + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.Join(params, ", ") + ") ON CONFLICT (id) DO NOTHING"

	query, args, err := sqlx.Named(stmt, settings)
	if err != nil {
		return false, r.dbError("create", err)
	}
	affected, err := r.exec(ctx, "create", query, args...)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *settingsRepository) Update(ctx context.Context, settings *domain.UserSettings) error {
	settings.ID = domain.SettingsID
	err := r.table.Update(ctx, settings)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrSettingsNotInitialized
	}
	return err
}

// AddCounters атомарно прибавляет delta к счётчикам вклада
func (r *settingsRepository) AddCounters(ctx context.Context, delta repository.CounterDelta, at time.Time) error {
	if delta.IsZero() {
		return nil
	}
	affected, err := r.exec(ctx, "add counters",
		`UPDATE user_settings SET
			total_contributions = total_contributions + ?,
			places_added = places_added + ?,
			confirmations_made = confirmations_made + ?,
			help_provided = help_provided + ?,
			updated_at = ?
		WHERE id = ?`,
		delta.Total, delta.PlacesAdded, delta.ConfirmationsMade, delta.HelpProvided, at, domain.SettingsID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrSettingsNotInitialized
	}
	return nil
}
