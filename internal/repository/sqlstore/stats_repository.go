package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/siempreabierto/internal/domain"
	"go.uber.org/zap"
)

type statsRepository struct {
	conn          *conn
	contributions *contributionRepository
	logger        *zap.Logger
}

func newStatsRepository(c *conn) *statsRepository {
	return &statsRepository{
		conn:          c,
		contributions: newContributionRepository(c),
		logger:        c.logger,
	}
}

// GetStatistics возвращает агрегированную статистику по всем данным
func (r *statsRepository) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	stats := &domain.Statistics{
		LastUpdated: time.Now().UTC(),
	}

	// Получаем статистику по местам
	placeStats, err := r.getPlaceStats(ctx)
	if err != nil {
		r.logger.Error("failed to get place stats", zap.Error(err))
		return nil, fmt.Errorf("get place stats: %w", err)
	}
	stats.Places = *placeStats

	// Получаем статистику по ограничениям
	restrictionStats, err := r.getRestrictionStats(ctx)
	if err != nil {
		r.logger.Error("failed to get restriction stats", zap.Error(err))
		return nil, fmt.Errorf("get restriction stats: %w", err)
	}
	stats.Restrictions = *restrictionStats

	// Получаем статистику по помощникам и запросам помощи
	helperStats, err := r.getHelperStats(ctx)
	if err != nil {
		r.logger.Error("failed to get helper stats", zap.Error(err))
		return nil, fmt.Errorf("get helper stats: %w", err)
	}
	stats.Helpers = *helperStats

	routeStats, err := r.getRouteStats(ctx)
	if err != nil {
		r.logger.Error("failed to get route stats", zap.Error(err))
		return nil, fmt.Errorf("get route stats: %w", err)
	}
	stats.Routes = *routeStats

	// Журнал вкладов
	contributionStats, err := r.getContributionStats(ctx, stats.LastUpdated)
	if err != nil {
		r.logger.Error("failed to get contribution stats", zap.Error(err))
		return nil, fmt.Errorf("get contribution stats: %w", err)
	}
	stats.Contributions = *contributionStats

	return stats, nil
}

func (r *statsRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.conn.ext, &n, r.conn.ext.Rebind(query), args...); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *statsRepository) groupBy(ctx context.Context, query string, args ...any) (map[string]int, error) {
	rows, err := r.conn.ext.QueryxContext(ctx, r.conn.ext.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out[key] = count
	}
	return out, rows.Err()
}

// getPlaceStats получает статистику по активным местам
func (r *statsRepository) getPlaceStats(ctx context.Context) (*domain.PlaceStats, error) {
	stats := &domain.PlaceStats{}
	var err error

	if stats.TotalActive, err = r.count(ctx, `SELECT COUNT(*) FROM places WHERE is_active = ?`, true); err != nil {
		return nil, err
	}
	if stats.Open24h, err = r.count(ctx, `SELECT COUNT(*) FROM places WHERE is_active = ? AND is_24h = ?`, true, true); err != nil {
		return nil, err
	}
	if stats.NeedsReview, err = r.count(ctx,
		`SELECT COUNT(*) FROM places WHERE is_active = ? AND report_count >= ?`, true, domain.ReportThreshold); err != nil {
		return nil, err
	}
	if stats.ByCategory, err = r.groupBy(ctx,
		`SELECT category, COUNT(*) FROM places WHERE is_active = ? GROUP BY category`, true); err != nil {
		return nil, err
	}
	if stats.ByRegion, err = r.groupBy(ctx,
		`SELECT region, COUNT(*) FROM places WHERE is_active = ? GROUP BY region`, true); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *statsRepository) getRestrictionStats(ctx context.Context) (*domain.RestrictionStats, error) {
	stats := &domain.RestrictionStats{}
	var err error

	if stats.TotalActive, err = r.count(ctx, `SELECT COUNT(*) FROM restrictions WHERE is_active = ?`, true); err != nil {
		return nil, err
	}
	if stats.ByType, err = r.groupBy(ctx,
		`SELECT type, COUNT(*) FROM restrictions WHERE is_active = ? GROUP BY type`, true); err != nil {
		return nil, err
	}
	if stats.ByRegion, err = r.groupBy(ctx,
		`SELECT region, COUNT(*) FROM restrictions WHERE is_active = ? GROUP BY region`, true); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *statsRepository) getHelperStats(ctx context.Context) (*domain.HelperStats, error) {
	stats := &domain.HelperStats{}
	var err error

	if stats.TotalActive, err = r.count(ctx, `SELECT COUNT(*) FROM helpers WHERE is_active = ?`, true); err != nil {
		return nil, err
	}
	if stats.Available, err = r.count(ctx,
		`SELECT COUNT(*) FROM helpers WHERE is_active = ? AND is_available = ?`, true, true); err != nil {
		return nil, err
	}
	if stats.TotalHelpsGiven, err = r.count(ctx,
		`SELECT COALESCE(SUM(help_count), 0) FROM helpers WHERE is_active = ?`, true); err != nil {
		return nil, err
	}
	if stats.RequestsByStatus, err = r.groupBy(ctx,
		`SELECT status, COUNT(*) FROM help_requests GROUP BY status`); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *statsRepository) getRouteStats(ctx context.Context) (*domain.RouteStats, error) {
	stats := &domain.RouteStats{}
	var err error

	if stats.TotalActive, err = r.count(ctx, `SELECT COUNT(*) FROM routes WHERE is_active = ?`, true); err != nil {
		return nil, err
	}
	if stats.Public, err = r.count(ctx,
		`SELECT COUNT(*) FROM routes WHERE is_active = ? AND is_public = ?`, true, true); err != nil {
		return nil, err
	}
	if stats.Favorites, err = r.count(ctx,
		`SELECT COUNT(*) FROM routes WHERE is_active = ? AND is_favorite = ?`, true, true); err != nil {
		return nil, err
	}
	return stats, nil
}

// getContributionStats - сводка по журналу вкладов
func (r *statsRepository) getContributionStats(ctx context.Context, now time.Time) (*domain.ContributionStats, error) {
	stats := &domain.ContributionStats{
		ByAction:     map[string]int64{},
		ByTargetType: map[string]int64{},
	}
	var err error
	all := domain.ContributionFilter{}

	if stats.Total, err = r.contributions.Count(ctx, all); err != nil {
		return nil, err
	}

	byAction, err := r.contributions.CountByAction(ctx, all)
	if err != nil {
		return nil, err
	}
	for action, n := range byAction {
		stats.ByAction[string(action)] = n
	}

	byTarget, err := r.contributions.CountByTargetType(ctx, all)
	if err != nil {
		return nil, err
	}
	for target, n := range byTarget {
		stats.ByTargetType[string(target)] = n
	}

	if stats.DistinctUsers, err = r.contributions.CountDistinctUsers(ctx); err != nil {
		return nil, err
	}
	if stats.Unsynced, err = r.contributions.CountUnsynced(ctx); err != nil {
		return nil, err
	}

	weekAgo := now.AddDate(0, 0, -7)
	if stats.LastSevenDays, err = r.contributions.Count(ctx, domain.ContributionFilter{Since: &weekAgo}); err != nil {
		return nil, err
	}
	if stats.TopContributors, err = r.contributions.TopContributors(ctx, nil, 5); err != nil {
		return nil, err
	}

	return stats, nil
}
