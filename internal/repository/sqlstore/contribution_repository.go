package sqlstore

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/live"
)

type contributionRepository struct {
	*table[domain.Contribution]
}

func newContributionRepository(c *conn) *contributionRepository {
	return &contributionRepository{newTable(c, tableContributions, func(x *domain.Contribution, id int64) { x.ID = id })}
}

// Append добавляет запись журнала; записи рождаются несинхронизированными
func (r *contributionRepository) Append(ctx context.Context, c *domain.Contribution) (int64, error) {
	c.IsSynced = false
	c.SyncedAt = nil
	return r.Insert(ctx, c)
}

func filterQuery(f domain.ContributionFilter) repository.Query {
	var q repository.Query
	if f.UserID != "" {
		q = q.And(repository.Eq("user_id", f.UserID))
	}
	if f.Action != "" {
		q = q.And(repository.Eq("action", f.Action))
	}
	if f.TargetType != "" {
		q = q.And(repository.Eq("target_type", f.TargetType))
	}
	if f.Field != "" {
		q = q.And(repository.Eq("field_changed", f.Field))
	}
	if f.Since != nil {
		q = q.And(repository.Gte("created_at", *f.Since))
	}
	return q
}

func (r *contributionRepository) Count(ctx context.Context, filter domain.ContributionFilter) (int64, error) {
	return r.table.Count(ctx, filterQuery(filter))
}

func (r *contributionRepository) LastContributionAt(ctx context.Context, userID string) (*time.Time, error) {
	last, err := r.First(ctx, repository.NewQuery(repository.Eq("user_id", userID)).
		Sort(repository.Desc("created_at"), repository.Desc("id")))
	if err != nil || last == nil {
		return nil, err
	}
	at := last.CreatedAt
	return &at, nil
}

type keyCount struct {
	Key   string `db:"group_key"`
	Count int64  `db:"count"`
}

func (r *contributionRepository) groupCount(ctx context.Context, column string, filter domain.ContributionFilter) ([]keyCount, error) {
	where, args, err := compileWhere(filterQuery(filter), r.allowed)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + column + " AS group_key, COUNT(*) AS count FROM contributions" + where +
		" GROUP BY " + column

	var rows []keyCount
	if err := sqlx.SelectContext(ctx, r.conn.ext, &rows, r.conn.ext.Rebind(query), args...); err != nil {
		return nil, r.dbError("group count", err)
	}
	return rows, nil
}

func (r *contributionRepository) CountByAction(ctx context.Context, filter domain.ContributionFilter) (map[domain.Action]int64, error) {
	rows, err := r.groupCount(ctx, "action", filter)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Action]int64, len(rows))
	for _, row := range rows {
		out[domain.Action(row.Key)] = row.Count
	}
	return out, nil
}

func (r *contributionRepository) CountByTargetType(ctx context.Context, filter domain.ContributionFilter) (map[domain.TargetType]int64, error) {
	rows, err := r.groupCount(ctx, "target_type", filter)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.TargetType]int64, len(rows))
	for _, row := range rows {
		out[domain.TargetType(row.Key)] = row.Count
	}
	return out, nil
}

func (r *contributionRepository) CountDistinctUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := sqlx.GetContext(ctx, r.conn.ext, &count, "SELECT COUNT(DISTINCT user_id) FROM contributions"); err != nil {
		return 0, r.dbError("count distinct", err)
	}
	return count, nil
}

// TopContributors группирует журнал по пользователю; при равенстве - по user_id
func (r *contributionRepository) TopContributors(ctx context.Context, since *time.Time, limit int) ([]domain.UserCount, error) {
	if limit <= 0 {
		limit = 10
	}

	query := "SELECT user_id, MAX(user_name) AS user_name, COUNT(*) AS count FROM contributions"
	var args []any
	if since != nil {
		query += " WHERE created_at >= ?"
		args = append(args, *since)
	}
	query += " GROUP BY user_id ORDER BY count DESC, user_id ASC LIMIT ?"
	args = append(args, limit)

	top := []domain.UserCount{}
	if err := sqlx.SelectContext(ctx, r.conn.ext, &top, r.conn.ext.Rebind(query), args...); err != nil {
		return nil, r.dbError("top contributors", err)
	}
	return top, nil
}

func historyQuery(target domain.Target, field string, limit int) repository.Query {
	q := repository.NewQuery(
		repository.Eq("target_type", target.Type()),
		repository.Eq("target_id", target.ID()),
	)
	if field != "" {
		q = q.And(repository.Eq("field_changed", field))
	}
	return q.Sort(repository.Desc("created_at"), repository.Desc("id")).Take(limit)
}

func (r *contributionRepository) HistoryForTarget(ctx context.Context, target domain.Target, field string, limit int) ([]domain.Contribution, error) {
	return r.Find(ctx, historyQuery(target, field, limit))
}

func (r *contributionRepository) Recent(ctx context.Context, limit int) ([]domain.Contribution, error) {
	return r.Find(ctx, repository.Query{}.
		Sort(repository.Desc("created_at"), repository.Desc("id")).
		Take(limit))
}

func (r *contributionRepository) ByUser(ctx context.Context, userID string, limit int) ([]domain.Contribution, error) {
	return r.Find(ctx, repository.NewQuery(repository.Eq("user_id", userID)).
		Sort(repository.Desc("created_at"), repository.Desc("id")).
		Take(limit))
}

func (r *contributionRepository) Unsynced(ctx context.Context, limit int) ([]domain.Contribution, error) {
	return r.Find(ctx, repository.NewQuery(repository.Eq("is_synced", false)).
		Sort(repository.Asc("id")).
		Take(limit))
}

func (r *contributionRepository) CountUnsynced(ctx context.Context) (int64, error) {
	return r.table.Count(ctx, repository.NewQuery(repository.Eq("is_synced", false)))
}

func (r *contributionRepository) MarkSynced(ctx context.Context, ids []int64, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(
		"UPDATE contributions SET is_synced = ?, synced_at = ? WHERE is_synced = ? AND id IN (?)",
		true, at, false, ids)
	if err != nil {
		return 0, r.dbError("mark synced", err)
	}
	return r.exec(ctx, "mark synced", query, args...)
}

func (r *contributionRepository) MarkAllSynced(ctx context.Context, at time.Time) (int64, error) {
	return r.exec(ctx, "mark all synced",
		"UPDATE contributions SET is_synced = ?, synced_at = ? WHERE is_synced = ?", true, at, false)
}

func (r *contributionRepository) DeleteAll(ctx context.Context) (int64, error) {
	return r.DeleteWhere(ctx, repository.Query{})
}

func (r *contributionRepository) SubscribeHistory(ctx context.Context, target domain.Target, field string, limit int) <-chan []domain.Contribution {
	root := newContributionRepository(r.conn.root())
	return live.Watch(ctx, r.conn.hub, func(ctx context.Context) ([]domain.Contribution, error) {
		return root.HistoryForTarget(ctx, target, field, limit)
	}, tableContributions)
}
