package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"github.com/siempreabierto/internal/domain/repository"
	"github.com/siempreabierto/internal/live"
	apperrors "github.com/siempreabierto/internal/pkg/errors"
	"go.uber.org/zap"
)

// conn - исполнитель запросов: сама БД или открытая транзакция.
// Внутри транзакции изменённые таблицы копятся в touched и рассылаются после commit.
type conn struct {
	ext     sqlx.ExtContext
	db      *DB
	hub     *live.Hub
	logger  *zap.Logger
	touched map[string]struct{}
}

func (c *conn) inTx() bool {
	return c.touched != nil
}

func (c *conn) postgres() bool {
	return isPostgres(c.ext.DriverName())
}

func (c *conn) changed(table string) {
	if c.inTx() {
		c.touched[table] = struct{}{}
		return
	}
	c.hub.Notify(table)
}

// root - исполнитель вне транзакции (для живых подписок)
func (c *conn) root() *conn {
	if !c.inTx() {
		return c
	}
	return &conn{ext: c.db.DB, db: c.db, hub: c.hub, logger: c.logger}
}

var mapper = reflectx.NewMapperFunc("db", strings.ToLower)

// columnsOf возвращает колонки верхнего уровня структуры по тегам db, без id
func columnsOf(v any) []string {
	sm := mapper.TypeMap(reflect.TypeOf(v))
	var cols []string
	for _, fi := range sm.Index {
		if len(fi.Index) != 1 || fi.Name == "" || fi.Name == "-" || fi.Name == "id" {
			continue
		}
		cols = append(cols, fi.Name)
	}
	return cols
}

// table - типизированная таблица с автоинкрементным id
type table[T any] struct {
	name    string
	columns []string
	allowed map[string]struct{}
	setID   func(*T, int64)
	conn    *conn
}

func newTable[T any](c *conn, name string, setID func(*T, int64)) *table[T] {
	var zero T
	cols := columnsOf(zero)
	allowed := make(map[string]struct{}, len(cols)+1)
	allowed["id"] = struct{}{}
	for _, col := range cols {
		allowed[col] = struct{}{}
	}
	return &table[T]{name: name, columns: cols, allowed: allowed, setID: setID, conn: c}
}

func (t *table[T]) selectList() string {
	return "id, " + strings.Join(t.columns, ", ")
}

func (t *table[T]) dbError(op string, err error) error {
	t.conn.logger.Error("Store operation failed",
		zap.String("table", t.name),
		zap.String("op", op),
		zap.Error(err))
	return apperrors.ErrDatabaseError.WithReason(fmt.Sprintf("%s %s: %v", op, t.name, err))
}

func (t *table[T]) Insert(ctx context.Context, item *T) (int64, error) {
	params := make([]string, len(t.columns))
	for i, col := range t.columns {
		params[i] = ":" + col
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		t.name, strings.Join(t.columns, ", "), strings.Join(params, ", "))

	query, args, err := sqlx.Named(stmt, item)
	if err != nil {
		return 0, t.dbError("insert", err)
	}

	var id int64
	if err := t.conn.ext.QueryRowxContext(ctx, t.conn.ext.Rebind(query), args...).Scan(&id); err != nil {
		return 0, t.dbError("insert", err)
	}

	t.setID(item, id)
	t.conn.changed(t.name)
	return id, nil
}

func (t *table[T]) Update(ctx context.Context, item *T) error {
	sets := make([]string, len(t.columns))
	for i, col := range t.columns {
		sets[i] = col + " = :" + col
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", t.name, strings.Join(sets, ", "))

	return t.execNamed(ctx, "update", stmt, item)
}

// execNamed выполняет именованный UPDATE; 0 затронутых строк - ErrNotFound
func (t *table[T]) execNamed(ctx context.Context, op, stmt string, item *T, extra ...any) error {
	query, args, err := sqlx.Named(stmt, item)
	if err != nil {
		return t.dbError(op, err)
	}
	args = append(args, extra...)

	res, err := t.conn.ext.ExecContext(ctx, t.conn.ext.Rebind(query), args...)
	if err != nil {
		return t.dbError(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return t.dbError(op, err)
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}

	t.conn.changed(t.name)
	return nil
}

func (t *table[T]) Delete(ctx context.Context, id int64) error {
	query := t.conn.ext.Rebind("DELETE FROM " + t.name + " WHERE id = ?")
	if _, err := t.conn.ext.ExecContext(ctx, query, id); err != nil {
		return t.dbError("delete", err)
	}
	t.conn.changed(t.name)
	return nil
}

func (t *table[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	query := t.conn.ext.Rebind("SELECT " + t.selectList() + " FROM " + t.name + " WHERE id = ?")

	var item T
	err := sqlx.GetContext(ctx, t.conn.ext, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, t.dbError("get", err)
	}
	return &item, nil
}

func (t *table[T]) Find(ctx context.Context, q repository.Query) ([]T, error) {
	where, args, err := compileWhere(q, t.allowed)
	if err != nil {
		return nil, apperrors.ErrInvalidRequest.WithReason(err.Error())
	}
	order, err := compileOrder(q.OrderBy, t.allowed)
	if err != nil {
		return nil, apperrors.ErrInvalidRequest.WithReason(err.Error())
	}
	limit, limitArgs := compileLimit(q, t.conn.postgres())

	query := "SELECT " + t.selectList() + " FROM " + t.name + where + order + limit
	args = append(args, limitArgs...)

	items := []T{}
	if err := sqlx.SelectContext(ctx, t.conn.ext, &items, t.conn.ext.Rebind(query), args...); err != nil {
		return nil, t.dbError("find", err)
	}
	return items, nil
}

func (t *table[T]) First(ctx context.Context, q repository.Query) (*T, error) {
	items, err := t.Find(ctx, q.Take(1))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (t *table[T]) Count(ctx context.Context, q repository.Query) (int64, error) {
	where, args, err := compileWhere(q, t.allowed)
	if err != nil {
		return 0, apperrors.ErrInvalidRequest.WithReason(err.Error())
	}

	var count int64
	query := t.conn.ext.Rebind("SELECT COUNT(*) FROM " + t.name + where)
	if err := sqlx.GetContext(ctx, t.conn.ext, &count, query, args...); err != nil {
		return 0, t.dbError("count", err)
	}
	return count, nil
}

func (t *table[T]) DeleteWhere(ctx context.Context, q repository.Query) (int64, error) {
	where, args, err := compileWhere(q, t.allowed)
	if err != nil {
		return 0, apperrors.ErrInvalidRequest.WithReason(err.Error())
	}

	res, err := t.conn.ext.ExecContext(ctx, t.conn.ext.Rebind("DELETE FROM "+t.name+where), args...)
	if err != nil {
		return 0, t.dbError("delete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, t.dbError("delete", err)
	}
	if affected > 0 {
		t.conn.changed(t.name)
	}
	return affected, nil
}

func (t *table[T]) Subscribe(ctx context.Context, q repository.Query) <-chan []T {
	rootTable := *t
	rootTable.conn = t.conn.root()
	return live.Watch(ctx, t.conn.hub, func(ctx context.Context) ([]T, error) {
		return rootTable.Find(ctx, q)
	}, t.name)
}

// exec выполняет произвольный запрос с плейсхолдерами "?"
func (t *table[T]) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := t.conn.ext.ExecContext(ctx, t.conn.ext.Rebind(query), args...)
	if err != nil {
		return 0, t.dbError(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, t.dbError(op, err)
	}
	if affected > 0 {
		t.conn.changed(t.name)
	}
	return affected, nil
}
