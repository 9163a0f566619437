package sqlstore

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/siempreabierto/internal/domain/repository"
)

// compileWhere переводит предикаты в SQL с плейсхолдерами "?".
// Имена колонок проверяются по белому списку таблицы.
func compileWhere(q repository.Query, allowed map[string]struct{}) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)

	for _, p := range q.Where {
		clause, pArgs, err := compilePredicate(p, allowed)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, pArgs...)
	}

	if len(q.AnyOf) > 0 {
		var group []string
		for _, p := range q.AnyOf {
			clause, pArgs, err := compilePredicate(p, allowed)
			if err != nil {
				return "", nil, err
			}
			group = append(group, clause)
			args = append(args, pArgs...)
		}
		clauses = append(clauses, "("+strings.Join(group, " OR ")+")")
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func compilePredicate(p repository.Predicate, allowed map[string]struct{}) (string, []any, error) {
	if _, ok := allowed[p.Field]; !ok {
		return "", nil, fmt.Errorf("unknown field %q", p.Field)
	}

	switch p.Op {
	case repository.OpEq:
		if p.Value == nil {
			return p.Field + " IS NULL", nil, nil
		}
		return p.Field + " = ?", []any{normalize(p.Value)}, nil
	case repository.OpNe:
		if p.Value == nil {
			return p.Field + " IS NOT NULL", nil, nil
		}
		return p.Field + " <> ?", []any{normalize(p.Value)}, nil
	case repository.OpBetween:
		return p.Field + " BETWEEN ? AND ?", []any{normalize(p.Value), normalize(p.Upper)}, nil
	case repository.OpGte:
		return p.Field + " >= ?", []any{normalize(p.Value)}, nil
	case repository.OpLte:
		return p.Field + " <= ?", []any{normalize(p.Value)}, nil
	case repository.OpLike:
		s, ok := p.Value.(string)
		if !ok {
			return "", nil, fmt.Errorf("like on %q needs a string value", p.Field)
		}
		return "LOWER(" + p.Field + `) LIKE ? ESCAPE '\'`, []any{likePattern(s)}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operator %q", p.Op)
	}
}

func compileOrder(orders []repository.Order, allowed map[string]struct{}) (string, error) {
	if len(orders) == 0 {
		return " ORDER BY id ASC", nil
	}

	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		if _, ok := allowed[o.Field]; !ok {
			return "", fmt.Errorf("unknown order field %q", o.Field)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, o.Field+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func compileLimit(q repository.Query, postgres bool) (string, []any) {
	switch {
	case q.Limit > 0 && q.Offset > 0:
		return " LIMIT ? OFFSET ?", []any{q.Limit, q.Offset}
	case q.Limit > 0:
		return " LIMIT ?", []any{q.Limit}
	case q.Offset > 0 && postgres:
		return " OFFSET ?", []any{q.Offset}
	case q.Offset > 0:
		// sqlite needs a LIMIT before OFFSET
		return " LIMIT -1 OFFSET ?", []any{q.Offset}
	default:
		return "", nil
	}
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// normalize приводит именованные строковые типы (domain.Action и т.п.) к string
func normalize(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String && rv.Type() != reflect.TypeOf("") {
		return rv.String()
	}
	return v
}
