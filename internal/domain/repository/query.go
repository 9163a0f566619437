package repository

import "github.com/siempreabierto/internal/pkg/geo"

// Op - оператор предиката
type Op string

const (
	OpEq      Op = "eq"
	OpNe      Op = "ne"
	OpBetween Op = "between"
	OpLike    Op = "like"
	OpGte     Op = "gte"
	OpLte     Op = "lte"
)

// Predicate - условие на одно поле записи.
// Для OpBetween используются Value (нижняя граница) и Upper (верхняя), обе включительно.
// OpLike - поиск подстроки без учёта регистра.
type Predicate struct {
	Field string
	Op    Op
	Value any
	Upper any
}

func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEq, Value: value}
}

func Ne(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpNe, Value: value}
}

func Between(field string, lower, upper any) Predicate {
	return Predicate{Field: field, Op: OpBetween, Value: lower, Upper: upper}
}

func Like(field, substring string) Predicate {
	return Predicate{Field: field, Op: OpLike, Value: substring}
}

func Gte(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpGte, Value: value}
}

func Lte(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpLte, Value: value}
}

// InBox переводит bounding box в два диапазонных предиката по latitude/longitude
func InBox(box geo.BoundingBox) []Predicate {
	return InBoxOn("latitude", "longitude", box)
}

// InBoxOn - то же для произвольных колонок координат
func InBoxOn(latField, lonField string, box geo.BoundingBox) []Predicate {
	return []Predicate{
		Between(latField, box.MinLat, box.MaxLat),
		Between(lonField, box.MinLon, box.MaxLon),
	}
}

// Order - сортировка по полю
type Order struct {
	Field string
	Desc  bool
}

func Asc(field string) Order  { return Order{Field: field} }
func Desc(field string) Order { return Order{Field: field, Desc: true} }

// Query - декларативный запрос к таблице.
// Все предикаты Where объединяются через AND; AnyOf образует одну OR-группу,
// которая добавляется к Where через AND.
type Query struct {
	Where   []Predicate
	AnyOf   []Predicate
	OrderBy []Order
	Limit   int
	Offset  int
}

// NewQuery создает запрос с набором AND-условий
func NewQuery(where ...Predicate) Query {
	return Query{Where: where}
}

func (q Query) And(p ...Predicate) Query {
	q.Where = append(append([]Predicate(nil), q.Where...), p...)
	return q
}

func (q Query) Or(p ...Predicate) Query {
	q.AnyOf = append(append([]Predicate(nil), q.AnyOf...), p...)
	return q
}

func (q Query) Sort(o ...Order) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), o...)
	return q
}

func (q Query) Take(limit int) Query {
	q.Limit = limit
	return q
}

func (q Query) Skip(offset int) Query {
	q.Offset = offset
	return q
}
