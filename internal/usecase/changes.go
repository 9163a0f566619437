package usecase

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/reflectx"
	"github.com/siempreabierto/internal/domain"
)

var fieldMapper = reflectx.NewMapperFunc("db", strings.ToLower)

// Служебные поля меняются побочно и не пишутся в журнал как "update"
var untrackedFields = map[string]struct{}{
	"id":                {},
	"created_at":        {},
	"updated_at":        {},
	"contributed_by":    {},
	"source":            {},
	"last_confirmed_at": {},
	"last_confirmed_by": {},
	"is_verified":       {},
	"is_active":         {},
	"report_count":      {},
	"geometry":          {},
	"last_active_at":    {},
	"help_count":        {},
	"rating":            {},
	"rating_count":      {},
	"upvotes":           {},
	"downvotes":         {},
	"usage_count":       {},
	"last_used_at":      {},
	"is_favorite":       {},
}

// diffFields сравнивает две версии записи по колонкам db и возвращает
// изменённые поля в порядке объявления в структуре
func diffFields[T any](before, after *T) []domain.FieldChange {
	bv := reflect.ValueOf(before).Elem()
	av := reflect.ValueOf(after).Elem()

	var changes []domain.FieldChange
	for _, fi := range fieldMapper.TypeMap(bv.Type()).Index {
		if len(fi.Index) != 1 || fi.Name == "" || fi.Name == "-" {
			continue
		}
		if _, skip := untrackedFields[fi.Name]; skip {
			continue
		}

		oldValue := formatValue(bv.FieldByIndex(fi.Index))
		newValue := formatValue(av.FieldByIndex(fi.Index))
		if sameValue(oldValue, newValue) {
			continue
		}
		changes = append(changes, domain.FieldChange{Field: fi.Name, OldValue: oldValue, NewValue: newValue})
	}
	return changes
}

// formatValue - строковое представление значения для журнала; nil для пустого указателя
func formatValue(v reflect.Value) *string {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	var s string
	switch v.Kind() {
	case reflect.String:
		s = v.String()
	case reflect.Bool:
		s = strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s = strconv.FormatInt(v.Int(), 10)
	case reflect.Float32, reflect.Float64:
		s = strconv.FormatFloat(v.Float(), 'f', -1, 64)
	default:
		if t, ok := v.Interface().(time.Time); ok {
			s = t.UTC().Format(time.RFC3339)
		} else {
			s = fmt.Sprint(v.Interface())
		}
	}
	return &s
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
