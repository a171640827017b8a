package postgres

import (
	"reflect"
	"sync"
)

// column is a "db"-tagged field reachable from a struct, possibly through embedding.
type column struct {
	name  string
	index []int
}

var columnCache sync.Map // reflect.Type -> []column

// columnsOf returns the tagged fields of t in declaration order, embedded structs
// expanded in place. The result is cached per type.
func columnsOf(t reflect.Type) []column {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]column)
	}

	var cols []column
	if t.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(t) {
			if f.Anonymous || !f.IsExported() {
				continue
			}
			tag := f.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			cols = append(cols, column{name: tag, index: f.Index})
		}
	}

	columnCache.Store(t, cols)
	return cols
}

// ExtractDBColumns lists the "db" tags of T in field order, descending into embedded
// structs such as entity.BaseRecord.
//
//	columns := ExtractDBColumns[pricing.PriceSchedule]()
//	// ["id", "version", "created_at", ..., "item_id", "customer_id", ...]
func ExtractDBColumns[T any]() []string {
	cols := columnsOf(reflect.TypeOf((*T)(nil)).Elem())
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// StructToMap converts a struct (or pointer to one) to a column -> value map using "db"
// tags. It returns nil for anything that is not a struct.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	cols := columnsOf(rv.Type())
	res := make(map[string]any, len(cols))
	for _, c := range cols {
		res[c.name] = rv.FieldByIndex(c.index).Interface()
	}
	return res
}
