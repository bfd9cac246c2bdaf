// Package query builds filtered, sorted and paginated listings over a single
// entity collection. A Builder turns caller parameters into a normalised Spec;
// storage adapters render the Spec to SQL through a Dialect.
package query

import (
	"reflect"
	"strings"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Direction is the sort order of a listing.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection returns Asc for "asc" in any case and Desc for anything else.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Asc)) {
		return Asc
	}
	return Desc
}

// SortField describes one sortable column. When Ranking is set the column is
// ordered by the position of its value in Ranking rather than lexically.
type SortField struct {
	Column  string
	Ranking []string
}

// Schema holds what a listing may search, range over and sort by.
type Schema struct {
	SearchColumns []string
	RangeColumn   string
	Sorts         map[string]SortField
	DefaultSort   string
	TieBreaker    string
}

// Condition is an equality filter. FoldCase compares upper-cased values.
type Condition struct {
	Column   string
	Value    any
	FoldCase bool
}

// Search matches records where Term occurs in any of Columns, ignoring case.
// Term is already lower-cased.
type Search struct {
	Term    string
	Columns []string
}

// Range bounds a numeric column inclusively. Either side may be open.
type Range struct {
	Column string
	Min    *float64
	Max    *float64
}

// Spec is a fully normalised listing request. Every filter is combined with
// AND; the total count uses the same predicate as the page itself.
type Spec struct {
	Conditions []Condition
	Search     *Search
	Range      *Range
	SortKey    string
	Sort       SortField
	Direction  Direction
	TieBreaker string
	Offset     int
	Limit      int
}

// Page is one slice of a listing plus the number of matches before paging.
type Page[T any] struct {
	Items []T
	Total int64
}

// Builder accumulates a Spec against a Schema.
type Builder struct {
	schema Schema
	spec   Spec
}

// New starts a listing sorted by the schema default, newest first, with the
// default page size.
func New(schema Schema) *Builder {
	b := &Builder{schema: schema}
	b.spec.Direction = Desc
	b.spec.TieBreaker = schema.TieBreaker
	if b.spec.TieBreaker == "" {
		b.spec.TieBreaker = "id"
	}
	b.spec.Limit = DefaultLimit
	b.setSort(schema.DefaultSort)
	return b
}

// Where adds an exact-match filter. Nil pointers and empty strings are
// treated as "no filter".
func (b *Builder) Where(column string, value any) *Builder {
	if v, ok := scalar(value); ok {
		b.spec.Conditions = append(b.spec.Conditions, Condition{Column: column, Value: v})
	}
	return b
}

// WhereFold adds a case-insensitive exact-match filter on a text column.
func (b *Builder) WhereFold(column string, value any) *Builder {
	v, ok := scalar(value)
	if !ok {
		return b
	}
	s, isString := v.(string)
	if !isString {
		return b.Where(column, v)
	}
	b.spec.Conditions = append(b.spec.Conditions, Condition{
		Column:   column,
		Value:    strings.ToUpper(s),
		FoldCase: true,
	})
	return b
}

// Search adds a substring match over the schema search columns. An empty
// term adds nothing.
func (b *Builder) Search(term string) *Builder {
	if term == "" || len(b.schema.SearchColumns) == 0 {
		return b
	}
	b.spec.Search = &Search{
		Term:    strings.ToLower(term),
		Columns: append([]string(nil), b.schema.SearchColumns...),
	}
	return b
}

// Between bounds the schema range column. Nil bounds are open.
func (b *Builder) Between(min, max *float64) *Builder {
	if (min == nil && max == nil) || b.schema.RangeColumn == "" {
		return b
	}
	b.spec.Range = &Range{Column: b.schema.RangeColumn, Min: min, Max: max}
	return b
}

// OrderBy sets the sort key and direction. A key outside the schema's sort
// list falls back to the default key.
func (b *Builder) OrderBy(key, direction string) *Builder {
	if _, ok := b.schema.Sorts[key]; ok {
		b.setSort(key)
	} else {
		b.setSort(b.schema.DefaultSort)
	}
	b.spec.Direction = ParseDirection(direction)
	return b
}

// Page sets the window. Negative offsets become zero; non-positive limits
// become DefaultLimit and limits above MaxLimit are capped.
func (b *Builder) Page(offset, limit int) *Builder {
	if offset < 0 {
		offset = 0
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	b.spec.Offset = offset
	b.spec.Limit = limit
	return b
}

// Build returns a copy of the accumulated spec.
func (b *Builder) Build() Spec {
	spec := b.spec
	spec.Conditions = append([]Condition(nil), b.spec.Conditions...)
	return spec
}

func (b *Builder) setSort(key string) {
	field, ok := b.schema.Sorts[key]
	if !ok {
		field = SortField{Column: key}
	}
	if field.Column == "" {
		field.Column = b.spec.TieBreaker
	}
	b.spec.SortKey = key
	b.spec.Sort = field
}

// scalar unwraps pointers and named types into the plain string, int64,
// float64 or bool a database driver expects. ok is false for "no value".
func scalar(value any) (any, bool) {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return nil, false
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		if v.String() == "" {
			return nil, false
		}
		return v.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Bool:
		return v.Bool(), true
	default:
		return v.Interface(), true
	}
}
