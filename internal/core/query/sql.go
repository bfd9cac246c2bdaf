package query

import (
	"strconv"
	"strings"
)

// Dialect renders the engine-specific parts of a statement.
type Dialect interface {
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string
	// Contains returns a predicate that is true when the lower-cased column
	// contains the bound, already lower-cased, term.
	Contains(column, placeholder string) string
	// Upper returns the column upper-cased the way strings.ToUpper does it.
	Upper(column string) string
}

// Case-folding functions the SQLite store registers on every connection.
// SQLite's built-in lower and upper only fold ASCII.
const (
	SQLiteLowerFunc = "unicode_lower"
	SQLiteUpperFunc = "unicode_upper"
)

type postgresDialect struct{}

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) Contains(column, placeholder string) string {
	return "strpos(lower(" + column + "), " + placeholder + ") > 0"
}

func (postgresDialect) Upper(column string) string { return "upper(" + column + ")" }

type sqliteDialect struct{}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) Contains(column, placeholder string) string {
	return "instr(" + SQLiteLowerFunc + "(" + column + "), " + placeholder + ") > 0"
}

func (sqliteDialect) Upper(column string) string { return SQLiteUpperFunc + "(" + column + ")" }

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// args collects bind values and hands out placeholders in order.
type args struct {
	d      Dialect
	values []any
}

func (a *args) bind(v any) string {
	a.values = append(a.values, v)
	return a.d.Placeholder(len(a.values))
}

// where renders the shared predicate. The returned clause is empty when the
// spec has no filters, otherwise it starts with " WHERE ".
func (s Spec) where(a *args) string {
	var parts []string

	for _, c := range s.Conditions {
		if c.FoldCase {
			parts = append(parts, a.d.Upper(c.Column)+" = "+a.bind(c.Value))
			continue
		}
		parts = append(parts, c.Column+" = "+a.bind(c.Value))
	}

	if s.Search != nil && len(s.Search.Columns) > 0 {
		ors := make([]string, 0, len(s.Search.Columns))
		for _, col := range s.Search.Columns {
			ors = append(ors, a.d.Contains(col, a.bind(s.Search.Term)))
		}
		parts = append(parts, "("+strings.Join(ors, " OR ")+")")
	}

	if s.Range != nil {
		if s.Range.Min != nil {
			parts = append(parts, s.Range.Column+" >= "+a.bind(*s.Range.Min))
		}
		if s.Range.Max != nil {
			parts = append(parts, s.Range.Column+" <= "+a.bind(*s.Range.Max))
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

// orderBy renders the sort clause with the tie-break column appended so
// equal sort values always come back in the same order.
func (s Spec) orderBy() string {
	dir := "DESC"
	if s.Direction == Asc {
		dir = "ASC"
	}

	expr := s.Sort.Column
	if len(s.Sort.Ranking) > 0 {
		var b strings.Builder
		b.WriteString("CASE ")
		b.WriteString(s.Sort.Column)
		for i, v := range s.Sort.Ranking {
			b.WriteString(" WHEN '")
			b.WriteString(strings.ReplaceAll(v, "'", "''"))
			b.WriteString("' THEN ")
			b.WriteString(strconv.Itoa(i))
		}
		b.WriteString(" ELSE -1 END")
		expr = b.String()
	}

	clause := " ORDER BY " + expr + " " + dir
	if s.TieBreaker != "" && s.TieBreaker != s.Sort.Column {
		clause += ", " + s.TieBreaker + " ASC"
	}
	return clause
}

// CountSQL renders the statement counting every match, ignoring the page.
func (s Spec) CountSQL(d Dialect, table string) (string, []any) {
	a := &args{d: d}
	sql := "SELECT COUNT(*) FROM " + table + s.where(a)
	return sql, a.values
}

// SelectSQL renders the statement returning one page of matches.
func (s Spec) SelectSQL(d Dialect, table string, columns []string) (string, []any) {
	a := &args{d: d}
	sql := "SELECT " + strings.Join(columns, ", ") + " FROM " + table + s.where(a) + s.orderBy()
	sql += " LIMIT " + a.bind(s.Limit) + " OFFSET " + a.bind(s.Offset)
	return sql, a.values
}
