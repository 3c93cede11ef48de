// Package query builds parameterized PostgreSQL list queries from optional
// filter clauses.
package query

import (
	"fmt"
	"strings"
)

// SearchQuery accumulates WHERE clauses and their positional arguments.
type SearchQuery struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// NewSearchQuery creates a new SearchQuery for the given table and columns.
// table may carry an alias ("consult c").
func NewSearchQuery(table, cols string) *SearchQuery {
	return &SearchQuery{
		table: table,
		cols:  cols,
		idx:   1,
	}
}

// Idx returns the next available parameter index.
func (q *SearchQuery) Idx() int { return q.idx }

// Add appends a raw WHERE clause fragment (without leading "AND").
// Placeholders in clause must start at Idx().
func (q *SearchQuery) Add(clause string, args ...interface{}) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx += len(args)
}

// AddEquals adds an exact match on column.
func (q *SearchQuery) AddEquals(column string, value interface{}) {
	q.Add(fmt.Sprintf("%s = $%d", column, q.idx), value)
}

// AddContains adds a case-insensitive substring match on column.
func (q *SearchQuery) AddContains(column, value string) {
	q.Add(fmt.Sprintf("%s ILIKE $%d", column, q.idx), "%"+EscapeLike(value)+"%")
}

// AddExists wraps a correlated subquery in EXISTS. subquery must contain
// exactly one %d verb, which is replaced by the parameter index of value.
func (q *SearchQuery) AddExists(subquery string, value interface{}) {
	q.Add("EXISTS ("+fmt.Sprintf(subquery, q.idx)+")", value)
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (q *SearchQuery) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

// Where returns the accumulated clause fragment, each prefixed by " AND ".
func (q *SearchQuery) Where() string { return q.where }

// CountSQL returns the count query SQL.
func (q *SearchQuery) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", q.table, q.where)
}

// CountArgs returns the arguments for the count query.
func (q *SearchQuery) CountArgs() []interface{} {
	return q.args
}

// DataSQL returns the data query SQL with ORDER BY and LIMIT/OFFSET.
func (q *SearchQuery) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.table, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
	return sql
}

// DataArgs returns the arguments for the data query (search args + limit + offset).
func (q *SearchQuery) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters so value matches literally.
func EscapeLike(value string) string {
	return likeEscaper.Replace(value)
}
