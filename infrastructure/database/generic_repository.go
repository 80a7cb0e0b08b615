package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"

	"github.com/globalprime/inventory-platform/infrastructure/resilience"
)

// retry wraps a single round trip with the package's default exponential
// backoff, absorbing transient connection drops between the engine and
// projection stores without surfacing them as partition-halting errors.
// sql.ErrNoRows is never retried — it is the expected shape of a miss, not
// a transient fault.
func retry(ctx context.Context, fn func() error) error {
	return resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
		if err := fn(); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	})
}

// =============================================================================
// Generic Repository Helpers
// =============================================================================
//
// These generics centralize the CRUD boilerplate every projection store
// (position ladder, inventory availability, limit headroom, locate request,
// rule, event log) repeats: struct scanning, NotFoundError wrapping, and
// WHERE-clause construction. Domain-specific stores call these with their
// own table name and model type rather than hand-writing SELECT/INSERT SQL
// for every query shape.

// GenericGetByField fetches a single row by an equality filter on field.
// Returns NotFoundError if no row matches.
func GenericGetByField[T any](ctx context.Context, repo *Repository, table, field string, value interface{}) (*T, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 LIMIT 1", table, field)

	var row T
	if err := retry(ctx, func() error { return repo.db.GetContext(ctx, &row, query, value) }); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError(table, fmt.Sprintf("%v", value))
		}
		return nil, fmt.Errorf("get %s by %s: %w", table, field, err)
	}
	return &row, nil
}

// GenericList fetches every row from a table, ordered by orderBy (e.g. "id").
func GenericList[T any](ctx context.Context, repo *Repository, table, orderBy string) ([]T, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", table, orderBy)

	var rows []T
	if err := retry(ctx, func() error { return repo.db.SelectContext(ctx, &rows, query) }); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return rows, nil
}

// GenericListByField fetches every row matching an equality filter on field.
func GenericListByField[T any](ctx context.Context, repo *Repository, table, field string, value interface{}, orderBy string) ([]T, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 ORDER BY %s", table, field, orderBy)

	var rows []T
	if err := retry(ctx, func() error { return repo.db.SelectContext(ctx, &rows, query, value) }); err != nil {
		return nil, fmt.Errorf("list %s by %s: %w", table, field, err)
	}
	return rows, nil
}

// GenericListWithQuery fetches rows using a caller-built WHERE/ORDER clause
// (see QueryBuilder) and its positional arguments.
func GenericListWithQuery[T any](ctx context.Context, repo *Repository, table, whereAndOrder string, args ...interface{}) ([]T, error) {
	query := fmt.Sprintf("SELECT * FROM %s", table)
	if whereAndOrder != "" {
		query += " " + whereAndOrder
	}

	var rows []T
	if err := retry(ctx, func() error { return repo.db.SelectContext(ctx, &rows, query, args...) }); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return rows, nil
}

// GenericUpsert inserts model into table via a named-parameter statement,
// falling back to onConflict's update clause on a conflicting key. model's
// struct fields must carry `db` tags matching the column names referenced
// by namedColumns and onConflict.
func GenericUpsert[T any](ctx context.Context, repo *Repository, table string, namedColumns []string, conflictKey, onConflictUpdate string, model *T) error {
	if model == nil {
		return fmt.Errorf("%s: model cannot be nil", table)
	}

	placeholders := make([]string, len(namedColumns))
	for i, col := range namedColumns {
		placeholders[i] = ":" + col
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table, strings.Join(namedColumns, ", "), strings.Join(placeholders, ", "), conflictKey, onConflictUpdate,
	)

	if err := retry(ctx, func() error {
		_, err := repo.db.NamedExecContext(ctx, query, model)
		return err
	}); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

// GenericDelete deletes rows matching an equality filter on keyField.
func GenericDelete(ctx context.Context, repo *Repository, table, keyField string, keyValue interface{}) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, keyField)

	if _, err := repo.db.ExecContext(ctx, query, keyValue); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// GenericDeleteWithQuery deletes rows matching a caller-built WHERE clause.
// Useful for composite keys where multiple columns must match.
func GenericDeleteWithQuery(ctx context.Context, repo *Repository, table, where string, args ...interface{}) error {
	if where == "" {
		return fmt.Errorf("%s: where clause cannot be empty", table)
	}

	query := fmt.Sprintf("DELETE FROM %s %s", table, where)
	if _, err := repo.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// =============================================================================
// Query Builder Helpers
// =============================================================================

// QueryBuilder constructs a parameterized SQL WHERE/ORDER/LIMIT clause,
// tracking positional arguments ($1, $2, ...) alongside the filters so the
// clause and args can be passed straight to GenericListWithQuery.
type QueryBuilder struct {
	filters []string
	args    []interface{}
	order   string
	limit   int
}

// NewQuery creates a new query builder.
func NewQuery() *QueryBuilder {
	return &QueryBuilder{}
}

func (q *QueryBuilder) placeholder() string {
	return fmt.Sprintf("$%d", len(q.args)+1)
}

// Eq adds an equality filter: field = $n
func (q *QueryBuilder) Eq(field string, value interface{}) *QueryBuilder {
	q.args = append(q.args, value)
	q.filters = append(q.filters, fmt.Sprintf("%s = %s", field, q.placeholder()))
	return q
}

// IsNull adds a null check: field IS NULL
func (q *QueryBuilder) IsNull(field string) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s IS NULL", field))
	return q
}

// IsFalse adds a boolean false check: field = false
func (q *QueryBuilder) IsFalse(field string) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s = false", field))
	return q
}

// IsTrue adds a boolean true check: field = true
func (q *QueryBuilder) IsTrue(field string) *QueryBuilder {
	q.filters = append(q.filters, fmt.Sprintf("%s = true", field))
	return q
}

// Lte adds a less-than-or-equal filter: field <= $n
func (q *QueryBuilder) Lte(field string, value interface{}) *QueryBuilder {
	q.args = append(q.args, value)
	q.filters = append(q.filters, fmt.Sprintf("%s <= %s", field, q.placeholder()))
	return q
}

// Gte adds a greater-than-or-equal filter: field >= $n
func (q *QueryBuilder) Gte(field string, value interface{}) *QueryBuilder {
	q.args = append(q.args, value)
	q.filters = append(q.filters, fmt.Sprintf("%s >= %s", field, q.placeholder()))
	return q
}

// In adds an IN filter: field IN ($n, $n+1, ...)
// Useful for batch queries that would otherwise cause N+1 round trips.
func (q *QueryBuilder) In(field string, values []interface{}) *QueryBuilder {
	if len(values) == 0 {
		return q
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		q.args = append(q.args, v)
		placeholders[i] = q.placeholder()
	}
	q.filters = append(q.filters, fmt.Sprintf("%s IN (%s)", field, strings.Join(placeholders, ", ")))
	return q
}

// OrderAsc adds ascending order: ORDER BY field ASC
func (q *QueryBuilder) OrderAsc(field string) *QueryBuilder {
	q.order = fmt.Sprintf("ORDER BY %s ASC", field)
	return q
}

// OrderDesc adds descending order: ORDER BY field DESC
func (q *QueryBuilder) OrderDesc(field string) *QueryBuilder {
	q.order = fmt.Sprintf("ORDER BY %s DESC", field)
	return q
}

// Limit sets the result limit.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Build returns the WHERE/ORDER/LIMIT clause and its positional arguments,
// ready to pass to GenericListWithQuery or GenericDeleteWithQuery.
func (q *QueryBuilder) Build() (string, []interface{}) {
	var b strings.Builder
	if len(q.filters) > 0 {
		b.WriteString("WHERE ")
		b.WriteString(strings.Join(q.filters, " AND "))
	}
	if q.order != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(q.order)
	}
	if q.limit > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(fmt.Sprintf("LIMIT %d", q.limit))
	}
	return b.String(), q.args
}

var _ = sqlx.In // referenced to document sqlx.In as the escape hatch for dynamic IN clauses built outside QueryBuilder
