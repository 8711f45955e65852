// Package sqlxrepos implements the repositories on top of PostgreSQL with jmoiron/sqlx.
package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
)

var mapper = reflectx.NewMapperFunc("db", sqlx.NameMapper)

// rebind turns `?` placeholders into postgres' `$n`.
func rebind(query string) string {
	return sqlx.Rebind(sqlx.DOLLAR, query)
}

func newID() string {
	return uuid.New().String()
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// scanAll struct-scans every row into a new slice and closes rows.
func scanAll[T any](rows *sql.Rows) ([]T, error) {
	r := &sqlx.Rows{Rows: rows, Mapper: mapper}
	defer func() { _ = r.Close() }()

	items := make([]T, 0)
	for r.Next() {
		var item T
		if err := r.StructScan(&item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, r.Err()
}

// scanOne struct-scans the first row and closes rows. It returns sql.ErrNoRows when there is none.
func scanOne[T any](rows *sql.Rows) (T, error) {
	var item T
	r := &sqlx.Rows{Rows: rows, Mapper: mapper}
	defer func() { _ = r.Close() }()

	if !r.Next() {
		if err := r.Err(); err != nil {
			return item, err
		}
		return item, sql.ErrNoRows
	}
	err := r.StructScan(&item)
	return item, err
}

// trapNoRowsErr maps the "no rows" error to notFound and any other one to a core.PersistenceError.
func trapNoRowsErr(err error, notFound error, op string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return core.NewPersistenceError(err, op)
}

type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// orderBy renders the ORDER BY clause of the allowed fields of ordering.
func orderBy(ordering []core.DBOrdering, allowed map[string]bool, tieBreaker string) string {
	parts := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if allowed[ord.Field] {
			parts = append(parts, ord.String())
		}
	}
	parts = append(parts, tieBreaker)
	return " ORDER BY " + strings.Join(parts, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
