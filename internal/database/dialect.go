package database

import (
	"fmt"
	"strings"
)

// Dialect abstracts the differences between the two supported backends.
// All queries in this package are written once with '?' placeholders and
// rebound through the dialect; anything else that differs (date
// truncation, upsert syntax) lives here too, so the two paths cannot
// drift apart.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Rebind converts '?' placeholders to the dialect's native style.
// PostgreSQL gets ordinal $1..$n placeholders; SQLite keeps '?'.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DateCmp returns a predicate comparing the calendar-date part of a
// possibly-timestamped ISO column against a bound parameter. Both
// dialects truncate the column to its first 10 characters (YYYY-MM-DD)
// so a time-of-day suffix never breaks inclusivity of the bounds.
func (d Dialect) DateCmp(column, op string) string {
	if d == DialectPostgres {
		return fmt.Sprintf("substr(%s,1,10)::date %s ?::date", column, op)
	}
	return fmt.Sprintf("date(substr(%s,1,10)) %s date(?)", column, op)
}

// UpsertEmpresa returns the empresa upsert statement. doUpdate selects
// between refreshing the CIF (explicit save) and keeping the existing
// row (implicit save during invoice writes).
func (d Dialect) UpsertEmpresa(doUpdate bool) string {
	conflict := "ON CONFLICT (user_id, nombre) DO NOTHING"
	if doUpdate {
		conflict = "ON CONFLICT (user_id, nombre) DO UPDATE SET cif = excluded.cif, updated_at = excluded.updated_at"
	}
	return "INSERT INTO empresas (user_id, nombre, cif, updated_at) VALUES (?, ?, ?, ?) " + conflict
}

// IsUniqueViolation reports whether err is a duplicate-key error, used
// to map races on unique columns to a conflict response.
func (d Dialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if d == DialectPostgres {
		return strings.Contains(msg, "duplicate key value violates unique constraint")
	}
	return strings.Contains(msg, "UNIQUE constraint failed")
}
