package database

import (
	"fmt"
	"strings"
)

// ListParams are the tenant scope and optional filters for the list
// endpoints. Limit and Offset arrive already clamped by the API layer
// but are clamped again here so the store never sees nonsense.
type ListParams struct {
	UserID  int64
	Limit   int
	Offset  int
	Desde   string // inclusive lower date bound, YYYY-MM-DD
	Hasta   string // inclusive upper date bound, YYYY-MM-DD
	Empresa string // case-insensitive substring filter (facturas only)
}

func (p ListParams) clamped() ListParams {
	if p.Limit == 0 {
		p.Limit = 50
	} else if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// predicate is a WHERE clause fragment plus its bind arguments. The
// count, sum and page queries of one list request all run against the
// same predicate so the three results cannot disagree.
type predicate struct {
	where string
	args  []any
}

// buildListPredicate assembles the shared filter for a list request.
func buildListPredicate(d Dialect, p ListParams) predicate {
	var b strings.Builder
	b.WriteString("user_id = ?")
	args := []any{p.UserID}

	if p.Desde != "" {
		b.WriteString(" AND " + d.DateCmp("fecha", ">="))
		args = append(args, p.Desde)
	}
	if p.Hasta != "" {
		b.WriteString(" AND " + d.DateCmp("fecha", "<="))
		args = append(args, p.Hasta)
	}
	if p.Empresa != "" {
		b.WriteString(" AND LOWER(empresa) LIKE ?")
		args = append(args, "%"+strings.ToLower(p.Empresa)+"%")
	}

	return predicate{where: b.String(), args: args}
}

// countAndSum runs the COUNT and COALESCE(SUM(sumCol),0) statements for
// a predicate. The sum comes back 0, never NULL, on an empty match.
func (db *DB) countAndSum(table, sumCol string, pred predicate) (int, float64, error) {
	var total int
	countQ := db.dialect.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, pred.where))
	if err := db.conn.QueryRow(countQ, pred.args...).Scan(&total); err != nil {
		return 0, 0, err
	}

	var suma float64
	sumQ := db.dialect.Rebind(fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) FROM %s WHERE %s", sumCol, table, pred.where))
	if err := db.conn.QueryRow(sumQ, pred.args...).Scan(&suma); err != nil {
		return 0, 0, err
	}

	return total, suma, nil
}

// pageQuery builds the page SELECT for a predicate. Ordering is newest
// first with the row id as a stable tie-break for equal dates, on both
// dialects.
func (db *DB) pageQuery(table, columns string, pred predicate) string {
	return db.dialect.Rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY fecha DESC, id DESC LIMIT ? OFFSET ?",
		columns, table, pred.where,
	))
}
