package database

import (
	"database/sql"
	"errors"

	"github.com/contabilidad-io/contabilidad/internal/models"
)

const facturaColumns = "id, user_id, codigo, fecha, empresa, cif, base_imponible, porcentaje_iva, valor_iva, total"

// FacturaList is one page of invoices plus the aggregates computed over
// the full filtered set.
type FacturaList struct {
	Datos []models.Factura `json:"datos"`
	Total int              `json:"total"`
	Suma  float64          `json:"suma"`
}

func scanFactura(row interface{ Scan(...any) error }) (models.Factura, error) {
	var f models.Factura
	err := row.Scan(&f.ID, &f.UserID, &f.Codigo, &f.Fecha, &f.Empresa, &f.CIF,
		&f.BaseImponible, &f.PorcentajeIVA, &f.ValorIVA, &f.Total)
	return f, err
}

// ListFacturas returns a page of invoices with the matching count and
// the sum of the total column, all evaluated against one predicate.
func (db *DB) ListFacturas(p ListParams) (*FacturaList, error) {
	p = p.clamped()
	pred := buildListPredicate(db.dialect, p)

	total, suma, err := db.countAndSum("facturas", "total", pred)
	if err != nil {
		return nil, err
	}

	query := db.pageQuery("facturas", facturaColumns, pred)
	args := append(append([]any{}, pred.args...), p.Limit, p.Offset)
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	datos := []models.Factura{}
	for rows.Next() {
		f, err := scanFactura(rows)
		if err != nil {
			return nil, err
		}
		datos = append(datos, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &FacturaList{Datos: datos, Total: total, Suma: suma}, nil
}

// CreateFactura recomputes the derived fields, records the named
// empresa in the directory if it is new, and inserts the invoice. Both
// writes share a transaction.
func (db *DB) CreateFactura(f *models.Factura) error {
	f.ComputeDerived()

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsert := db.dialect.Rebind(db.dialect.UpsertEmpresa(false))
	if _, err := tx.Exec(upsert, f.UserID, f.Empresa, f.CIF, nowISO()); err != nil {
		return err
	}

	if db.dialect == DialectPostgres {
		err = tx.QueryRow(
			`INSERT INTO facturas (user_id, codigo, fecha, empresa, cif, base_imponible, porcentaje_iva, valor_iva, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
			f.UserID, f.Codigo, f.Fecha, f.Empresa, f.CIF,
			f.BaseImponible, f.PorcentajeIVA, f.ValorIVA, f.Total,
		).Scan(&f.ID)
		if err != nil {
			return err
		}
	} else {
		res, err := tx.Exec(
			`INSERT INTO facturas (user_id, codigo, fecha, empresa, cif, base_imponible, porcentaje_iva, valor_iva, total)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.UserID, f.Codigo, f.Fecha, f.Empresa, f.CIF,
			f.BaseImponible, f.PorcentajeIVA, f.ValorIVA, f.Total,
		)
		if err != nil {
			return err
		}
		if f.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetFactura retrieves one invoice scoped to its owner.
func (db *DB) GetFactura(id, userID int64) (*models.Factura, error) {
	query := db.dialect.Rebind(
		"SELECT " + facturaColumns + " FROM facturas WHERE id = ? AND user_id = ?")
	f, err := scanFactura(db.conn.QueryRow(query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateFactura rewrites an owned invoice, recomputing derived fields
// and refreshing the empresa directory in the same transaction.
func (db *DB) UpdateFactura(f *models.Factura) error {
	f.ComputeDerived()

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsert := db.dialect.Rebind(db.dialect.UpsertEmpresa(false))
	if _, err := tx.Exec(upsert, f.UserID, f.Empresa, f.CIF, nowISO()); err != nil {
		return err
	}

	update := db.dialect.Rebind(
		`UPDATE facturas SET codigo = ?, fecha = ?, empresa = ?, cif = ?,
		base_imponible = ?, porcentaje_iva = ?, valor_iva = ?, total = ?
		WHERE id = ? AND user_id = ?`)
	res, err := tx.Exec(update,
		f.Codigo, f.Fecha, f.Empresa, f.CIF,
		f.BaseImponible, f.PorcentajeIVA, f.ValorIVA, f.Total,
		f.ID, f.UserID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// DeleteFactura removes an owned invoice.
func (db *DB) DeleteFactura(id, userID int64) error {
	query := db.dialect.Rebind("DELETE FROM facturas WHERE id = ? AND user_id = ?")
	res, err := db.conn.Exec(query, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
