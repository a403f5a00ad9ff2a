package database

import (
	"database/sql"
	"errors"

	"github.com/contabilidad-io/contabilidad/internal/models"
)

const servicioColumns = "id, user_id, fecha, codigo, importe, descuento, importe_final"

// ServicioList is one page of services plus the full-set aggregates.
type ServicioList struct {
	Datos []models.Servicio `json:"datos"`
	Total int               `json:"total"`
	Suma  float64           `json:"suma"`
}

func scanServicio(row interface{ Scan(...any) error }) (models.Servicio, error) {
	var s models.Servicio
	err := row.Scan(&s.ID, &s.UserID, &s.Fecha, &s.Codigo, &s.Importe, &s.Descuento, &s.ImporteFinal)
	return s, err
}

// ListServicios returns a page of services with the matching count and
// the sum of importe_final, all evaluated against one predicate.
func (db *DB) ListServicios(p ListParams) (*ServicioList, error) {
	p = p.clamped()
	p.Empresa = "" // servicios carry no company column
	pred := buildListPredicate(db.dialect, p)

	total, suma, err := db.countAndSum("servicios", "importe_final", pred)
	if err != nil {
		return nil, err
	}

	query := db.pageQuery("servicios", servicioColumns, pred)
	args := append(append([]any{}, pred.args...), p.Limit, p.Offset)
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	datos := []models.Servicio{}
	for rows.Next() {
		s, err := scanServicio(rows)
		if err != nil {
			return nil, err
		}
		datos = append(datos, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &ServicioList{Datos: datos, Total: total, Suma: suma}, nil
}

// CreateServicio recomputes the derived amount and inserts the record.
func (db *DB) CreateServicio(s *models.Servicio) error {
	s.ComputeDerived()

	if db.dialect == DialectPostgres {
		return db.conn.QueryRow(
			`INSERT INTO servicios (user_id, fecha, codigo, importe, descuento, importe_final)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			s.UserID, s.Fecha, s.Codigo, s.Importe, s.Descuento, s.ImporteFinal,
		).Scan(&s.ID)
	}

	res, err := db.conn.Exec(
		`INSERT INTO servicios (user_id, fecha, codigo, importe, descuento, importe_final)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.UserID, s.Fecha, s.Codigo, s.Importe, s.Descuento, s.ImporteFinal,
	)
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

// GetServicio retrieves one service record scoped to its owner.
func (db *DB) GetServicio(id, userID int64) (*models.Servicio, error) {
	query := db.dialect.Rebind(
		"SELECT " + servicioColumns + " FROM servicios WHERE id = ? AND user_id = ?")
	s, err := scanServicio(db.conn.QueryRow(query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateServicio rewrites an owned record with recomputed derived fields.
func (db *DB) UpdateServicio(s *models.Servicio) error {
	s.ComputeDerived()

	query := db.dialect.Rebind(
		`UPDATE servicios SET fecha = ?, codigo = ?, importe = ?, descuento = ?, importe_final = ?
		WHERE id = ? AND user_id = ?`)
	res, err := db.conn.Exec(query,
		s.Fecha, s.Codigo, s.Importe, s.Descuento, s.ImporteFinal, s.ID, s.UserID)
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

// DeleteServicio removes an owned record.
func (db *DB) DeleteServicio(id, userID int64) error {
	query := db.dialect.Rebind("DELETE FROM servicios WHERE id = ? AND user_id = ?")
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
