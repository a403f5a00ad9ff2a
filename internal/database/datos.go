package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/contabilidad-io/contabilidad/internal/models"
)

const datosColumns = "id, user_id, nombre, nif, direccion, codigo_postal, ciudad, provincia, telefono, email, razon_social, updated_at"

// GetDatosPersonales returns the single profile row for a user.
func (db *DB) GetDatosPersonales(userID int64) (*models.DatosPersonales, error) {
	d := &models.DatosPersonales{}
	query := db.dialect.Rebind("SELECT " + datosColumns + " FROM datos_personales WHERE user_id = ?")
	err := db.conn.QueryRow(query, userID).Scan(
		&d.ID, &d.UserID, &d.Nombre, &d.NIF, &d.Direccion, &d.CodigoPostal,
		&d.Ciudad, &d.Provincia, &d.Telefono, &d.Email, &d.RazonSocial, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// SaveDatosPersonales inserts or replaces the profile row. The NIF is
// normalized to upper case; every optional field is trimmed.
func (db *DB) SaveDatosPersonales(d *models.DatosPersonales) error {
	d.Nombre = strings.TrimSpace(d.Nombre)
	d.NIF = strings.ToUpper(strings.TrimSpace(d.NIF))
	d.Direccion = strings.TrimSpace(d.Direccion)
	d.CodigoPostal = strings.TrimSpace(d.CodigoPostal)
	d.Ciudad = strings.TrimSpace(d.Ciudad)
	d.Provincia = strings.TrimSpace(d.Provincia)
	d.Telefono = strings.TrimSpace(d.Telefono)
	d.Email = strings.TrimSpace(d.Email)
	d.RazonSocial = strings.TrimSpace(d.RazonSocial)
	d.UpdatedAt = nowISO()

	var existing int64
	lookup := db.dialect.Rebind("SELECT id FROM datos_personales WHERE user_id = ?")
	err := db.conn.QueryRow(lookup, d.UserID).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		insert := db.dialect.Rebind(
			`INSERT INTO datos_personales (user_id, nombre, nif, direccion, codigo_postal, ciudad, provincia, telefono, email, razon_social, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		_, err = db.conn.Exec(insert,
			d.UserID, d.Nombre, d.NIF, d.Direccion, d.CodigoPostal,
			d.Ciudad, d.Provincia, d.Telefono, d.Email, d.RazonSocial, d.UpdatedAt)
		return err
	case err != nil:
		return err
	default:
		update := db.dialect.Rebind(
			`UPDATE datos_personales SET nombre = ?, nif = ?, direccion = ?, codigo_postal = ?, ciudad = ?, provincia = ?, telefono = ?, email = ?, razon_social = ?, updated_at = ?
			WHERE user_id = ?`)
		_, err = db.conn.Exec(update,
			d.Nombre, d.NIF, d.Direccion, d.CodigoPostal, d.Ciudad,
			d.Provincia, d.Telefono, d.Email, d.RazonSocial, d.UpdatedAt, d.UserID)
		return err
	}
}
