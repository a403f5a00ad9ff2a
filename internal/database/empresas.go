package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/contabilidad-io/contabilidad/internal/models"
)

// GetEmpresaCIF looks up the tax id stored for an exact company name.
func (db *DB) GetEmpresaCIF(userID int64, nombre string) (string, error) {
	var cif string
	query := db.dialect.Rebind("SELECT cif FROM empresas WHERE user_id = ? AND nombre = ?")
	err := db.conn.QueryRow(query, userID, nombre).Scan(&cif)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return cif, nil
}

// SearchEmpresas returns up to 20 directory entries whose name starts
// with the query, ordered by name. An empty query lists the first 20.
func (db *DB) SearchEmpresas(userID int64, q string) ([]models.Empresa, error) {
	like := "%"
	if q != "" {
		like = q + "%"
	}
	query := db.dialect.Rebind(
		"SELECT nombre, cif FROM empresas WHERE user_id = ? AND nombre LIKE ? ORDER BY nombre LIMIT 20")
	rows, err := db.conn.Query(query, userID, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEmpresas(rows)
}

// ListEmpresas returns the whole directory for a user, ordered by name.
func (db *DB) ListEmpresas(userID int64) ([]models.Empresa, error) {
	query := db.dialect.Rebind(
		"SELECT nombre, cif FROM empresas WHERE user_id = ? ORDER BY nombre")
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEmpresas(rows)
}

func scanEmpresas(rows *sql.Rows) ([]models.Empresa, error) {
	empresas := []models.Empresa{}
	for rows.Next() {
		var e models.Empresa
		if err := rows.Scan(&e.Nombre, &e.CIF); err != nil {
			return nil, err
		}
		empresas = append(empresas, e)
	}
	return empresas, rows.Err()
}

// SaveEmpresa upserts a directory entry, replacing the stored CIF. The
// CIF is normalized to upper case on the way in.
func (db *DB) SaveEmpresa(userID int64, nombre, cif string) error {
	query := db.dialect.Rebind(db.dialect.UpsertEmpresa(true))
	_, err := db.conn.Exec(query,
		userID, strings.TrimSpace(nombre), strings.ToUpper(strings.TrimSpace(cif)), nowISO())
	return err
}
