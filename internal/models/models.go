package models

import (
	"math"
	"time"
)

// User is an account holder. Passwords are stored bcrypt-hashed.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// ResetToken is a single-use password reset capability. Rows are kept
// after consumption as an audit trail; Used flips to true exactly once.
type ResetToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `json:"used"`
}

// Factura is an invoice. ValorIVA and Total are derived from
// BaseImponible and PorcentajeIVA and recomputed on every write; values
// supplied by the client for them are ignored.
type Factura struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"userId"`
	Codigo        string  `json:"codigo"`
	Fecha         string  `json:"fecha"`
	Empresa       string  `json:"empresa"`
	CIF           string  `json:"cif"`
	BaseImponible float64 `json:"baseImponible"`
	PorcentajeIVA float64 `json:"porcentajeIVA"`
	ValorIVA      float64 `json:"valorIVA"`
	Total         float64 `json:"total"`
}

// ComputeDerived recomputes ValorIVA and Total from the base inputs.
func (f *Factura) ComputeDerived() {
	f.ValorIVA = Round2(f.BaseImponible * f.PorcentajeIVA / 100)
	f.Total = Round2(f.BaseImponible + f.ValorIVA)
}

// Servicio is a service ledger record. ImporteFinal is derived.
type Servicio struct {
	ID           int64   `json:"id"`
	UserID       int64   `json:"userId"`
	Fecha        string  `json:"fecha"`
	Codigo       string  `json:"codigo"`
	Importe      float64 `json:"importe"`
	Descuento    float64 `json:"descuento"`
	ImporteFinal float64 `json:"importeFinal"`
}

// ComputeDerived recomputes ImporteFinal from Importe and Descuento.
func (s *Servicio) ComputeDerived() {
	s.ImporteFinal = Round2(s.Importe - s.Importe*s.Descuento/100)
}

// Empresa is a per-user company directory entry, keyed by (user, nombre).
type Empresa struct {
	ID        int64  `json:"id,omitempty"`
	UserID    int64  `json:"-"`
	Nombre    string `json:"nombre"`
	CIF       string `json:"cif"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// DatosPersonales is the single personal profile row per user.
type DatosPersonales struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"userId"`
	Nombre       string `json:"nombre"`
	NIF          string `json:"nif"`
	Direccion    string `json:"direccion"`
	CodigoPostal string `json:"codigoPostal"`
	Ciudad       string `json:"ciudad"`
	Provincia    string `json:"provincia"`
	Telefono     string `json:"telefono"`
	Email        string `json:"email"`
	RazonSocial  string `json:"razonSocial"`
	UpdatedAt    string `json:"updatedAt"`
}

// Round2 rounds a monetary value to 2 decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
