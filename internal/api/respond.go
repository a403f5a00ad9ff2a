package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/contabilidad-io/contabilidad/internal/auth"
	"github.com/contabilidad-io/contabilidad/internal/database"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStorageError maps storage failures to the wire contract.
// Internal failures never leak driver or SQL detail to the client.
func respondStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "No encontrado")
	case errors.Is(err, database.ErrEmailTaken):
		respondError(w, http.StatusConflict, "El email ya está registrado")
	case errors.Is(err, database.ErrTokenInvalid):
		respondError(w, http.StatusBadRequest, "Token inválido o expirado")
	case errors.Is(err, auth.ErrPasswordTooShort):
		respondError(w, http.StatusBadRequest, "La contraseña debe tener al menos 6 caracteres")
	default:
		log.Printf("storage error: %v", err)
		respondError(w, http.StatusInternalServerError, "Error interno del servidor")
	}
}
