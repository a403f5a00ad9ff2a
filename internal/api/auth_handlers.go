package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/contabilidad-io/contabilidad/internal/auth"
	"github.com/contabilidad-io/contabilidad/internal/database"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (api *Api) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}

	creds.Email = strings.TrimSpace(strings.ToLower(creds.Email))
	if creds.Email == "" || creds.Password == "" {
		respondError(w, http.StatusBadRequest, "Email y contraseña son obligatorios")
		return
	}
	if len(creds.Password) < auth.MinPasswordLength {
		respondError(w, http.StatusBadRequest, "La contraseña debe tener al menos 6 caracteres")
		return
	}

	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		respondStorageError(w, err)
		return
	}

	user, err := api.db.CreateUser(creds.Email, hash)
	if err != nil {
		respondStorageError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":    user.ID,
		"email": user.Email,
	})
}

func (api *Api) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}

	creds.Email = strings.TrimSpace(strings.ToLower(creds.Email))

	user, err := api.db.GetUserByEmail(creds.Email)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}
	if err != nil {
		respondStorageError(w, err)
		return
	}

	if !auth.CheckPassword(user.Password, creds.Password) {
		respondError(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	token, err := api.tokenManager.GenerateToken(user, auth.TokenTTL)
	if err != nil {
		respondStorageError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (api *Api) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Email es obligatorio")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email es obligatorio")
		return
	}

	if err := api.resetService.RequestReset(req.Email); err != nil {
		respondStorageError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Si el email existe, recibirás un enlace de recuperación",
	})
}

func (api *Api) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}

	if err := api.resetService.ConsumeReset(req.Token, req.NewPassword); err != nil {
		respondStorageError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Contraseña actualizada correctamente",
	})
}
