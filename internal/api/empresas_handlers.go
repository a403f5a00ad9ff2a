package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/contabilidad-io/contabilidad/internal/auth"
)

func (api *Api) GetEmpresaCIFHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	nombre := strings.TrimSpace(r.URL.Query().Get("nombre"))
	if nombre == "" {
		respondError(w, http.StatusBadRequest, "Nombre es obligatorio")
		return
	}

	cif, err := api.db.GetEmpresaCIF(userID, nombre)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"cif": cif})
}

func (api *Api) SearchEmpresasHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	empresas, err := api.db.SearchEmpresas(userID, strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, empresas)
}

func (api *Api) ListEmpresasHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	empresas, err := api.db.ListEmpresas(userID)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, empresas)
}

func (api *Api) SaveEmpresaHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Nombre string `json:"nombre"`
		CIF    string `json:"cif"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}
	if strings.TrimSpace(req.Nombre) == "" {
		respondError(w, http.StatusBadRequest, "Nombre es obligatorio")
		return
	}

	if err := api.db.SaveEmpresa(userID, req.Nombre, req.CIF); err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
