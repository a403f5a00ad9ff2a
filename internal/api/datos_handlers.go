package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/contabilidad-io/contabilidad/internal/auth"
	"github.com/contabilidad-io/contabilidad/internal/models"
)

func (api *Api) GetDatosPersonalesHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	datos, err := api.db.GetDatosPersonales(userID)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, datos)
}

func (api *Api) SaveDatosPersonalesHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var datos models.DatosPersonales
	if err := json.NewDecoder(r.Body).Decode(&datos); err != nil {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}
	if strings.TrimSpace(datos.Nombre) == "" || strings.TrimSpace(datos.NIF) == "" {
		respondError(w, http.StatusBadRequest, "Nombre y NIF son obligatorios")
		return
	}
	datos.UserID = userID

	if err := api.db.SaveDatosPersonales(&datos); err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
