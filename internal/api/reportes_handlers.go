package api

import (
	"net/http"

	"github.com/contabilidad-io/contabilidad/internal/auth"
)

// Reports reuse the list pipeline but the feed carries no aggregate sum.

func (api *Api) ReporteFacturasHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	list, err := api.db.ListFacturas(listParamsFromRequest(r, userID))
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"datos": list.Datos,
		"total": list.Total,
	})
}

func (api *Api) ReporteServiciosHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	list, err := api.db.ListServicios(listParamsFromRequest(r, userID))
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"datos": list.Datos,
		"total": list.Total,
	})
}
