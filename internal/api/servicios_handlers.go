package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/contabilidad-io/contabilidad/internal/auth"
	"github.com/contabilidad-io/contabilidad/internal/models"
)

type servicioRequest struct {
	Fecha     string   `json:"fecha"`
	Codigo    string   `json:"codigo"`
	Importe   *float64 `json:"importe"`
	Descuento *float64 `json:"descuento"`
}

func (req *servicioRequest) validate() (models.Servicio, bool) {
	if strings.TrimSpace(req.Codigo) == "" ||
		strings.TrimSpace(req.Fecha) == "" ||
		req.Importe == nil || req.Descuento == nil {
		return models.Servicio{}, false
	}
	return models.Servicio{
		Fecha:     strings.TrimSpace(req.Fecha),
		Codigo:    strings.TrimSpace(req.Codigo),
		Importe:   *req.Importe,
		Descuento: *req.Descuento,
	}, true
}

func (api *Api) ListServiciosHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	list, err := api.db.ListServicios(listParamsFromRequest(r, userID))
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (api *Api) GetServicioHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID inválido")
		return
	}

	servicio, err := api.db.GetServicio(id, userID)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, servicio)
}

func (api *Api) CreateServicioHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req servicioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}
	servicio, ok := req.validate()
	if !ok {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}
	servicio.UserID = userID

	if err := api.db.CreateServicio(&servicio); err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, servicio)
}

func (api *Api) UpdateServicioHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID inválido")
		return
	}

	var req servicioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}
	servicio, valid := req.validate()
	if !valid {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}
	servicio.ID = id
	servicio.UserID = userID

	if err := api.db.UpdateServicio(&servicio); err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, servicio)
}

func (api *Api) DeleteServicioHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID inválido")
		return
	}

	if err := api.db.DeleteServicio(id, userID); err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Servicio eliminado"})
}
