package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/contabilidad-io/contabilidad/internal/auth"
	"github.com/contabilidad-io/contabilidad/internal/models"
)

// facturaRequest uses pointers for the numeric fields so a legitimate
// zero is distinguishable from an absent field.
type facturaRequest struct {
	Codigo        string   `json:"codigo"`
	Fecha         string   `json:"fecha"`
	Empresa       string   `json:"empresa"`
	CIF           string   `json:"cif"`
	BaseImponible *float64 `json:"baseImponible"`
	PorcentajeIVA *float64 `json:"porcentajeIVA"`
}

func (req *facturaRequest) validate() (models.Factura, bool) {
	if strings.TrimSpace(req.Codigo) == "" ||
		strings.TrimSpace(req.Fecha) == "" ||
		strings.TrimSpace(req.Empresa) == "" ||
		strings.TrimSpace(req.CIF) == "" ||
		req.BaseImponible == nil || req.PorcentajeIVA == nil {
		return models.Factura{}, false
	}
	return models.Factura{
		Codigo:        strings.TrimSpace(req.Codigo),
		Fecha:         strings.TrimSpace(req.Fecha),
		Empresa:       strings.TrimSpace(req.Empresa),
		CIF:           strings.ToUpper(strings.TrimSpace(req.CIF)),
		BaseImponible: *req.BaseImponible,
		PorcentajeIVA: *req.PorcentajeIVA,
	}, true
}

func (api *Api) ListFacturasHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	list, err := api.db.ListFacturas(listParamsFromRequest(r, userID))
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (api *Api) GetFacturaHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID inválido")
		return
	}

	factura, err := api.db.GetFactura(id, userID)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, factura)
}

func (api *Api) CreateFacturaHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req facturaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}
	factura, ok := req.validate()
	if !ok {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}
	factura.UserID = userID

	if err := api.db.CreateFactura(&factura); err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, factura)
}

func (api *Api) UpdateFacturaHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID inválido")
		return
	}

	var req facturaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}
	factura, valid := req.validate()
	if !valid {
		respondError(w, http.StatusBadRequest, "Datos incompletos")
		return
	}
	factura.ID = id
	factura.UserID = userID

	if err := api.db.UpdateFactura(&factura); err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, factura)
}

func (api *Api) DeleteFacturaHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID inválido")
		return
	}

	if err := api.db.DeleteFactura(id, userID); err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Factura eliminada"})
}
