package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/contabilidad-io/contabilidad/internal/auth"
)

// exportBatchLimit caps how many rows a single CSV export carries.
const exportBatchLimit = 100000

// presignTTL is how long an export download link stays valid.
const presignTTL = 15 * time.Minute

func (api *Api) ExportFacturasHandler(w http.ResponseWriter, r *http.Request) {
	if api.exporter == nil {
		respondError(w, http.StatusServiceUnavailable, "Almacenamiento no configurado")
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())

	params := listParamsFromRequest(r, userID)
	params.Limit = exportBatchLimit
	params.Offset = 0

	list, err := api.db.ListFacturas(params)
	if err != nil {
		respondStorageError(w, err)
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write([]string{"codigo", "fecha", "empresa", "cif", "baseImponible", "porcentajeIVA", "valorIVA", "total"})
	for _, f := range list.Datos {
		cw.Write([]string{
			f.Codigo, f.Fecha, f.Empresa, f.CIF,
			formatAmount(f.BaseImponible), formatAmount(f.PorcentajeIVA),
			formatAmount(f.ValorIVA), formatAmount(f.Total),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		respondStorageError(w, err)
		return
	}

	api.uploadExport(w, r, userID, "facturas", &buf)
}

func (api *Api) ExportServiciosHandler(w http.ResponseWriter, r *http.Request) {
	if api.exporter == nil {
		respondError(w, http.StatusServiceUnavailable, "Almacenamiento no configurado")
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())

	params := listParamsFromRequest(r, userID)
	params.Limit = exportBatchLimit
	params.Offset = 0

	list, err := api.db.ListServicios(params)
	if err != nil {
		respondStorageError(w, err)
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write([]string{"fecha", "codigo", "importe", "descuento", "importeFinal"})
	for _, s := range list.Datos {
		cw.Write([]string{
			s.Fecha, s.Codigo,
			formatAmount(s.Importe), formatAmount(s.Descuento),
			formatAmount(s.ImporteFinal),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		respondStorageError(w, err)
		return
	}

	api.uploadExport(w, r, userID, "servicios", &buf)
}

func (api *Api) uploadExport(w http.ResponseWriter, r *http.Request, userID int64, kind string, buf *bytes.Buffer) {
	key := fmt.Sprintf("exports/%d/%s-%s.csv", userID, kind, uuid.NewString())

	if err := api.exporter.Upload(r.Context(), key, buf, "text/csv"); err != nil {
		respondStorageError(w, err)
		return
	}

	url, err := api.exporter.PresignDownload(r.Context(), key, presignTTL)
	if err != nil {
		respondStorageError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"url": url,
		"key": key,
	})
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
