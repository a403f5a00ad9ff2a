package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/contabilidad-io/contabilidad/internal/database"
)

// listParamsFromRequest reads the shared list-query parameters. Bad
// numbers fall back to the defaults instead of erroring; clamping
// happens in the storage layer so every caller gets the same bounds.
func listParamsFromRequest(r *http.Request, userID int64) database.ListParams {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	return database.ListParams{
		UserID:  userID,
		Limit:   limit,
		Offset:  offset,
		Desde:   q.Get("desde"),
		Hasta:   q.Get("hasta"),
		Empresa: q.Get("empresa"),
	}
}

// idParam parses the {id} route segment.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
