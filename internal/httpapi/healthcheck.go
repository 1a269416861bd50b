package httpapi

import (
	"database/sql"
	"errors"
	"net/http"

	"surfsup-api/internal/db"
	"surfsup-api/internal/logging"
	"surfsup-api/internal/utils"
)

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// healthchecker reports whether the measurement table can be read.
type healthchecker struct {
	db      *sql.DB
	dialect db.Dialect
}

func (h *healthchecker) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var one int
	err := h.db.QueryRowContext(r.Context(), `SELECT 1 FROM measurement LIMIT 1`).Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logging.FromContext(r.Context()).Error("dataset health check failed", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "dataset is not readable")
		return
	}
	utils.WriteJSON(w, http.StatusOK, healthStatus{Status: "ok", Database: h.dialect.String()})
}

func registerHealthcheck(mux *http.ServeMux, conn *sql.DB, dialect db.Dialect) {
	h := &healthchecker{db: conn, dialect: dialect}
	mux.HandleFunc("GET /healthz", h.handleHealthz)
}
