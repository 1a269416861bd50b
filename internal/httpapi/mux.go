package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"surfsup-api/internal/db"
)

// NewMux returns a mux serving the operational routes: /healthz and /metrics.
func NewMux(conn *sql.DB, dialect db.Dialect) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, conn, dialect)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
