package climate

import (
	"database/sql"
	"net/http"

	"surfsup-api/internal/db"
	"surfsup-api/internal/modules/climate/controller"
	"surfsup-api/internal/modules/climate/repository"
	"surfsup-api/internal/modules/climate/service"
)

func RegisterFeature(mux *http.ServeMux, conn *sql.DB, dialect db.Dialect, window service.Window) {
	climateRepository := repository.NewRepository(conn, dialect)
	climateService := service.NewService(climateRepository, window)
	climateController := controller.NewClimateController(climateService)
	climateController.RegisterRoutes(mux)
}
