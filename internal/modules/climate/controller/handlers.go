package controller

import (
	"bytes"
	"errors"
	"net/http"

	"surfsup-api/internal/logging"
	"surfsup-api/internal/modules/climate/service"
	"surfsup-api/internal/modules/climate/views"
	"surfsup-api/internal/utils"
)

var welcomeRoutes = []views.Route{
	{Path: "/api/v1.0/precipitation", Description: "Returns JSON list of precipitation for the last year"},
	{Path: "/api/v1.0/stations", Description: "Returns JSON list of the available weather stations"},
	{Path: "/api/v1.0/stations/active", Description: "Returns JSON list of stations with their observation counts, most active first"},
	{Path: "/api/v1.0/tobs", Description: "Returns JSON list of temperature observations for the most active station for the last year"},
	{Path: "/api/v1.0/tobs/stats", Description: "Returns JSON temperature statistics for the most active station"},
	{
		Path:        "/api/v1.0/<start>",
		Description: "Returns JSON temperature statistics from the specified start date onwards",
		Hint:        "Please provide the start date (in the format YYYY-MM-DD) in the URL when using the api above.",
	},
	{
		Path:        "/api/v1.0/<start>/<end>",
		Description: "Returns JSON temperature statistics for the specified start and end dates inclusive",
		Hint:        "Please provide the start and end date (in the format YYYY-MM-DD/YYYY-MM-DD) in the URL when using the api above.",
	},
}

func (c *climateControllerImpl) handleWelcome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		utils.WriteError(w, http.StatusNotFound, "no route for "+r.URL.Path)
		return
	}
	window := c.service.Window()
	data := &views.WelcomeData{
		Routes:        welcomeRoutes,
		ReferenceDate: window.Reference.Format(service.DateLayout),
		Cutoff:        window.Cutoff(),
	}
	var buf bytes.Buffer
	if err := views.RenderWelcome(&buf, data); err != nil {
		logging.FromContext(r.Context()).Error("welcome template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	precipitation, err := c.service.Precipitation(r.Context())
	if err != nil {
		c.serverError(w, r, "precipitation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, precipitation)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		c.serverError(w, r, "stations", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleStationActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := c.service.StationActivity(r.Context())
	if err != nil {
		c.serverError(w, r, "station activity", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, activity)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	observations, err := c.service.MostActiveTemperatures(r.Context())
	if err != nil {
		c.serverError(w, r, "tobs", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, observations)
}

func (c *climateControllerImpl) handleTobsStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.service.MostActiveStats(r.Context())
	if err != nil {
		c.serverError(w, r, "tobs stats", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (c *climateControllerImpl) handleStatsFrom(w http.ResponseWriter, r *http.Request) {
	c.writeStats(w, r, r.PathValue("start"), "")
}

func (c *climateControllerImpl) handleStatsRange(w http.ResponseWriter, r *http.Request) {
	c.writeStats(w, r, r.PathValue("start"), r.PathValue("end"))
}

func (c *climateControllerImpl) writeStats(w http.ResponseWriter, r *http.Request, start, end string) {
	stats, err := c.service.TemperatureStats(r.Context(), start, end)
	var invalid *service.InvalidDateError
	switch {
	case errors.As(err, &invalid):
		utils.WriteError(w, http.StatusBadRequest, invalid.Error())
	case err != nil:
		c.serverError(w, r, "temperature stats", err)
	default:
		utils.WriteJSON(w, http.StatusOK, stats)
	}
}

func (c *climateControllerImpl) serverError(w http.ResponseWriter, r *http.Request, what string, err error) {
	logging.FromContext(r.Context()).Error(what+": query failed", "error", err)
	utils.WriteError(w, http.StatusInternalServerError, "failed to load "+what)
}
