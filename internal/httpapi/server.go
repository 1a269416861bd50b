package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"surfsup-api/internal/config"
)

func NewServer(cfg config.Config, logger *slog.Logger, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           Handler(logger, mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Handler wraps mux with the request ID and request logging middleware.
func Handler(logger *slog.Logger, mux *http.ServeMux) http.Handler {
	return requestID(logger, requestLogger(mux))
}
