package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"surfsup-api/internal/config"
	"surfsup-api/internal/db"
	"surfsup-api/internal/httpapi"
	"surfsup-api/internal/metrics"
	"surfsup-api/internal/modules/climate"
	"surfsup-api/internal/modules/climate/repository"
	"surfsup-api/internal/modules/climate/service"
	"surfsup-api/internal/modules/climate/views"
)

// Run serves the climate API until ctx is cancelled. The dataset is opened
// read-only; preparing it is the job of the migrate and import commands.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"referenceDate", cfg.ReferenceDate,
		"lookbackDays", cfg.LookbackDays,
	)

	cfg.ReadOnly = true
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	mux, err := Setup(ctx, cfg, dbConn)
	if err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg, logger, mux)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// Setup checks the dataset, resolves the one-year window and returns a mux
// with every route registered.
func Setup(ctx context.Context, cfg config.Config, dbConn *sql.DB) (*http.ServeMux, error) {
	dialect := db.DialectFor(cfg.Driver)
	repo := repository.NewRepository(dbConn, dialect)

	count, err := repo.CountObservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("read measurement table (run `surfsup migrate` and `surfsup import` first): %w", err)
	}
	metrics.DatasetObservations.Set(float64(count))
	if count == 0 {
		slog.Warn("measurement table is empty")
	}

	window, err := service.ResolveWindow(ctx, repo, cfg.ReferenceDate, cfg.LookbackDays)
	if err != nil {
		return nil, err
	}
	slog.Info("dataset ready",
		"observations", count,
		"referenceDate", window.Reference.Format(service.DateLayout),
		"cutoff", window.Cutoff(),
	)

	if err := views.LoadTemplates(); err != nil {
		return nil, err
	}

	mux := httpapi.NewMux(dbConn, dialect)
	climate.RegisterFeature(mux, dbConn, dialect, window)
	return mux, nil
}
