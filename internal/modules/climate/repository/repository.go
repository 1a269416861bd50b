package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"surfsup-api/internal/db"
	"surfsup-api/internal/modules/climate/types"
)

//go:embed sql/get-precipitation.sql
var getPrecipitationSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-station-activity.sql
var getStationActivitySQL string

//go:embed sql/get-most-active-station.sql
var getMostActiveStationSQL string

//go:embed sql/get-station-temperatures.sql
var getStationTemperaturesSQL string

//go:embed sql/get-station-temperature-stats.sql
var getStationTemperatureStatsSQL string

//go:embed sql/get-temperature-stats-from.sql
var getTemperatureStatsFromSQL string

//go:embed sql/get-temperature-stats-range.sql
var getTemperatureStatsRangeSQL string

//go:embed sql/get-latest-date.sql
var getLatestDateSQL string

//go:embed sql/count-observations.sql
var countObservationsSQL string

// ErrNoObservations is returned when the dataset has no rows to pick a station from.
var ErrNoObservations = errors.New("no observations in dataset")

type ClimateRepository interface {
	GetPrecipitationSince(ctx context.Context, cutoff string) ([]types.PrecipitationReading, error)
	GetStations(ctx context.Context) ([]types.Station, error)
	GetStationActivity(ctx context.Context) ([]types.StationActivity, error)
	// GetMostActiveTemperatures picks the most-active station and returns its
	// observations on or after cutoff, both read through one connection.
	GetMostActiveTemperatures(ctx context.Context, cutoff string) (types.StationActivity, []types.TemperatureObservation, error)
	GetMostActiveStats(ctx context.Context) (types.StationActivity, types.TemperatureStats, error)
	GetTemperatureStats(ctx context.Context, r types.DateRange) (types.TemperatureStats, error)
	GetLatestDate(ctx context.Context) (string, error)
	CountObservations(ctx context.Context) (int, error)
}

type repositoryImpl struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewRepository(conn *sql.DB, dialect db.Dialect) ClimateRepository {
	return &repositoryImpl{db: conn, dialect: dialect}
}

// withConn scopes one pooled connection to fn and always returns it to the pool.
func (r *repositoryImpl) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Error("release connection", "error", err)
		}
	}()
	return fn(conn)
}

func (r *repositoryImpl) GetPrecipitationSince(ctx context.Context, cutoff string) ([]types.PrecipitationReading, error) {
	var out []types.PrecipitationReading
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, r.dialect.Rebind(getPrecipitationSQL), cutoff)
		if err != nil {
			return err
		}
		defer closeRows(rows, "precipitation")
		for rows.Next() {
			var rec types.PrecipitationReading
			var prcp sql.NullFloat64
			if err := rows.Scan(&rec.Date, &prcp); err != nil {
				return err
			}
			rec.Precipitation = floatPtr(prcp)
			out = append(out, rec)
		}
		return rows.Err()
	})
	return out, err
}

func (r *repositoryImpl) GetStations(ctx context.Context) ([]types.Station, error) {
	var out []types.Station
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, getStationsSQL)
		if err != nil {
			return err
		}
		defer closeRows(rows, "stations")
		for rows.Next() {
			var s types.Station
			if err := rows.Scan(&s.ID); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	return out, err
}

func (r *repositoryImpl) GetStationActivity(ctx context.Context) ([]types.StationActivity, error) {
	var out []types.StationActivity
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, getStationActivitySQL)
		if err != nil {
			return err
		}
		defer closeRows(rows, "station activity")
		for rows.Next() {
			var a types.StationActivity
			if err := rows.Scan(&a.Station, &a.Observations); err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	return out, err
}

func (r *repositoryImpl) GetMostActiveTemperatures(ctx context.Context, cutoff string) (types.StationActivity, []types.TemperatureObservation, error) {
	var (
		active types.StationActivity
		out    []types.TemperatureObservation
	)
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		active, err = mostActiveStation(ctx, conn)
		if err != nil {
			return err
		}
		rows, err := conn.QueryContext(ctx, r.dialect.Rebind(getStationTemperaturesSQL), active.Station, cutoff)
		if err != nil {
			return err
		}
		defer closeRows(rows, "station temperatures")
		for rows.Next() {
			var rec types.TemperatureObservation
			var tobs sql.NullFloat64
			if err := rows.Scan(&rec.Date, &tobs); err != nil {
				return err
			}
			rec.Temperature = floatPtr(tobs)
			out = append(out, rec)
		}
		return rows.Err()
	})
	return active, out, err
}

func (r *repositoryImpl) GetMostActiveStats(ctx context.Context) (types.StationActivity, types.TemperatureStats, error) {
	var (
		active types.StationActivity
		stats  types.TemperatureStats
	)
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		active, err = mostActiveStation(ctx, conn)
		if err != nil {
			return err
		}
		stats, err = scanStats(conn.QueryRowContext(ctx, r.dialect.Rebind(getStationTemperatureStatsSQL), active.Station))
		return err
	})
	return active, stats, err
}

func (r *repositoryImpl) GetTemperatureStats(ctx context.Context, dr types.DateRange) (types.TemperatureStats, error) {
	var stats types.TemperatureStats
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		var row *sql.Row
		if dr.End == "" {
			row = conn.QueryRowContext(ctx, r.dialect.Rebind(getTemperatureStatsFromSQL), dr.Start)
		} else {
			row = conn.QueryRowContext(ctx, r.dialect.Rebind(getTemperatureStatsRangeSQL), dr.Start, dr.End)
		}
		var err error
		stats, err = scanStats(row)
		return err
	})
	return stats, err
}

// GetLatestDate returns the newest observation date, or "" for an empty dataset.
func (r *repositoryImpl) GetLatestDate(ctx context.Context) (string, error) {
	var latest sql.NullString
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, getLatestDateSQL).Scan(&latest)
	})
	return latest.String, err
}

func (r *repositoryImpl) CountObservations(ctx context.Context) (int, error) {
	var n int
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, countObservationsSQL).Scan(&n)
	})
	return n, err
}

// mostActiveStation breaks count ties on the smallest station id.
func mostActiveStation(ctx context.Context, conn *sql.Conn) (types.StationActivity, error) {
	var a types.StationActivity
	err := conn.QueryRowContext(ctx, getMostActiveStationSQL).Scan(&a.Station, &a.Observations)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNoObservations
	}
	return a, err
}

func scanStats(row *sql.Row) (types.TemperatureStats, error) {
	var lo, avg, hi sql.NullFloat64
	if err := row.Scan(&lo, &avg, &hi); err != nil {
		return types.TemperatureStats{}, err
	}
	return types.TemperatureStats{
		Min: floatPtr(lo),
		Avg: floatPtr(avg),
		Max: floatPtr(hi),
	}, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", what, "error", err)
	}
}
