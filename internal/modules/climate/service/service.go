package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"surfsup-api/internal/config"
	"surfsup-api/internal/logging"
	"surfsup-api/internal/metrics"
	"surfsup-api/internal/modules/climate/repository"
	"surfsup-api/internal/modules/climate/types"
)

const DateLayout = "2006-01-02"

// InvalidDateError reports a path parameter that is not a YYYY-MM-DD date.
type InvalidDateError struct {
	Param string
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid '%s' %q (expected YYYY-MM-DD)", e.Param, e.Value)
}

// Window is the "last year" scope used by the precipitation and tobs routes.
type Window struct {
	Reference    time.Time
	LookbackDays int
}

// Cutoff is the first date inside the window, formatted YYYY-MM-DD.
func (w Window) Cutoff() string {
	return w.Reference.AddDate(0, 0, -w.LookbackDays).Format(DateLayout)
}

// ResolveWindow turns the configured reference into a Window. The "latest"
// reference reads the newest observation date from repo once, at startup.
func ResolveWindow(ctx context.Context, repo repository.ClimateRepository, reference string, lookbackDays int) (Window, error) {
	if reference == config.ReferenceLatest {
		latest, err := repo.GetLatestDate(ctx)
		if err != nil {
			return Window{}, fmt.Errorf("read latest observation date: %w", err)
		}
		if latest == "" {
			return Window{}, repository.ErrNoObservations
		}
		reference = latest
	}
	ref, err := time.Parse(DateLayout, reference)
	if err != nil {
		return Window{}, fmt.Errorf("reference date %q: %w", reference, err)
	}
	return Window{Reference: ref, LookbackDays: lookbackDays}, nil
}

type Service struct {
	repository repository.ClimateRepository
	window     Window
}

func NewService(repository repository.ClimateRepository, window Window) *Service {
	return &Service{repository: repository, window: window}
}

func (s *Service) Window() Window {
	return s.window
}

// Precipitation maps each date inside the window to its precipitation.
// Rows arrive ordered by date then station, so for a date observed by several
// stations the last station's value is kept.
func (s *Service) Precipitation(ctx context.Context) (map[string]*float64, error) {
	readings, err := s.repository.GetPrecipitationSince(ctx, s.window.Cutoff())
	if err != nil {
		return nil, err
	}
	out := make(map[string]*float64, len(readings))
	for _, r := range readings {
		out[r.Date] = r.Precipitation
	}
	return out, nil
}

func (s *Service) Stations(ctx context.Context) ([]string, error) {
	stations, err := s.repository.GetStations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(stations))
	for _, st := range stations {
		out = append(out, st.ID)
	}
	return out, nil
}

func (s *Service) StationActivity(ctx context.Context) ([]types.StationActivity, error) {
	activity, err := s.repository.GetStationActivity(ctx)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		activity = []types.StationActivity{}
	}
	return activity, nil
}

// MostActiveTemperatures returns the window's temperature observations for
// the station with the most rows. An empty dataset yields an empty slice.
func (s *Service) MostActiveTemperatures(ctx context.Context) ([]types.TemperatureObservation, error) {
	logger := logging.FromContext(ctx)
	active, obs, err := s.repository.GetMostActiveTemperatures(ctx, s.window.Cutoff())
	if errors.Is(err, repository.ErrNoObservations) {
		logger.Warn("most active station: dataset is empty")
		return []types.TemperatureObservation{}, nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("most active station selected",
		"station", active.Station,
		"observations", active.Observations,
		"cutoff", s.window.Cutoff(),
	)
	metrics.MostActiveSelections.WithLabelValues(active.Station).Inc()
	if obs == nil {
		obs = []types.TemperatureObservation{}
	}
	return obs, nil
}

// MostActiveStats aggregates every temperature of the most-active station.
func (s *Service) MostActiveStats(ctx context.Context) (types.TemperatureStats, error) {
	logger := logging.FromContext(ctx)
	active, stats, err := s.repository.GetMostActiveStats(ctx)
	if errors.Is(err, repository.ErrNoObservations) {
		logger.Warn("most active station: dataset is empty")
		return types.TemperatureStats{}, nil
	}
	if err != nil {
		return types.TemperatureStats{}, err
	}
	logger.Info("most active station selected", "station", active.Station, "observations", active.Observations)
	metrics.MostActiveSelections.WithLabelValues(active.Station).Inc()
	return stats, nil
}

// TemperatureStats aggregates temperatures from start, through end when end
// is non-empty. A start after end matches nothing and yields null stats.
func (s *Service) TemperatureStats(ctx context.Context, start, end string) (types.TemperatureStats, error) {
	if err := validateDate("start", start); err != nil {
		return types.TemperatureStats{}, err
	}
	if end != "" {
		if err := validateDate("end", end); err != nil {
			return types.TemperatureStats{}, err
		}
	}
	return s.repository.GetTemperatureStats(ctx, types.DateRange{Start: start, End: end})
}

func validateDate(param, value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return &InvalidDateError{Param: param, Value: value}
	}
	return nil
}
