package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultReferenceDate is the last observation date of the bundled Hawaii dataset.
	DefaultReferenceDate = "2017-08-23"
	// ReferenceLatest makes the service read max(date) from the dataset at startup.
	ReferenceLatest = "latest"

	dateLayout = "2006-01-02"
)

type Config struct {
	AppEnv          string
	LogLevel        slog.Level
	HTTPAddr        string
	ShutdownTimeout time.Duration

	Driver          string
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
	// ReadOnly opens the dataset without write access. Set by the serve command, not by env.
	ReadOnly bool

	// ReferenceDate anchors the one-year window: a YYYY-MM-DD date or "latest".
	ReferenceDate string
	LookbackDays  int
}

// fileConfig is the optional TOML file layout. Environment variables win over it.
type fileConfig struct {
	AppEnv   string `toml:"app_env"`
	LogLevel string `toml:"log_level"`
	HTTP     struct {
		Addr            string `toml:"addr"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
	} `toml:"http"`
	DB struct {
		Driver          string `toml:"driver"`
		DSN             string `toml:"dsn"`
		SQLitePath      string `toml:"sqlite_path"`
		MaxOpenConns    *int   `toml:"max_open_conns"`
		MaxIdleConns    *int   `toml:"max_idle_conns"`
		ConnMaxLifetime string `toml:"conn_max_lifetime"`
		LogSQL          *bool  `toml:"log_sql"`
	} `toml:"db"`
	Window struct {
		ReferenceDate string `toml:"reference_date"`
		LookbackDays  *int   `toml:"lookback_days"`
	} `toml:"window"`
}

func (f fileConfig) values() map[string]string {
	out := map[string]string{
		"APP_ENV":              f.AppEnv,
		"LOG_LEVEL":            f.LogLevel,
		"HTTP_ADDR":            f.HTTP.Addr,
		"SHUTDOWN_TIMEOUT":     f.HTTP.ShutdownTimeout,
		"DB_DRIVER":            f.DB.Driver,
		"DB_DSN":               f.DB.DSN,
		"SQLITE_PATH":          f.DB.SQLitePath,
		"DB_CONN_MAX_LIFETIME": f.DB.ConnMaxLifetime,
		"REFERENCE_DATE":       f.Window.ReferenceDate,
	}
	if f.DB.MaxOpenConns != nil {
		out["DB_MAX_OPEN_CONNS"] = strconv.Itoa(*f.DB.MaxOpenConns)
	}
	if f.DB.MaxIdleConns != nil {
		out["DB_MAX_IDLE_CONNS"] = strconv.Itoa(*f.DB.MaxIdleConns)
	}
	if f.DB.LogSQL != nil {
		out["DB_LOG_SQL"] = strconv.FormatBool(*f.DB.LogSQL)
	}
	if f.Window.LookbackDays != nil {
		out["LOOKBACK_DAYS"] = strconv.Itoa(*f.Window.LookbackDays)
	}
	return out
}

// LoadFromEnv reads configuration from the environment, layered over the TOML
// file named by CONFIG_FILE when set.
func LoadFromEnv() (Config, error) {
	return Load(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
}

// Load reads configuration from the environment, layered over the TOML file at
// path. An empty path skips the file.
func Load(path string) (Config, error) {
	fileValues := map[string]string{}
	if path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return Config{}, fmt.Errorf("config file %q: %w", path, err)
		}
		fileValues = fc.values()
	}
	get := func(key, def string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		if v := strings.TrimSpace(fileValues[key]); v != "" {
			return v
		}
		return def
	}

	appEnv := get("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	httpAddr := get("HTTP_ADDR", ":8080")

	shutdownTimeoutStr := get("SHUTDOWN_TIMEOUT", "10s")
	shutdownTimeout, err := time.ParseDuration(shutdownTimeoutStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: %w", shutdownTimeoutStr, err)
	}

	driver := get("DB_DRIVER", "sqlite3")
	dsn := get("DB_DSN", "")
	switch driver {
	case "sqlite3":
	case "postgres":
		if dsn == "" {
			return Config{}, fmt.Errorf("DB_DSN is required when DB_DRIVER=%s", driver)
		}
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: sqlite3, postgres)", driver)
	}
	path = get("SQLITE_PATH", "Resources/hawaii.sqlite")

	maxOpenConnsStr := get("DB_MAX_OPEN_CONNS", "4")
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := get("DB_MAX_IDLE_CONNS", "2")
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := get("DB_CONN_MAX_LIFETIME", "0s")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	logSQLStr := get("DB_LOG_SQL", "false")
	logSQL, err := strconv.ParseBool(logSQLStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_LOG_SQL %q: %w", logSQLStr, err)
	}

	referenceDate := get("REFERENCE_DATE", DefaultReferenceDate)
	if referenceDate != ReferenceLatest {
		if _, err := time.Parse(dateLayout, referenceDate); err != nil {
			return Config{}, fmt.Errorf("invalid REFERENCE_DATE %q (expected YYYY-MM-DD or %q)", referenceDate, ReferenceLatest)
		}
	}

	lookbackStr := get("LOOKBACK_DAYS", "365")
	lookbackDays, err := strconv.Atoi(lookbackStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOOKBACK_DAYS %q: %w", lookbackStr, err)
	}
	if lookbackDays < 0 {
		return Config{}, fmt.Errorf("invalid LOOKBACK_DAYS %d: must be >= 0", lookbackDays)
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		HTTPAddr:        httpAddr,
		ShutdownTimeout: shutdownTimeout,
		Driver:          driver,
		DSN:             dsn,
		Path:            path,
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		LogSQL:          logSQL,
		ReferenceDate:   referenceDate,
		LookbackDays:    lookbackDays,
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
