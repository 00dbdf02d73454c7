package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"attendance/constants"
	"attendance/services"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type AppConfig struct {
	Port    string
	Env     string
	GinMode string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	RedisAddr     string
	RedisUser     string
	RedisPassword string
	RedisDB       int
	RedisCacheTTL time.Duration

	Timezone string
	Location *time.Location

	Geofence        services.GeofencePolicy
	EnforceGeofence bool

	SpreadsheetID      string
	SheetsCredentials  string
	SheetName          string
	SheetBatchSize     int
	SheetBatchInterval time.Duration
	SyncRetrySchedule  string

	LogLevel string
	LogDir   string
}

var (
	instance *AppConfig
	once     sync.Once
)

// Get loads the configuration on first use. A broken configuration is fatal.
func Get() *AppConfig {
	once.Do(func() {
		LoadEnv()
		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("invalid configuration: %s", err.Error())
		}
		instance = cfg
	})
	return instance
}

// LoadEnv reads .env when present; the process environment wins.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file loaded, using process environment: %v", err)
	}
}

// Load builds an AppConfig from the environment.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:    getEnv("PORT", "5001"),
		Env:     strings.ToLower(getEnv("ENV", "dev")),
		GinMode: getEnv("GIN_MODE", "release"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		SQLitePath: getEnv("SQLITE_PATH", "attendance.db"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisUser:     getEnv("REDIS_USER", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisCacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", services.DefaultRecordCacheTTL),

		Timezone: getEnv("ORG_TIMEZONE", constants.DefaultTimezone),

		Geofence:        GeofenceFromEnv(),
		EnforceGeofence: getEnvAsBool("GEOFENCE_ENFORCE", false),

		SpreadsheetID:      getEnv("SPREADSHEET_ID", ""),
		SheetsCredentials:  getEnv("GOOGLE_SHEETS_CREDENTIALS", "./google-sheets-key.json"),
		SheetName:          getEnv("SHEET_NAME", ""),
		SheetBatchSize:     getEnvAsInt("SHEET_BATCH_SIZE", services.DefaultSheetBatchSize),
		SheetBatchInterval: getEnvAsDuration("SHEET_BATCH_INTERVAL", services.DefaultSheetBatchInterval),
		SyncRetrySchedule:  getEnv("SYNC_RETRY_SCHEDULE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogDir:   getEnv("LOG_DIR", ""),
	}

	if cfg.DBDriver == "postgres" {
		if err := cfg.loadPostgres(); err != nil {
			return nil, err
		}
	} else if cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load ORG_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.Geofence.RadiusMeters <= 0 || cfg.Geofence.DegradedRadiusMeters <= 0 {
		return nil, fmt.Errorf("geofence radii must be positive")
	}
	return cfg, nil
}

// GeofenceFromEnv reads the GEOFENCE_* settings only
func GeofenceFromEnv() services.GeofencePolicy {
	return services.GeofencePolicy{
		Center: services.GeoPoint{
			Latitude:  getEnvAsFloat("GEOFENCE_LAT", constants.DefaultGeofenceLat),
			Longitude: getEnvAsFloat("GEOFENCE_LON", constants.DefaultGeofenceLon),
		},
		RadiusMeters:            getEnvAsFloat("GEOFENCE_RADIUS_METERS", constants.DefaultGeofenceRadiusMeters),
		DegradedRadiusMeters:    getEnvAsFloat("GEOFENCE_DEGRADED_RADIUS_METERS", constants.DefaultDegradedRadiusMeters),
		AccuracyThresholdMeters: getEnvAsFloat("GEOFENCE_ACCURACY_THRESHOLD_METERS", constants.DefaultAccuracyThresholdMeters),
	}
}

// loadPostgres reads the <ENV>_DB_* credentials of the active environment
func (c *AppConfig) loadPostgres() error {
	var prefix string
	switch c.Env {
	case "dev":
		prefix = "DEV_"
	case "qc":
		prefix = "QC_"
	case "prod":
		prefix = "PROD_"
	default:
		return fmt.Errorf("unknown environment: %s", c.Env)
	}
	c.DBUser = getEnv(prefix+"DB_USER", "")
	c.DBPassword = getEnv(prefix+"DB_PASSWORD", "")
	c.DBHost = getEnv(prefix+"DB_HOST", "localhost")
	c.DBPort = getEnv(prefix+"DB_PORT", "5432")
	c.DBName = getEnv(prefix+"DB_NAME", "")
	c.DBSSLMode = getEnv(prefix+"DB_SSLMODE", "require")
	if c.DBUser == "" || c.DBName == "" {
		return fmt.Errorf("%sDB_USER and %sDB_NAME are required", prefix, prefix)
	}
	return nil
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	valStr := getEnv(name, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsFloat(name string, defaultVal float64) float64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseFloat(valStr, 64); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(name, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}
	return defaultVal
}
