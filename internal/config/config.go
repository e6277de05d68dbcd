package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string
	SeedFile     string

	// AMQP
	AMQPURL             string
	AMQPExchange        string
	AMQPQueue           string
	AMQPAlertRoutingKey string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetPrefix        string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Currency
	BaseCurrency string
	FXRates      string
	FXCacheTTL   time.Duration

	// Analysis
	AlertThreshold      string
	ForecastGranularity string
	ForecastMinPeriods  int
	ForecastHorizon     int

	// Worker
	SweepInterval     time.Duration
	WorkerConcurrency int

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),
		SeedFile:     getEnv("SEED_FILE", ""),

		AMQPURL:             getEnv("AMQP_URL", ""),
		AMQPExchange:        getEnv("AMQP_EXCHANGE", "budget"),
		AMQPQueue:           getEnv("AMQP_QUEUE", "ledger_refresh"),
		AMQPAlertRoutingKey: getEnv("AMQP_ALERT_ROUTING_KEY", "ledger.alert"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetPrefix:        getEnv("GOOGLE_SHEET_PREFIX", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		BaseCurrency: strings.ToUpper(getEnv("BASE_CURRENCY", "EUR")),
		FXRates:      getEnv("FX_RATES", ""),
		FXCacheTTL:   getEnvDuration("FX_CACHE_TTL", time.Hour),

		AlertThreshold:      getEnv("ALERT_THRESHOLD", "10000"),
		ForecastGranularity: getEnv("FORECAST_GRANULARITY", "month"),
		ForecastMinPeriods:  getEnvInt("FORECAST_MIN_PERIODS", 0),
		ForecastHorizon:     getEnvInt("FORECAST_HORIZON", 0),

		SweepInterval:     getEnvDuration("SWEEP_INTERVAL", 15*time.Minute),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Threshold returns ALERT_THRESHOLD as a decimal. Call Validate first.
func (c *Config) Threshold() decimal.Decimal {
	d, err := decimal.NewFromString(c.AlertThreshold)
	if err != nil {
		return decimal.NewFromInt(10000)
	}
	return d
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendSQLite, BackendSheets}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("seed file does not exist: %s", c.SeedFile))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPAlertRoutingKey == "" {
			errors = append(errors, "AMQP alert routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.DataBackend == BackendSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(c.BaseCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid base currency '%s': must be a 3-letter ISO code", c.BaseCurrency))
	}
	if c.FXCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid FX cache TTL %v: must be at least 1 second", c.FXCacheTTL))
	}

	if d, err := decimal.NewFromString(c.AlertThreshold); err != nil {
		errors = append(errors, fmt.Sprintf("invalid alert threshold '%s': must be a decimal number", c.AlertThreshold))
	} else if !d.IsPositive() {
		errors = append(errors, fmt.Sprintf("invalid alert threshold %s: must be positive", c.AlertThreshold))
	}

	if g := strings.ToLower(c.ForecastGranularity); g != "day" && g != "month" {
		errors = append(errors, fmt.Sprintf("invalid forecast granularity '%s': must be 'day' or 'month'", c.ForecastGranularity))
	}
	// Zero means "use the policy default".
	if c.ForecastMinPeriods != 0 && c.ForecastMinPeriods < 2 {
		errors = append(errors, fmt.Sprintf("invalid forecast min periods %d: must be at least 2", c.ForecastMinPeriods))
	}
	if c.ForecastHorizon < 0 {
		errors = append(errors, fmt.Sprintf("invalid forecast horizon %d: must not be negative", c.ForecastHorizon))
	}

	if c.SweepInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sweep interval %v: must be at least 1 second", c.SweepInterval))
	} else if c.SweepInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sweep interval %v: must be at most 24 hours", c.SweepInterval))
	}
	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid worker concurrency %d: must be between 1 and 64", c.WorkerConcurrency))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
