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

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// FileEnv names the optional TOML file read before the environment.
const FileEnv = "PELOTERO_CONFIG"

type Config struct {
	// HTTP Server
	Port string `envconfig:"PORT" toml:"port"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" toml:"log_level"`
	LogFormat string `envconfig:"LOG_FORMAT" toml:"log_format"`

	// Zone used for dates entered without one, and for calendar days.
	Timezone string `envconfig:"TZ_NAME" toml:"timezone"`

	// Database
	DataBackend  string `envconfig:"DATA_BACKEND" toml:"data_backend"`
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH" toml:"sqlite_db_path"`

	// AMQP. An empty URL disables change events.
	AMQPURL      string `envconfig:"AMQP_URL" toml:"amqp_url"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" toml:"amqp_exchange"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" toml:"amqp_queue"`

	// Google Sheets mirror. An empty spreadsheet id disables it.
	GoogleSpreadsheetID      string `envconfig:"GOOGLE_SPREADSHEET_ID" toml:"google_spreadsheet_id"`
	GoogleServiceAccountJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON" toml:"-"`
	GoogleServiceAccountFile string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE" toml:"google_service_account_file"`
	SheetsBookingTab         string `envconfig:"SHEETS_BOOKING_TAB" toml:"sheets_booking_tab"`
	SheetsMovementTab        string `envconfig:"SHEETS_MOVEMENT_TAB" toml:"sheets_movement_tab"`

	// OAuth user credentials, an alternative to a service account.
	// peloteroctl sheets-auth writes the token file.
	GoogleOAuthClientJSON string `envconfig:"GOOGLE_OAUTH_CLIENT_JSON" toml:"-"`
	GoogleOAuthClientFile string `envconfig:"GOOGLE_OAUTH_CLIENT_FILE" toml:"google_oauth_client_file"`
	GoogleOAuthTokenFile  string `envconfig:"GOOGLE_OAUTH_TOKEN_FILE" toml:"google_oauth_token_file"`

	// Worker
	SyncInterval time.Duration `envconfig:"SYNC_INTERVAL" toml:"sync_interval"`
	// Listen address for the worker's /metrics endpoint. Empty disables it.
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" toml:"worker_metrics_addr"`

	// Auth
	AdminUser         string        `envconfig:"ADMIN_USER" toml:"admin_user"`
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH" toml:"admin_password_hash"`
	SessionSecret     string        `envconfig:"SESSION_SECRET" toml:"-"`
	SessionTTL        time.Duration `envconfig:"SESSION_TTL" toml:"session_ttl"`
	CookieSecure      bool          `envconfig:"COOKIE_SECURE" toml:"cookie_secure"`

	// HTTP limits
	LoginRateLimit  int `envconfig:"LOGIN_RATE_LIMIT" toml:"login_rate_limit"` // attempts per minute per IP
	DashboardRecent int `envconfig:"DASHBOARD_RECENT" toml:"dashboard_recent"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Port:              "8081",
		LogLevel:          "info",
		LogFormat:         "text",
		Timezone:          "Local",
		DataBackend:       "sqlite",
		SQLiteDBPath:      "./data/pelotero.db",
		AMQPExchange:      "pelotero",
		AMQPQueue:         "pelotero_changes",
		SheetsBookingTab:  "Reservas",
		SheetsMovementTab: "Movimientos",
		SyncInterval:      15 * time.Minute,
		AdminUser:         "admin",
		SessionTTL:        12 * time.Hour,
		LoginRateLimit:    10,
		DashboardRecent:   5,
	}
}

// Load layers defaults, the TOML file named by PELOTERO_CONFIG (if any)
// and environment variables, in that order.
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	// No default tags: unset variables leave the layered value alone.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	return cfg, nil
}

// Location resolves Timezone, falling back to the process zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "Local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// AMQPEnabled reports whether change events are published.
func (c *Config) AMQPEnabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}

// SheetsEnabled reports whether the worker mirrors to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return strings.TrimSpace(c.GoogleSpreadsheetID) != ""
}

// SheetsOAuth reports whether the mirror authenticates as a user rather
// than a service account.
func (c *Config) SheetsOAuth() bool {
	return strings.TrimSpace(c.GoogleOAuthTokenFile) != "" &&
		(strings.TrimSpace(c.GoogleOAuthClientJSON) != "" || strings.TrimSpace(c.GoogleOAuthClientFile) != "")
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels[:4]))
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.Timezone != "" && !strings.EqualFold(c.Timezone, "Local") {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
		}
	}

	validBackends := []string{"memory", "sqlite"}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
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
	}

	if c.SheetsEnabled() {
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" &&
			os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" && !c.SheetsOAuth() {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS or an OAuth client plus GOOGLE_OAUTH_TOKEN_FILE must be provided for the sheets mirror")
		}
		if c.GoogleOAuthTokenFile != "" {
			if _, err := os.Stat(c.GoogleOAuthTokenFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google OAuth token file does not exist: %s (run peloteroctl sheets-auth)", c.GoogleOAuthTokenFile))
			}
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if c.SheetsBookingTab == "" || c.SheetsMovementTab == "" {
			errors = append(errors, "sheet tab names cannot be empty when the sheets mirror is enabled")
		}
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.AdminUser == "" {
		errors = append(errors, "admin user cannot be empty")
	}
	if c.AdminPasswordHash != "" && !strings.HasPrefix(c.AdminPasswordHash, "$2") {
		errors = append(errors, "ADMIN_PASSWORD_HASH must be a bcrypt hash (see peloteroctl hash-password)")
	}
	if c.AdminPasswordHash != "" && len(c.SessionSecret) < 32 {
		errors = append(errors, "SESSION_SECRET must be at least 32 characters when login is enabled")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session ttl %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.LoginRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid login rate limit %d: must be at least 1", c.LoginRateLimit))
	}
	if c.DashboardRecent < 0 {
		errors = append(errors, fmt.Sprintf("invalid dashboard recent count %d: must not be negative", c.DashboardRecent))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
