// Package config loads application settings from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendREST   = "rest"
)

// Config is the resolved application configuration.
type Config struct {
	Logging  LoggingConfig
	Store    StoreConfig
	Analysis AnalysisConfig
	Sheets   SheetsConfig
	Auth     AuthConfig
	Database DatabaseConfig
}

// DatabaseConfig locates the local SQLite database.
type DatabaseConfig struct {
	Path string
}

// StoreConfig selects where journal entries live.
type StoreConfig struct {
	Backend    string
	RESTURL    string
	RESTAPIKey string
	RESTTable  string
}

// AnalysisConfig configures the classification service.
type AnalysisConfig struct {
	Provider    string
	Endpoint    string
	APIKey      string
	Model       string
	Timeout     time.Duration
	RateLimit   int
	MaxAttempts int
}

// AuthConfig configures the local session store.
type AuthConfig struct {
	SessionDir string
	SessionTTL time.Duration
}

// SheetsConfig holds Google Sheets export settings.
type SheetsConfig struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	TokenFile          string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "$HOME/.local/share/journal/journal.db")
	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.rest.table", "journal_entries")
	v.SetDefault("analysis.provider", "http")
	v.SetDefault("analysis.timeout", 30*time.Second)
	v.SetDefault("analysis.rate_limit", 30)
	v.SetDefault("analysis.max_attempts", 1)
	v.SetDefault("auth.session_dir", "$HOME/.local/share/journal/session")
	v.SetDefault("auth.session_ttl", 30*24*time.Hour)
	v.SetDefault("sheets.spreadsheet_name", "Mood Journal")
	v.SetDefault("sheets.token_file", "$HOME/.config/journal/sheets-token.json")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads the configuration from v. A nil v means the global viper instance.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(v.GetString("store.backend")),
			RESTURL:    strings.TrimRight(v.GetString("store.rest.url"), "/"),
			RESTAPIKey: v.GetString("store.rest.api_key"),
			RESTTable:  v.GetString("store.rest.table"),
		},
		Analysis: AnalysisConfig{
			Provider:    strings.ToLower(v.GetString("analysis.provider")),
			Endpoint:    v.GetString("analysis.endpoint"),
			APIKey:      v.GetString("analysis.api_key"),
			Model:       v.GetString("analysis.model"),
			Timeout:     v.GetDuration("analysis.timeout"),
			RateLimit:   v.GetInt("analysis.rate_limit"),
			MaxAttempts: v.GetInt("analysis.max_attempts"),
		},
		Auth: AuthConfig{
			SessionDir: ExpandPath(v.GetString("auth.session_dir")),
			SessionTTL: v.GetDuration("auth.session_ttl"),
		},
		Sheets: SheetsConfig{
			ClientID:           v.GetString("sheets.client_id"),
			ClientSecret:       v.GetString("sheets.client_secret"),
			RefreshToken:       v.GetString("sheets.refresh_token"),
			TokenFile:          ExpandPath(v.GetString("sheets.token_file")),
			ServiceAccountPath: ExpandPath(v.GetString("sheets.service_account_path")),
			SpreadsheetID:      v.GetString("sheets.spreadsheet_id"),
			SpreadsheetName:    v.GetString("sheets.spreadsheet_name"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	// Fall back to the provider's own environment variable for the API key.
	if cfg.Analysis.APIKey == "" {
		switch cfg.Analysis.Provider {
		case "openai":
			cfg.Analysis.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			cfg.Analysis.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later at first use.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
		}
	case BackendREST:
		if c.Store.RESTURL == "" {
			return fmt.Errorf("%w: store.rest.url", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: store.backend %q", common.ErrInvalidConfig, c.Store.Backend)
	}

	if c.Analysis.MaxAttempts < 1 {
		return fmt.Errorf("%w: analysis.max_attempts must be at least 1", common.ErrInvalidConfig)
	}
	if c.Analysis.Timeout < 0 {
		return fmt.Errorf("%w: analysis.timeout cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}

// ExpandPath expands a leading ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}
