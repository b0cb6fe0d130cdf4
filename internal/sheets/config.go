// Package sheets exports journal entries to a Google Sheets spreadsheet.
package sheets

import (
	"errors"
	"time"

	"github.com/Veraticus/mood-journal/internal/config"
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	TokenFile          string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableFormatting: true,
		SpreadsheetName:  "Mood Journal",
		TimeZone:         "UTC",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// FromSettings layers the user's sheets settings over DefaultConfig.
func FromSettings(s config.SheetsConfig) Config {
	c := DefaultConfig()
	c.ClientID = s.ClientID
	c.ClientSecret = s.ClientSecret
	c.RefreshToken = s.RefreshToken
	c.TokenFile = s.TokenFile
	c.ServiceAccountPath = s.ServiceAccountPath
	c.SpreadsheetID = s.SpreadsheetID
	if s.SpreadsheetName != "" {
		c.SpreadsheetName = s.SpreadsheetName
	}
	return c
}

// HasOAuth reports whether OAuth2 client credentials and a token source are set.
func (c *Config) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && (c.RefreshToken != "" || c.TokenFile != "")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.HasOAuth()
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return errors.New("no authentication method configured")
	}
	if hasOAuth && hasServiceAccount {
		return errors.New("multiple authentication methods configured; use either OAuth2 or service account")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	if c.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}
	if c.RetryDelay < 0 {
		return errors.New("retry delay cannot be negative")
	}
	return nil
}
