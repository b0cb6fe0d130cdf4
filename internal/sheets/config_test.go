package sheets

import (
	"testing"
	"time"

	"github.com/Veraticus/mood-journal/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "oauth with refresh token",
			config: Config{
				ClientID:     "client",
				ClientSecret: "secret",
				RefreshToken: "token",
				BatchSize:    100,
			},
		},
		{
			name: "oauth with token file",
			config: Config{
				ClientID:     "client",
				ClientSecret: "secret",
				TokenFile:    "/tmp/token.json",
				BatchSize:    100,
			},
		},
		{
			name: "service account",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
			},
		},
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID:     "client",
				RefreshToken: "token",
				BatchSize:    100,
			},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "both methods",
			config: Config{
				ClientID:           "client",
				ClientSecret:       "secret",
				RefreshToken:       "token",
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
			},
			wantErr: true,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name: "zero batch size",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
			},
			wantErr: true,
			errMsg:  "batch size must be positive",
		},
		{
			name: "negative retry delay",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryDelay:         -time.Second,
			},
			wantErr: true,
			errMsg:  "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromSettings(t *testing.T) {
	c := FromSettings(config.SheetsConfig{
		ClientID:      "client",
		ClientSecret:  "secret",
		TokenFile:     "/tmp/token.json",
		SpreadsheetID: "sheet-1",
	})
	assert.Equal(t, "Mood Journal", c.SpreadsheetName)
	assert.Equal(t, "sheet-1", c.SpreadsheetID)
	assert.True(t, c.HasOAuth())
	assert.NoError(t, c.Validate())

	named := FromSettings(config.SheetsConfig{SpreadsheetName: "Feelings"})
	assert.Equal(t, "Feelings", named.SpreadsheetName)
}
