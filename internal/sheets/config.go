package sheets

import (
	"errors"
	"fmt"
	"os"
)

// Config holds Google Sheets credentials and the target spreadsheet.
// Either a service account key file or an OAuth client with a refresh
// token must be provided.
type Config struct {
	SpreadsheetID      string `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	ServiceAccountPath string `yaml:"service_account_path" mapstructure:"service_account_path"`
	ClientID           string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret       string `yaml:"client_secret" mapstructure:"client_secret"`
	RefreshToken       string `yaml:"refresh_token" mapstructure:"refresh_token"`
}

// ConfigFromEnv builds a Config from the environment, for callers that
// have no config file (the API server).
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		SpreadsheetID:      os.Getenv("SHEETS_SPREADSHEET_ID"),
		ServiceAccountPath: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		ClientID:           os.Getenv("SHEETS_CLIENT_ID"),
		ClientSecret:       os.Getenv("SHEETS_CLIENT_SECRET"),
		RefreshToken:       os.Getenv("SHEETS_REFRESH_TOKEN"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.SpreadsheetID == "" {
		return errors.New("spreadsheet_id is required")
	}
	if c.ServiceAccountPath == "" {
		if c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "" {
			return fmt.Errorf("either service_account_path or a full oauth client (client_id, client_secret, refresh_token) is required")
		}
	}
	return nil
}
