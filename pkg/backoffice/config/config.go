package config

import (
	"github.com/kelseyhightower/envconfig"
)

// App holds the server configuration, loaded once at startup.
// JWT settings are read by the auth package directly.
type App struct {
	// Database
	DBPath string `envconfig:"BACKOFFICE_DB_PATH" default:"backoffice.db"`

	// HTTP
	Port    string `envconfig:"PORT" default:"8080"`
	BaseURL string `envconfig:"BACKOFFICE_BASE_URL" default:"http://localhost:8080"`

	// Bootstrap admin account
	AdminEmail    string `envconfig:"BACKOFFICE_ADMIN_EMAIL" default:"admin@backoffice.local"`
	AdminPassword string `envconfig:"BACKOFFICE_ADMIN_PASSWORD" default:"changeme"`
}

// Load reads the configuration from the environment
func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
