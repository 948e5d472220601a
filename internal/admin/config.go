package admin

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the admin server's environment-derived configuration.
type Config struct {
	// Addr is the listen address.
	Addr string `env:"FREEGIFT_ADDR" envDefault:":8081"`

	// DatabasePath is the SQLite database file.
	DatabasePath string `env:"FREEGIFT_DB" envDefault:"freegift.db"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
