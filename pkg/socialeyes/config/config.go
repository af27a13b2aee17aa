package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server settings read from the environment at startup
type Config struct {
	DBPath   string `env:"SOCIALEYES_DB_PATH" envDefault:"socialeyes.db"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"SOCIALEYES_LOG_LEVEL" envDefault:"info"`
	GinMode  string `env:"SOCIALEYES_GIN_MODE" envDefault:"release"`

	// Browser origins allowed to call the API, e.g. the React frontend
	CORSOrigins []string `env:"SOCIALEYES_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Default for development only - must be set in production
	JWTSecret string        `env:"SOCIALEYES_JWT_SECRET" envDefault:"socialeyes-dev-secret-change-in-production"`
	TokenTTL  time.Duration `env:"SOCIALEYES_TOKEN_TTL" envDefault:"24h"`

	SeedAdmin     bool   `env:"SOCIALEYES_SEED_ADMIN" envDefault:"true"`
	AdminEmail    string `env:"SOCIALEYES_ADMIN_EMAIL" envDefault:"admin@socialeyes.local"`
	AdminPassword string `env:"SOCIALEYES_ADMIN_PASSWORD" envDefault:"changeme"`
}

// Load parses Config from the environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("parse env: SOCIALEYES_TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server
func (c Config) Addr() string {
	return ":" + c.Port
}
