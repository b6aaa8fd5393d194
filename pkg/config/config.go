package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string `env:"SERVER_PORT" envDefault:"8080"`
	Environment     string `env:"ENVIRONMENT" envDefault:"development"`
	FirebaseProject string `env:"FIREBASE_PROJECT_ID"`
	StorageBucket   string `env:"STORAGE_BUCKET"`

	// Path or inline JSON of the service account; both empty means
	// application default credentials.
	ServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
	ServiceAccountJSON string `env:"FIREBASE_SERVICE_ACCOUNT_JSON"`

	// Relative media paths in payloads are rewritten against this base.
	AssetBaseURL        string   `env:"ASSET_BASE_URL" envDefault:"https://api.socialmall.app"`
	DevOrigins          []string `env:"DEV_ORIGINS" envSeparator:"," envDefault:"http://localhost:5000,http://127.0.0.1:5000"`
	PlatformLogoMarkers []string `env:"PLATFORM_LOGO_MARKERS" envSeparator:"," envDefault:"moondala-logo,/logo.png"`

	AuthMode   string `env:"AUTH_MODE" envDefault:"jwt"`
	JWTSecret  string `env:"JWT_SECRET"`
	JWTJWKSURL string `env:"JWT_JWKS_URL"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"2"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	MessagePageSize int `env:"MESSAGE_PAGE_SIZE" envDefault:"100"`
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.AssetBaseURL = strings.TrimRight(strings.TrimSpace(cfg.AssetBaseURL), "/")
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.AuthMode {
	case "jwt":
		if c.JWTSecret == "" && c.JWTJWKSURL == "" {
			return fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET or JWT_JWKS_URL")
		}
	case "firebase":
		if c.FirebaseProject == "" {
			return fmt.Errorf("AUTH_MODE=firebase requires FIREBASE_PROJECT_ID")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
