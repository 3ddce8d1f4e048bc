// internal/config/config.go
//
// Runtime settings shared by the serve and play commands.
// Responsibilities:
//   - Parse environment variables (after .env is loaded) into Config.
//   - Reject settings the server cannot start with.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is shared by the serve and play commands.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/imagematch.db"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"imagematch_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	Production     bool   `env:"PRODUCTION" envDefault:"false"`
	TrustProxy     bool   `env:"TRUST_PROXY" envDefault:"false"`

	ImageProvider   string        `env:"IMAGE_PROVIDER" envDefault:"placeholder"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"`
	ImageModel      string        `env:"IMAGE_MODEL" envDefault:"dall-e-3"`
	ImageSize       string        `env:"IMAGE_SIZE" envDefault:"1024x1024"`
	UpstreamURL     string        `env:"UPSTREAM_URL"`
	GenerateTimeout time.Duration `env:"GENERATE_TIMEOUT" envDefault:"60s"`
	DailyQuota      int           `env:"DAILY_QUOTA" envDefault:"50"`

	ReferenceImagesFile string `env:"REFERENCE_IMAGES_FILE"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`

	ServerURL string `env:"SERVER_URL" envDefault:"http://localhost:5175"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	switch c.ImageProvider {
	case "placeholder":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("IMAGE_PROVIDER=openai requires OPENAI_API_KEY")
		}
	case "http":
		if c.UpstreamURL == "" {
			return fmt.Errorf("IMAGE_PROVIDER=http requires UPSTREAM_URL")
		}
	default:
		return fmt.Errorf("unknown IMAGE_PROVIDER %q", c.ImageProvider)
	}
	if c.DailyQuota < 0 {
		return fmt.Errorf("DAILY_QUOTA must be >= 0")
	}
	if c.GenerateTimeout <= 0 {
		return fmt.Errorf("GENERATE_TIMEOUT must be positive")
	}
	if c.Production && c.JWTSecret == "dev_secret_change_me" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}
