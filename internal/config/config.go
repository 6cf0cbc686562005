package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8081"`
	DBPath         string        `env:"DB_PATH" envDefault:"auditions.db"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"text"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	PINRate        float64       `env:"PIN_RATE" envDefault:"1"`
	PINBurst       int           `env:"PIN_BURST" envDefault:"5"`
	BaseURL        string        `env:"BASE_URL"`
	MetricsEnabled bool          `env:"METRICS_ENABLED" envDefault:"true"`
}

func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses configuration from the given variables instead of the
// process environment; a nil map reads the process environment
func LoadFrom(vars map[string]string) (*Config, error) {
	var opts env.Options
	if vars != nil {
		opts.Environment = vars
	}
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.PINRate <= 0 {
		return fmt.Errorf("PIN_RATE must be positive, got %v", c.PINRate)
	}
	if c.PINBurst < 1 {
		return fmt.Errorf("PIN_BURST must be at least 1, got %d", c.PINBurst)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %v", c.TokenTTL)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}
