package config

import (
	"errors"
	"strings"
	"time"

	"github.com/PaulFidika/subgate/core"
)

// Config holds the server configuration.
type Config struct {
	Env           string `env:"APP_ENV" envDefault:"development"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":8080"`

	Log       LogConfig       `envPrefix:"LOG_"`
	Session   SessionConfig   `envPrefix:"SESSION_"`
	Provider  ProviderConfig  `envPrefix:"PROVIDER_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Page      PageConfig
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT"` // "json" or "text"; empty picks by environment
}

// SessionConfig describes which provider session tokens are accepted.
type SessionConfig struct {
	Issuer            string        `env:"ISSUER"`
	JWKSURL           string        `env:"JWKS_URL"`
	Audience          string        `env:"AUDIENCE"`
	AuthorizedParties []string      `env:"AUTHORIZED_PARTIES" envSeparator:","`
	Skew              time.Duration `env:"SKEW" envDefault:"5s"`
	CacheRefresh      time.Duration `env:"CACHE_REFRESH" envDefault:"15m"`
	CookieName        string        `env:"COOKIE_NAME" envDefault:"__session"`
}

// ProviderConfig points at the identity provider's backend API.
type ProviderConfig struct {
	APIURL    string        `env:"API_URL" envDefault:"https://api.clerk.com"`
	SecretKey string        `env:"SECRET_KEY"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

type RateLimitConfig struct {
	RedisURL string        `env:"REDIS_URL"`
	Limit    int           `env:"LIMIT" envDefault:"60"`
	Window   time.Duration `env:"WINDOW" envDefault:"1m"`
}

type PageConfig struct {
	Title           string   `env:"PAGE_TITLE" envDefault:"Business Idea Generator 2"`
	Description     string   `env:"PAGE_DESCRIPTION" envDefault:"AI-powered business idea generation"`
	Languages       []string `env:"LANGUAGES" envSeparator:"," envDefault:"en,es"`
	DefaultLanguage string   `env:"DEFAULT_LANGUAGE" envDefault:"en"`
}

// Load reads .env files when present, then the environment.
func Load() (*Config, error) {
	LoadDotEnv()
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Session.Issuer) == "" {
		errs = append(errs, errors.New("SESSION_ISSUER is required"))
	}
	if strings.TrimSpace(c.Provider.SecretKey) == "" {
		errs = append(errs, errors.New("PROVIDER_SECRET_KEY is required"))
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_LIMIT and RATE_LIMIT_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

// Production reports whether diagnostics must be withheld from clients.
func (c *Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// Accept converts the session settings into the verifier config.
func (c *Config) Accept() core.AcceptConfig {
	return core.AcceptConfig{
		Issuer:            c.Session.Issuer,
		Audience:          c.Session.Audience,
		JWKSURL:           c.Session.JWKSURL,
		AuthorizedParties: c.Session.AuthorizedParties,
		Skew:              c.Session.Skew,
		CacheRefresh:      c.Session.CacheRefresh,
		CookieName:        c.Session.CookieName,
	}.Defaulted()
}
