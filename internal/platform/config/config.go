package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "VOLTRALLY"

// Config captures all runtime configuration organised by concern.
// Values come from the environment (VOLTRALLY_* keys), optionally seeded
// from a local .env file.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Redis    RedisConfig
	Site     SiteConfig
	Log      LogConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string        `default:"8080"`
	ReadTimeout  time.Duration `split_words:"true" default:"15s"`
	WriteTimeout time.Duration `split_words:"true" default:"15s"`
	IdleTimeout  time.Duration `split_words:"true" default:"60s"`
}

// UpstreamConfig points at the data service the store fetches from.
// MockBaseURL hosts the static mock JSON used by the fallback path;
// when empty it defaults to BaseURL so the fixed URL rewrite applies on
// the same host. Both may be empty for a fully offline dev setup.
type UpstreamConfig struct {
	BaseURL     string        `split_words:"true"`
	MockBaseURL string        `split_words:"true"`
	Timeout     time.Duration `default:"5s"`
}

// RedisConfig configures the preference store. An empty URL selects the
// in-memory implementation.
type RedisConfig struct {
	URL          string        `split_words:"true"`
	ReadTimeout  time.Duration `split_words:"true" default:"3s"`
	WriteTimeout time.Duration `split_words:"true" default:"3s"`
	DialTimeout  time.Duration `split_words:"true" default:"5s"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `default:"info"`
}

// SiteConfig holds public-facing URL parameters used for shareable links.
type SiteConfig struct {
	BaseURL string `split_words:"true" default:"https://voltrally.example"`
}

// Load assembles the configuration from a .env file (when present) and
// the process environment. Port resolution honours the platform PORT
// variable so the service runs unchanged on managed runtimes.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}

	if port := os.Getenv("PORT"); port != "" && os.Getenv(envPrefix+"_SERVER_PORT") == "" {
		cfg.Server.Port = port
	}
	cfg.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Upstream.BaseURL), "/")
	cfg.Upstream.MockBaseURL = strings.TrimRight(strings.TrimSpace(cfg.Upstream.MockBaseURL), "/")
	if cfg.Upstream.MockBaseURL == "" {
		cfg.Upstream.MockBaseURL = cfg.Upstream.BaseURL
	}
	cfg.Site.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Site.BaseURL), "/")
	return cfg, nil
}
