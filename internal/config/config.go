package config

import (
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port             int    `envconfig:"PORT" default:"8080"`
	DBDriver         string `envconfig:"DB_DRIVER" default:"sqlite"`
	DatabaseURL      string `envconfig:"DATABASE_URL" default:"data/planner.db"`
	JWTSecret        string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	ThumbnailDir     string `envconfig:"THUMBNAIL_DIR" default:"./data/thumbnails"`
	AllowedOrigins   string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	AutosaveSchedule string `envconfig:"AUTOSAVE_SCHEDULE" default:"@every 30s"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
