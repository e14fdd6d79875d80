package app

import (
	"os"
	"strings"
	"time"

	"vueblade/pkg/utils/coerce"
)

// Config is read from the environment (and .env via godotenv in main).
type Config struct {
	Env        string
	Port       string
	ViewsDir   string
	Strict     bool
	Legacy     bool
	Minify     bool
	Compress   bool
	RateLimit  int
	RateWindow time.Duration
}

func (c Config) Production() bool {
	return c.Env == "production"
}

// LoadConfig reads APP_ENV, APP_PORT, VIEWS_DIR, BLADE_STRICT, BLADE_LEGACY,
// BLADE_MINIFY, COMPRESSION_BROTLI_ENABLED, RATE_LIMIT_REQUESTS and
// RATE_LIMIT_WINDOW.
func LoadConfig() Config {
	cfg := Config{
		Env:      os.Getenv("APP_ENV"),
		Port:     os.Getenv("APP_PORT"),
		ViewsDir: os.Getenv("VIEWS_DIR"),
		Strict:   envBool("BLADE_STRICT", false),
		Legacy:   envBool("BLADE_LEGACY", false),
		Minify:   envBool("BLADE_MINIFY", false),
		Compress: envBool("COMPRESSION_BROTLI_ENABLED", true),
	}

	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.Port == "" {
		cfg.Port = ":3000"
	}
	if !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	if cfg.ViewsDir == "" {
		cfg.ViewsDir = "views"
	}

	// Rate limiting stays off unless RATE_LIMIT_REQUESTS is set.
	if raw := os.Getenv("RATE_LIMIT_REQUESTS"); raw != "" {
		cfg.RateLimit, _ = coerce.ToInt(raw)
		if cfg.RateLimit <= 0 {
			cfg.RateLimit = 100
		}
		window, _ := coerce.ToInt(os.Getenv("RATE_LIMIT_WINDOW"))
		if window <= 0 {
			window = 60
		}
		cfg.RateWindow = time.Duration(window) * time.Second
	}

	return cfg
}

// envBool treats an unset or empty variable as def.
func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	return coerce.ToBoolDef(raw, def)
}
