package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type config struct {
	Addr           string        `env:"ADDR"            envDefault:":8080"`
	AssetVersion   string        `env:"ASSET_VERSION"`
	PublicDir      string        `env:"PUBLIC_DIR"      envDefault:"public"`
	ViteManifest   string        `env:"VITE_MANIFEST"   envDefault:"build/.vite/manifest.json"`
	SSRURL         string        `env:"SSR_URL"`
	RedisURL       string        `env:"REDIS_URL"`
	FlashSecret    string        `env:"FLASH_SECRET"`
	LogLevel       slog.Level    `env:"LOG_LEVEL"       envDefault:"info"`
	FlashTTL       time.Duration `env:"FLASH_TTL"       envDefault:"5m"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT"    envDefault:"10s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT"   envDefault:"30s"`
	EncryptHistory bool          `env:"ENCRYPT_HISTORY"`
}

var errFlashSecretRequired = errors.New("FLASH_SECRET is required when REDIS_URL is not set")

// loadConfig reads the configuration from environ, as returned by
// env.ToMap(os.Environ()).
func loadConfig(environ map[string]string) (*config, error) {
	var cfg config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil { //nolint:exhaustruct
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Flash cookies are signed with the secret unless flash data lives in Redis.
	if cfg.RedisURL == "" && cfg.FlashSecret == "" {
		return nil, errFlashSecretRequired
	}

	return &cfg, nil
}
