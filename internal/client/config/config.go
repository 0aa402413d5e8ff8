package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// EnvPrefix is prepended to every variable name read by LoadConfig.
const EnvPrefix = "BOOKMARKAUTH_"

type Config struct {
	ServerURL string        `env:"SERVER_URL,overwrite"`
	Timeout   time.Duration `env:"TIMEOUT,overwrite"`
	StorePath string        `env:"STORE_PATH,overwrite"`
}

// LoadDefaults populates c with sensible defaults. The token store lives
// in the user's config directory when one can be determined.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:3000"
	c.Timeout = 10 * time.Second
	c.StorePath = "bookmarkauth-credentials.db"
	if dir, err := os.UserConfigDir(); err == nil {
		c.StorePath = filepath.Join(dir, "bookmarkauth", "credentials.db")
	}
}

// LoadConfig applies defaults and then the environment read through l.
// A nil l reads the process environment.
func LoadConfig(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if l == nil {
		l = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, l),
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}
