// Package config handles configuration for the server: defaults, a JSON
// file overlay, environment variables and command-line flags, applied in
// that order.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds runtime settings for the bookmarkauth server.
//
// Signing secret sources are tried in order: SecretS3Key (object in
// S3Bucket), SecretKeyFile, then SecretKey.
type Config struct {
	HTTPAddr      string `env:"HTTP_ADDR,overwrite"`
	StorageDriver string `env:"STORAGE_DRIVER,overwrite"`
	DatabaseDSN   string `env:"DATABASE_DSN,overwrite"`

	SecretKey     string `env:"SECRET_KEY,overwrite"`
	SecretKeyFile string `env:"SECRET_KEY_FILE,overwrite"`
	SecretS3Key   string `env:"SECRET_S3_KEY,overwrite"`

	S3RootUser     string `env:"S3_ROOT_USER,overwrite"`
	S3RootPassword string `env:"S3_ROOT_PASSWORD,overwrite"`
	S3Bucket       string `env:"S3_BUCKET,overwrite"`
	S3Region       string `env:"S3_REGION,overwrite"`
	S3BaseEndpoint string `env:"S3_BASE_ENDPOINT,overwrite"`

	AccessTokenValidityDuration  time.Duration `env:"ACCESS_TOKEN_TTL,overwrite"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_TTL,overwrite"`
	RefreshTokenBytes            int           `env:"REFRESH_TOKEN_BYTES,overwrite"`

	PasswordAlgorithm string `env:"PASSWORD_ALGORITHM,overwrite"`
	BcryptCost        int    `env:"BCRYPT_COST,overwrite"`
	Argon2Iterations  uint32 `env:"ARGON2_ITERATIONS,overwrite"`
	Argon2MemoryKiB   uint32 `env:"ARGON2_MEMORY_KIB,overwrite"`
	Argon2Parallelism uint8  `env:"ARGON2_PARALLELISM,overwrite"`

	LogFormat string `env:"LOG_FORMAT,overwrite"`
	LogLevel  string `env:"LOG_LEVEL,overwrite"`

	CORSAllowedOrigins     []string      `env:"CORS_ALLOWED_ORIGINS,overwrite"`
	RateLimitPerMinute     int           `env:"RATE_LIMIT_PER_MINUTE,overwrite"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL,overwrite"`

	OTLPEndpoint       string `env:"OTLP_ENDPOINT,overwrite"`
	NATSURL            string `env:"NATS_URL,overwrite"`
	EventSubjectPrefix string `env:"EVENT_SUBJECT_PREFIX,overwrite"`
}

// DevSecretKey is the inline signing secret LoadDefaults sets. It is
// accepted only with the sqlite driver.
const DevSecretKey = "secretKey"

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.StorageDriver = "sqlite"
	c.DatabaseDSN = "bookmarkauth.db"
	c.SecretKey = DevSecretKey
	c.S3Region = "us-east-1"
	c.AccessTokenValidityDuration = 1 * time.Hour
	c.RefreshTokenValidityDuration = 240 * time.Hour
	c.RefreshTokenBytes = 64
	c.PasswordAlgorithm = "bcrypt"
	c.BcryptCost = 10
	c.Argon2Iterations = 3
	c.Argon2MemoryKiB = 64 * 1024
	c.Argon2Parallelism = 2
	c.LogFormat = "json"
	c.LogLevel = "info"
	c.CORSAllowedOrigins = []string{"http://localhost:4200", "http://localhost:8200", "http://localhost:8100"}
	c.RateLimitPerMinute = 100
	c.EventSubjectPrefix = "bookmarkauth"
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is empty"))
	}
	switch c.StorageDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.StorageDriver))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is empty"))
	}
	if c.SecretKey == "" && c.SecretKeyFile == "" && c.SecretS3Key == "" {
		errs = append(errs, errors.New("no signing secret source configured"))
	}
	if c.StorageDriver == "postgres" && c.SecretS3Key == "" && c.SecretKeyFile == "" && c.SecretKey == DevSecretKey {
		errs = append(errs, errors.New("development secret key must not be used with postgres"))
	}
	if c.SecretS3Key != "" && c.S3Bucket == "" {
		errs = append(errs, errors.New("s3 secret key requires a bucket"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token ttl must be positive"))
	}
	if c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("refresh token ttl must be positive"))
	}
	if c.RefreshTokenBytes < 16 {
		errs = append(errs, errors.New("refresh token must have at least 16 random bytes"))
	}
	if c.SessionCleanupInterval < 0 {
		errs = append(errs, errors.New("session cleanup interval must not be negative"))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line
// flags. The result is validated.
func LoadConfig(ctx context.Context) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(ctx, cfg, nil); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
