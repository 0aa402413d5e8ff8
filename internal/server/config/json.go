package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bookmarkauth/internal/flagx"
	"github.com/dmitrijs2005/bookmarkauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "240h" and integer nanoseconds are accepted.
// Fields left out of the file keep their current value.
type JsonConfig struct {
	HTTPAddr      string `json:"http_addr"`
	StorageDriver string `json:"storage_driver"`
	DatabaseDSN   string `json:"database_dsn"`

	SecretKey     string `json:"secret_key"`
	SecretKeyFile string `json:"secret_key_file"`
	SecretS3Key   string `json:"secret_s3_key"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	RefreshTokenBytes            int            `json:"refresh_token_bytes"`

	PasswordAlgorithm string `json:"password_algorithm"`
	BcryptCost        int    `json:"bcrypt_cost"`
	Argon2Iterations  uint32 `json:"argon2_iterations"`
	Argon2MemoryKiB   uint32 `json:"argon2_memory_kib"`
	Argon2Parallelism uint8  `json:"argon2_parallelism"`

	LogFormat string `json:"log_format"`
	LogLevel  string `json:"log_level"`

	CORSAllowedOrigins     []string       `json:"cors_allowed_origins"`
	RateLimitPerMinute     int            `json:"rate_limit_per_minute"`
	SessionCleanupInterval timex.Duration `json:"session_cleanup_interval"`

	OTLPEndpoint       string `json:"otlp_endpoint"`
	NATSURL            string `json:"nats_url"`
	EventSubjectPrefix string `json:"event_subject_prefix"`
}

// parseJson loads the file named by -c/-config, if any, into config.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SecretKeyFile, c.SecretKeyFile)
	setString(&config.SecretS3Key, c.SecretS3Key)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.PasswordAlgorithm, c.PasswordAlgorithm)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.OTLPEndpoint, c.OTLPEndpoint)
	setString(&config.NATSURL, c.NATSURL)
	setString(&config.EventSubjectPrefix, c.EventSubjectPrefix)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.SessionCleanupInterval.Duration != 0 {
		config.SessionCleanupInterval = c.SessionCleanupInterval.Duration
	}
	if c.RefreshTokenBytes != 0 {
		config.RefreshTokenBytes = c.RefreshTokenBytes
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.Argon2Iterations != 0 {
		config.Argon2Iterations = c.Argon2Iterations
	}
	if c.Argon2MemoryKiB != 0 {
		config.Argon2MemoryKiB = c.Argon2MemoryKiB
	}
	if c.Argon2Parallelism != 0 {
		config.Argon2Parallelism = c.Argon2Parallelism
	}
	if c.RateLimitPerMinute != 0 {
		config.RateLimitPerMinute = c.RateLimitPerMinute
	}
	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
