package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":                       "www.example:9000",
		"storage_driver":                  "postgres",
		"database_dsn":                    "postgres://db/auth",
		"secret_key_file":                 "/run/secrets/jwt",
		"access_token_validity_duration":  "30m",
		"refresh_token_validity_duration": "48h",
		"refresh_token_bytes":             32,
		"bcrypt_cost":                     12,
		"cors_allowed_origins":            []string{"https://app.example"},
		"session_cleanup_interval":        "1h",
		"nats_url":                        "nats://localhost:4222",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, "postgres", cfg.StorageDriver)
		assert.Equal(t, "postgres://db/auth", cfg.DatabaseDSN)
		assert.Equal(t, "/run/secrets/jwt", cfg.SecretKeyFile)
		assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 48*time.Hour, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 32, cfg.RefreshTokenBytes)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, []string{"https://app.example"}, cfg.CORSAllowedOrigins)
		assert.Equal(t, time.Hour, cfg.SessionCleanupInterval)
		assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)

		// absent keys keep defaults
		assert.Equal(t, "secretKey", cfg.SecretKey)
		assert.Equal(t, 100, cfg.RateLimitPerMinute)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{HTTPAddr: "defaults:1234", DatabaseDSN: "auth.db"}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
		assert.Equal(t, "auth.db", cfg.DatabaseDSN)
	})

	t.Run("missing file → error", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		require.Error(t, parseJson(&Config{}))
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}
		require.Error(t, parseJson(&Config{}))
	})
}
