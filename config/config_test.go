package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWithSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret-key")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "test-secret-key", cfg.Auth.SecretKey)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Backend)
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := Load("", "")
	assert.EqualError(t, err, "JWT_SECRET_KEY environment variable is not set")
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, "swapmart.toml", `
[server]
port = "9000"
host = "127.0.0.1"

[database]
driver = "sqlite"
dsn = "from-file.db"

[auth]
secret_key = "file-secret"
token_ttl = "2h"

[log]
level = "debug"
`)
	t.Setenv("SWAPMART_PORT", "9100")
	t.Setenv("JWT_SECRET_KEY", "")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "environment overrides the file")
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "from-file.db", cfg.Database.DSN)
	assert.Equal(t, "file-secret", cfg.Auth.SecretKey)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "JWT_SECRET_KEY=dotenv-secret\nSWAPMART_STORAGE_LOCAL_ROOT=/srv/media\n")
	t.Setenv("JWT_SECRET_KEY", "")
	os.Unsetenv("JWT_SECRET_KEY")
	t.Cleanup(func() { os.Unsetenv("SWAPMART_STORAGE_LOCAL_ROOT") })

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-secret", cfg.Auth.SecretKey)
	assert.Equal(t, "/srv/media", cfg.Storage.LocalRoot)

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err, "a missing env file is ignored")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Backend = "s3" }, wantErr: true},
		{name: "s3 with bucket", mutate: func(c *Config) {
			c.Storage.Backend = "s3"
			c.Storage.S3Bucket = "media"
		}},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.SecretKey = "secret"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
