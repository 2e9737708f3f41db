package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	t.Setenv("ACCESS_AUTH_JWT_SECRET", "secret")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Statistic.Window)
	assert.Equal(t, 168*time.Hour, cfg.Access.ExpiryHorizon)
	assert.Equal(t, time.Duration(0), cfg.Access.SweepInterval)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
env: prod
database:
  driver: sqlite
  path: /tmp/access.db
auth:
  jwt_secret: from-file
  admin_groups: ["3", "7"]
mail:
  from_email: library@example.org
  from_name: Library
access:
  timezone: UTC
  sweep_interval: 15m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("ACCESS_MAIL_FROM_NAME", "Digital Library")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/access.db", cfg.Database.Path)
	assert.Equal(t, []string{"3", "7"}, cfg.Auth.AdminGroups)
	assert.Equal(t, "Digital Library", cfg.Mail.FromName)
	assert.Equal(t, 15*time.Minute, cfg.Access.SweepInterval)

	loc, err := cfg.Access.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{Driver: "mysql"},
		Auth:     AuthConfig{JWTSecret: "x"},
	}
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "sqlite"
	assert.NoError(t, cfg.Validate())

	cfg.Auth.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "x"
	cfg.Access.Timezone = "Nowhere/Invalid"
	assert.Error(t, cfg.Validate())
}
