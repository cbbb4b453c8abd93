package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValidEnv(t *testing.T, keyPath string) {
	t.Helper()
	t.Setenv(EnvUsername, "demo-user")
	t.Setenv(EnvPrivateKey, keyPath)
	t.Setenv(EnvTokenPath, filepath.Join(t.TempDir(), "token"))
	t.Setenv(EnvWhitelistedOnly, "false")
	t.Setenv(EnvReadOnly, "false")
	t.Setenv(EnvTokenExpiration, "30 minutes")
}

func writeKeyFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a real key, just needs to exist"), 0o600))
	return path
}

func TestFromEnvValid(t *testing.T) {
	setValidEnv(t, writeKeyFile(t))

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "demo-user", cfg.Username)
	assert.False(t, cfg.WhitelistedOnly)
	assert.False(t, cfg.ReadOnly)
	assert.Equal(t, uint(30), cfg.TokenExpiration.Count)
}

func TestFromEnvMissingVariable(t *testing.T) {
	setValidEnv(t, writeKeyFile(t))
	os.Unsetenv(EnvUsername)

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnvMissingKeyFile(t *testing.T) {
	setValidEnv(t, filepath.Join(t.TempDir(), "does-not-exist.pem"))

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnvInvalidBool(t *testing.T) {
	setValidEnv(t, writeKeyFile(t))
	t.Setenv(EnvWhitelistedOnly, "maybe")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnvInvalidExpiration(t *testing.T) {
	setValidEnv(t, writeKeyFile(t))
	t.Setenv(EnvTokenExpiration, "soon")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnvDefaultsForAmbientVars(t *testing.T) {
	setValidEnv(t, writeKeyFile(t))

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.False(t, cfg.IPv6Only)
}

func TestFromEnvIPv6OnlyOptIn(t *testing.T) {
	setValidEnv(t, writeKeyFile(t))
	t.Setenv(EnvIPv6Only, "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IPv6Only)
}

func TestFromEnvInvalidIPv6Only(t *testing.T) {
	setValidEnv(t, writeKeyFile(t))
	t.Setenv(EnvIPv6Only, "nope")

	_, err := FromEnv()
	assert.Error(t, err)
}
