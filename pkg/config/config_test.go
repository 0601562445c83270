package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{EnvServerURL, EnvToken, EnvDB, EnvAddr} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "mangaread", "config.json")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "library.db"), cfg.DBPath)
	assert.Equal(t, "vertical", cfg.Reader.ViewMode)
	assert.Equal(t, 100, cfg.Reader.ZoomPercent)
	assert.True(t, cfg.Reader.AutoProgress)
	assert.False(t, cfg.Remote())
	assert.True(t, cfg.IsAuthenticated(), "the local profile records progress")
}

func TestSaveAndReload(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "mangaread", "config.json")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	cfg.Reader.ViewMode = "double"
	cfg.Reader.ZoomPercent = 150
	require.NoError(t, cfg.SetToken("secret", "ana"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", reloaded.Token)
	assert.Equal(t, "ana", reloaded.UserID())
	assert.Equal(t, "double", reloaded.Reader.ViewMode)
	assert.Equal(t, 150, reloaded.Reader.ZoomPercent)
	assert.True(t, reloaded.Remote())

	require.NoError(t, reloaded.ClearToken())
	assert.False(t, reloaded.Remote())
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://file:1","token":"from-file"}`), 0600))

	t.Setenv(EnvServerURL, "http://env:2")
	t.Setenv(EnvToken, "from-env")
	t.Setenv(EnvDB, "/tmp/other.db")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env:2", cfg.ServerURL)
	assert.Equal(t, "from-env", cfg.Token)
	assert.Equal(t, "/tmp/other.db", cfg.DBPath)
}

func TestUnauthenticatedWithoutProfile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"username":""}`), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.False(t, cfg.IsAuthenticated())
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0600))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}
