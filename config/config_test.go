package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8082", cfg.Port)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, "https://api.valueserp.com", cfg.SerpBaseURL)
	assert.Equal(t, 30*time.Second, cfg.SerpTimeout)
	assert.Equal(t, 5*time.Minute, cfg.AutomationTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("AUTOMATION_TIMEOUT", "10s")
	t.Setenv("VALUE_SERP_API_KEY", "abcdefghijkl")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 10*time.Second, cfg.AutomationTimeout)
	assert.True(t, cfg.HasServerKey())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: \"7000\"\nSERP_TIMEOUT: 5s\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.SerpTimeout)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("SERP_TIMEOUT", "0s")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHasServerKeyPlaceholder(t *testing.T) {
	cfg := &Config{ValueSerpAPIKey: "your_valueserp_api_key_here"}
	assert.False(t, cfg.HasServerKey())
}
