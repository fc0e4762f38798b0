package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AGRO_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, int64(42), cfg.Analytics.Seed)
	assert.Equal(t, 20.0, cfg.Analytics.AlertThresholdPct)
	assert.Equal(t, 7, cfg.Analytics.ForecastHorizon)
	assert.True(t, cfg.Fetch.Headless)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
analytics:
  seed: 7
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))

	t.Setenv("AGRO_CONFIG_FILE", configFile)
	t.Setenv("AGRO_SERVER_PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env wins over file")
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("AGRO_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("AGRO_LOGGING_LEVEL", "verbose")

	_, err := Load()
	assert.Error(t, err)
}
