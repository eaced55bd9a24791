package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolated(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		EnvFile:    filepath.Join(dir, "missing.env"),
		ConfigDirs: []string{dir},
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(isolated(t))
	require.NoError(t, err)
	assert.Equal(t, DefaultRuntimeConfig(), cfg)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HEALTHD_DB_PATH", "/tmp/h.db")
	t.Setenv("HEALTHD_DESKTOP_NOTIFICATIONS", "true")
	t.Setenv("HEALTHD_SCHEDULER_BUFFER", "128")
	t.Setenv("HEALTHD_DEFAULT_SNOOZE_MINUTES", "15")
	t.Setenv("HEALTHD_PROFILE", "grandma")

	cfg, err := Load(isolated(t))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/h.db", cfg.DBPath)
	assert.True(t, cfg.DesktopNotifications)
	assert.Equal(t, 128, cfg.SchedulerBuffer)
	assert.Equal(t, 15, cfg.DefaultSnoozeMinutes)
	assert.Equal(t, "grandma", cfg.Profile)
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("HEALTHD_SCHEDULER_BUFFER", "-4")
	t.Setenv("HEALTHD_DEFAULT_SNOOZE_MINUTES", "0")
	t.Setenv("HEALTHD_TIMEZONE", "Mars/Olympus")

	cfg, err := Load(isolated(t))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.SchedulerBuffer)
	assert.Equal(t, 10, cfg.DefaultSnoozeMinutes)
	assert.Equal(t, "Local", cfg.Timezone)
}

func TestLoadYAMLAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "healthd.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("db_path: from-yaml.db\nlog_level: debug\ntimezone: UTC\n"), 0o644))
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("HEALTHD_METRICS_ADDR=127.0.0.1:9464\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("HEALTHD_METRICS_ADDR") })

	cfg, err := Load(Options{EnvFile: envPath, ConfigDirs: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, "from-yaml.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9464", cfg.MetricsAddr)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadMalformedConfigFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: [unterminated\n"), 0o644))

	_, err := Load(Options{EnvFile: filepath.Join(dir, "none.env"), ConfigFile: path})
	require.Error(t, err)
}
