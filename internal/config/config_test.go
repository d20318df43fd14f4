package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.Data.IDColumn)
	assert.Equal(t, "name", cfg.Data.NameColumn)
	assert.Equal(t, "expensed", cfg.Data.ExpensedColumn)
	assert.Equal(t, 9, cfg.Data.SkipRows)
	assert.Equal(t, 2, cfg.Data.NameIndex)
	assert.Equal(t, 85, cfg.Match.Threshold)
	assert.Equal(t, 4, cfg.Match.Workers)
	assert.Equal(t, "out", cfg.Report.OutputDir)
	assert.False(t, cfg.Report.XLSX)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "recon.db", cfg.Store.Path)
	assert.InDelta(t, 1.0, cfg.Sheets.RateLimit, 0.001)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
data:
  roster: data/roster.csv
  subscriptions: data/subscriptions.xlsx
match:
  threshold: 90
store:
  driver: postgres
  dsn: postgres://localhost/recon
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/roster.csv", cfg.Data.Roster)
	assert.Equal(t, "data/subscriptions.xlsx", cfg.Data.Subscriptions)
	assert.Equal(t, 90, cfg.Match.Threshold)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/recon", cfg.Store.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 4, cfg.Match.Workers)
	assert.Equal(t, 9, cfg.Data.SkipRows)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
match:
  threshold: 90
store:
  driver: sqlite
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("RECON_MATCH_THRESHOLD", "95")
	t.Setenv("RECON_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, 95, cfg.Match.Threshold)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("RECON_MATCH_WORKERS", "8")
	t.Setenv("RECON_DATA_ROSTER", "env/roster.csv")
	t.Setenv("RECON_STORE_DSN", "postgres://env/recon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Match.Workers)
	assert.Equal(t, "env/roster.csv", cfg.Data.Roster)
	assert.Equal(t, "postgres://env/recon", cfg.Store.DSN)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RECON_REPORT_OUTPUT_DIR=artifacts\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("RECON_REPORT_OUTPUT_DIR") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "artifacts", cfg.Report.OutputDir)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
