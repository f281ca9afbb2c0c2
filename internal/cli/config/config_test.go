package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run from a directory without a dmersetl.yaml.
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Warehouse.Driver)
	assert.Equal(t, DefaultWarehousePath, cfg.Warehouse.Path)
	assert.Equal(t, "sqlite", cfg.Source.Driver)
	assert.Equal(t, DefaultDailyAt, cfg.Schedule.DailyAt)
	assert.Equal(t, "UTC", cfg.Schedule.Timezone)
	assert.Equal(t, DefaultMetricsAddr, cfg.MetricsAddr)
	assert.False(t, cfg.Verbose)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dmersetl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
warehouse:
  driver: postgres
  host: warehouse.internal
  port: 5433
  database: dmers_dw
schedule:
  daily_at: "01:30"
metrics_addr: ":9100"
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Warehouse.Driver)
	assert.Equal(t, "warehouse.internal", cfg.Warehouse.Host)
	assert.Equal(t, 5433, cfg.Warehouse.Port)
	assert.Equal(t, "dmers_dw", cfg.Warehouse.Database)
	assert.Equal(t, "01:30", cfg.Schedule.DailyAt)
	assert.Equal(t, ":9100", cfg.MetricsAddr)

	// Untouched sections keep their defaults.
	assert.Equal(t, "sqlite", cfg.Source.Driver)
	assert.Equal(t, DefaultWeeklyAt, cfg.Schedule.WeeklyAt)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dmersetl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("warehouse:\n  driver: postgres\n"), 0o644))

	t.Setenv("DMERSETL_WAREHOUSE__DRIVER", "sqlite")
	t.Setenv("DMERSETL_WAREHOUSE__PATH", "/var/lib/dmers/warehouse.db")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Warehouse.Driver)
	assert.Equal(t, "/var/lib/dmers/warehouse.db", cfg.Warehouse.Path)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DMERSETL_VERBOSE", "false")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--verbose"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
}

func TestLoadUnsetFlagIgnored(t *testing.T) {
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse(nil))

	t.Setenv("DMERSETL_VERBOSE", "true")
	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/dmersetl.yaml", nil)
	require.Error(t, err)
}
