// Package config loads pipeline configuration from file, environment and
// flags. Precedence, highest first: flags > env vars > config file >
// defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/dmers-project/dmersetl/internal/adapter"
)

// Defaults.
const (
	DefaultWarehousePath = "warehouse.db"
	DefaultSourcePath    = "operational.db"
	DefaultMetricsAddr   = ":9090"
	DefaultDailyAt       = "02:00"
	DefaultWeeklyAt      = "03:00"
	DefaultMonthlyAt     = "04:00"
)

// envPrefix namespaces environment overrides, e.g.
// DMERSETL_WAREHOUSE__DRIVER=postgres.
const envPrefix = "DMERSETL_"

// DB holds connection settings for one database.
type DB struct {
	Driver   string `koanf:"driver"`
	Path     string `koanf:"path"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

// AdapterConfig converts the section into adapter settings.
func (d DB) AdapterConfig() adapter.Config {
	return adapter.Config{
		Driver:   adapter.Driver(d.Driver),
		Path:     d.Path,
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		Username: d.Username,
		Password: d.Password,
		SSLMode:  d.SSLMode,
	}
}

// Schedule holds the recurring job times, HH:MM in Timezone.
type Schedule struct {
	DailyAt   string `koanf:"daily_at"`
	WeeklyAt  string `koanf:"weekly_at"`
	MonthlyAt string `koanf:"monthly_at"`
	Timezone  string `koanf:"timezone"`
}

// Config is the full pipeline configuration.
type Config struct {
	Warehouse   DB       `koanf:"warehouse"`
	Source      DB       `koanf:"source"`
	Schedule    Schedule `koanf:"schedule"`
	MetricsAddr string   `koanf:"metrics_addr"`
	Verbose     bool     `koanf:"verbose"`
}

// findConfigFile returns the config file to use.
// Priority: explicit path > dmersetl.yaml > dmersetl.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"dmersetl.yaml", "dmersetl.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load reads configuration. cfgFile may be empty, in which case
// dmersetl.yaml in the working directory is used when present. flags may
// be nil; only flags the user set are applied.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"warehouse.driver":    string(adapter.DriverSQLite),
		"warehouse.path":      DefaultWarehousePath,
		"source.driver":       string(adapter.DriverSQLite),
		"source.path":         DefaultSourcePath,
		"schedule.daily_at":   DefaultDailyAt,
		"schedule.weekly_at":  DefaultWeeklyAt,
		"schedule.monthly_at": DefaultMonthlyAt,
		"schedule.timezone":   "UTC",
		"metrics_addr":        DefaultMetricsAddr,
		"verbose":             false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if used := findConfigFile(cfgFile); used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// DMERSETL_WAREHOUSE__DRIVER -> warehouse.driver
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "."), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
