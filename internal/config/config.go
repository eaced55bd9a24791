package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "HEALTHD"

type RuntimeConfig struct {
	DBPath               string `mapstructure:"db_path"`
	LogLevel             string `mapstructure:"log_level"`
	LogFile              string `mapstructure:"log_file"`
	Profile              string `mapstructure:"profile"`
	Timezone             string `mapstructure:"timezone"`
	SchedulerBuffer      int    `mapstructure:"scheduler_buffer"`
	DefaultSnoozeMinutes int    `mapstructure:"default_snooze_minutes"`
	DesktopNotifications bool   `mapstructure:"desktop_notifications"`
	MetricsAddr          string `mapstructure:"metrics_addr"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DBPath:               "healthd.db",
		LogLevel:             "info",
		LogFile:              "healthd.log",
		Profile:              "default",
		Timezone:             "Local",
		SchedulerBuffer:      64,
		DefaultSnoozeMinutes: 10,
		DesktopNotifications: false,
		MetricsAddr:          "",
	}
}

// Options locate the optional files Load reads. Empty fields use the defaults.
type Options struct {
	EnvFile    string
	ConfigFile string
	ConfigDirs []string
}

// Load resolves configuration from defaults, an optional healthd.yaml, an optional .env
// file and HEALTHD_* environment variables, later sources winning.
func Load(opts Options) (RuntimeConfig, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return RuntimeConfig{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	base := DefaultRuntimeConfig()
	v.SetDefault("db_path", base.DBPath)
	v.SetDefault("log_level", base.LogLevel)
	v.SetDefault("log_file", base.LogFile)
	v.SetDefault("profile", base.Profile)
	v.SetDefault("timezone", base.Timezone)
	v.SetDefault("scheduler_buffer", base.SchedulerBuffer)
	v.SetDefault("default_snooze_minutes", base.DefaultSnoozeMinutes)
	v.SetDefault("desktop_notifications", base.DesktopNotifications)
	v.SetDefault("metrics_addr", base.MetricsAddr)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("healthd")
		v.SetConfigType("yaml")
		dirs := opts.ConfigDirs
		if len(dirs) == 0 {
			dirs = []string{"."}
		}
		for _, dir := range dirs {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return RuntimeConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg RuntimeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg.normalize(base), nil
}

// normalize replaces out-of-range values with defaults, as bad env values never fail start-up.
func (c RuntimeConfig) normalize(base RuntimeConfig) RuntimeConfig {
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = base.DBPath
	}
	if strings.TrimSpace(c.Profile) == "" {
		c.Profile = base.Profile
	}
	if c.SchedulerBuffer <= 0 {
		c.SchedulerBuffer = base.SchedulerBuffer
	}
	if c.DefaultSnoozeMinutes <= 0 {
		c.DefaultSnoozeMinutes = base.DefaultSnoozeMinutes
	}
	if _, err := c.Location(); err != nil {
		c.Timezone = base.Timezone
	}
	return c
}

// Location resolves Timezone; "Local" and "" mean the host zone.
func (c RuntimeConfig) Location() (*time.Location, error) {
	switch strings.TrimSpace(c.Timezone) {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Timezone)
	}
}
